// cmd/service/main.go
package main

import "github-org-collector/internal/cli"

func main() {
	cli.Execute()
}
