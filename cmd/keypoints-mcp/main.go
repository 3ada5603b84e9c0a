// Command keypoints-mcp serves the keypoints MCP tools over stdio.
// It accepts the same provider flags as "keypoints mcp".
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/kailas-cloud/keypoints/internal/cli"
)

func main() {
	_ = godotenv.Load()
	os.Exit(cli.Execute(append([]string{"mcp"}, os.Args[1:]...)))
}
