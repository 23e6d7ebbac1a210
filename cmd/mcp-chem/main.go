// Command mcp-chem serves the chemkit chemistry tools to MCP clients over
// stdin/stdout. It accepts the same flags as "chemkit mcp".
package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/chemkit/internal/cli"
)

func main() {
	if err := cli.ExecuteMCP(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
