package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/chemkit/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	if os.Getenv("CHEMKIT_AUTORESTART") == "1" {
		go autorestart.RestartOnChange()
	}
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
