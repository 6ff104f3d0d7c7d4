package main

import (
	"fmt"
	"os"

	"github.com/tillberg/autorestart"

	"github.com/buildmart/haggle/internal/cli"
)

func main() {
	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
