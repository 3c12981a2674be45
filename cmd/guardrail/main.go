package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/adrianpk/guardrail/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		if errors.Is(err, cli.ErrDenied) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
