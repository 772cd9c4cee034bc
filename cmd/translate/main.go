package main

import (
	"os"

	"github.com/z-wentao/subhashit/pkg/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], cli.IOStreams{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}))
}
