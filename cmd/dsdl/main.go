// Package main is the entry point of the dsdl command-line front-end,
// wired the way the teacher wires its zkc toolbox in pkg/cmd/zkc/root.go:
// a cobra root command dispatching to subcommands, one package-level
// Execute.
package main

import (
	"github.com/cyphal-go/dsdl/internal/cli"
)

func main() {
	cli.Execute()
}
