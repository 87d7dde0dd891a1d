// Package main is the entry point for the shiftgraph application
package main

import (
	"github.com/ethpandaops/shiftgraph/cmd"
)

func main() {
	cmd.Execute()
}
