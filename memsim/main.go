// Package main is the entry of the memsim command.
package main

import (
	"github.com/sarchlab/memsim/memsim/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
