package main

import (
	"fmt"
	"os"

	"cloudcanvas/service"
)

// exit is swapped out by the tests.
var exit = os.Exit

func main() {
	RealMain()
}

// RealMain runs the command line and exits non-zero when a command fails.
func RealMain() {
	cmd := service.NewRootCmd()
	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}
