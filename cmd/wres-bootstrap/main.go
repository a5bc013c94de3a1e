package main

import (
	"fmt"
	"os"

	"wres-bootstrap/cmd/wres-bootstrap/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
