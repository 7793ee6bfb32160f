// Command eoss runs the EOSS object storage service.
package main

import (
	"fmt"
	"os"

	"github.com/ericlee/eoss/cmd/eoss/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
