// Command pbxd bridges JSON/XML clients to an Avaya Communication Manager
// administration terminal session.
package main

import (
	"fmt"
	"os"

	"github.com/uw-it-ist/pbxd/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
