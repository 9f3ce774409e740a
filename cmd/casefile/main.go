// ABOUTME: Entry point for the casefile CLI
// ABOUTME: Records and queries investigation findings over execution traces

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
