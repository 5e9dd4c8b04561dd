/*
Package main provides the operator CLI for the contact service.
*/
package main

import (
	"os"

	"github.com/dukerupert/armstrong/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
