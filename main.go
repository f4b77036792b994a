// Package main is the entry point for the prscore CLI.
package main

import "prscore.dev/pkg/prscore/cmd"

func main() {
	cmd.Execute()
}
