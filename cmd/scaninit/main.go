// Package main implements the scaninit binary. It is the only
// public-facing entry point, since the Go packages are all internal.
package main

import "github.com/replit/scaninit/internal/cli"

// Main entry point for the scaninit binary.
func main() {
	cli.DoCLI()
}
