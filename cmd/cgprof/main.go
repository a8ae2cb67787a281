package main

import "os"

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
