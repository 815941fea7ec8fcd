// Package main serves as the entry point for the evalops CLI.
// It scans JavaScript/TypeScript code trees for source-embedded evaluation
// test declarations and uploads or validates the discovered test cases.
package main

import "evalops/cmd"

func main() {
	cmd.Execute()
}
