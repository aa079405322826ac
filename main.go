// The main package for the itemscraper executable.
package main

import (
	"github.com/minewiki/itemscraper/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
