// Command edustat inspects the dashboard datasets from the terminal: it lists
// datasets, derives filter bounds, evaluates scatter trends and writes the same
// exports the web dashboard serves.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}
