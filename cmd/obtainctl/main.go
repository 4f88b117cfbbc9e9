// Command obtainctl inspects and invalidates obtainable cache entries.
package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRootCmd(newApp(os.Stdout))
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
