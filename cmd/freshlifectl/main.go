// Command freshlifectl runs tracker operations against the configured store.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	root, closeEnv := newRootCmd(defaultOpener)
	defer func() {
		if err := closeEnv(); err != nil {
			fmt.Fprintln(os.Stderr, "close:", err)
		}
	}()
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
