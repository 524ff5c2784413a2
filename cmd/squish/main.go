// Command squish clones recorded AI-assistant sessions with their
// conversational text compressed.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "squish:", err)
		os.Exit(1)
	}
}
