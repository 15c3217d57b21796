package common

import (
	"fmt"
	"os"
)

// LogError prints an error message to stderr.
// When critic is true the process stops with exit code 1, optionally
// printing the command help first.
func LogError(
	message string,
	critic bool,
	helpMenu bool,
	helpCallback func() error,
) {
	fmt.Fprintf(os.Stderr, "%s\n", message)

	if critic {
		if helpMenu && helpCallback != nil {
			helpCallback()
		}
		os.Exit(1)
	}
}

// LogInfo: for a simple logging info
func LogInfo(
	message string,
	callback func(),
) {
	fmt.Printf("%s\n", message)

	// for a given callback
	if callback != nil {
		callback()
	}
}
