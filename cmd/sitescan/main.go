package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes
const (
	exitOK        = 0
	exitError     = 1
	exitMalicious = 2
)

// errMalicious is returned by a command whose scans found a malicious page
var errMalicious = errors.New("malicious verdict")

func main() {
	os.Exit(run())
}

func run() int {
	err := newRootCmd().Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errMalicious):
		return exitMalicious
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitError
	}
}
