package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aatumaykin/trash-expiry/internal/version"
)

var (
	Version   string = "0.1.0-dev"
	BuildTime string = "unknown"
	GitCommit string = "unknown"
	GoVersion string = "unknown"
)

// Exit statuses.
const (
	exitOK      = 0
	exitFailure = 1 // the pass finished but recorded non-fatal errors
	exitFatal   = 2 // nothing was processed
)

// exitError carries an exit status out of a command. Its message, if any,
// has already been reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func init() {
	version.SetInfo(Version, BuildTime, GitCommit, GoVersion)
	version.FillFromBuildInfo()
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	code := exitCode(err)
	var exit *exitError
	if err != nil && !errors.As(err, &exit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

// exitCode maps a command error to the process exit status. Errors that do
// not carry a status are usage errors.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	return exitFatal
}
