// Command verifier checks JSON or YAML documents against YAML schemas.
//
//	verifier check --schema user.yml --data user.json
//	verifier print --schema user.yml
//
// Exit status is 0 for a valid document, 1 for an invalid one and 2 for any
// other failure (bad flags, unreadable files, broken schemas).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const (
	exitValid   = 0
	exitInvalid = 1
	exitError   = 2
)

// errInvalid marks a document that was read and verified but rejected.
var errInvalid = errors.New("document is invalid")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitValid
	case errors.Is(err, errInvalid):
		return exitInvalid
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitError
}
