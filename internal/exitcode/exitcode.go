// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task, invalid field).
	UserError = 1

	// AuthError indicates a credentials or configuration error.
	AuthError = 2

	// BackendError indicates a storage, API or network failure.
	BackendError = 3
)
