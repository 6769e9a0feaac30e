package root

import "github.com/spf13/cobra"

const (
	exitCodeExecErr = 1
	exitCodeUsage   = 2
)

// usageError is returned for malformed invocations. It carries the usage text
// of the command that rejected the arguments.
type usageError struct {
	msg   string
	usage string
}

func (e usageError) Error() string { return e.msg }
func (e usageError) ExitCode() int { return exitCodeUsage }
func (e usageError) Usage() string { return e.usage }

func newUsageError(cmd *cobra.Command, msg string) error {
	return usageError{msg: msg, usage: cmd.UsageString()}
}
