package root

import (
	"context"
	"io"
	"os"

	"github.com/happyslowly/csv/cmd/csv/version"
	"github.com/happyslowly/csv/internal/logging"
	"github.com/happyslowly/csv/internal/projector"
	"github.com/happyslowly/csv/internal/where"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd creates the csv command. The root command itself projects
// columns; `version` is its only subcommand.
func NewRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "csv [flags] <file> [column...]",
		Short: "Print selected columns of a delimited text file",
		Long: `Print selected columns of a delimited text file.

The first line names the columns. The selected columns are printed tab-separated
for the header and every data row, in the order given. Without columns, every
column is printed. A file of "-" reads standard input.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return newUsageError(cmd, "missing required argument: <file>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(cmd, o, args[0], args[1:])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(c, err.Error())
	})
	o.bind(cmd)

	cmd.AddCommand(version.NewCmd())
	return cmd
}

// Execute runs the root command with the process streams.
func Execute(args []string) error {
	return ExecuteContext(context.Background(), args, os.Stdin, os.Stdout, os.Stderr)
}

// ExecuteContext runs the root command with the provided streams.
func ExecuteContext(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func runProject(cmd *cobra.Command, o *options, path string, columns []string) error {
	s, err := o.resolve(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(s.logLevel, cmd.ErrOrStderr())
	if err != nil {
		return newUsageError(cmd, err.Error())
	}
	defer func() { _ = log.Sync() }()

	var filter projector.RowFilter
	if s.where != "" && !o.list {
		pred, err := where.Compile(s.where, where.WithTimeout(s.whereTimeout))
		if err != nil {
			return newUsageError(cmd, err.Error())
		}
		defer pred.Close()
		filter = pred
	}

	tbl, err := openInput(cmd, path, s.delimiter, log)
	if err != nil {
		return err
	}
	defer tbl.Close()

	out := cmd.OutOrStdout()
	if o.list {
		return projector.ListHeader(out, tbl)
	}
	st, err := projector.Run(cmd.Context(), out, tbl, projector.Projection{
		Selected:   columns,
		Top:        s.top,
		Duplicates: s.duplicates,
		Filter:     filter,
		Logger:     log,
	})
	log.Debug("projection done",
		zap.String("file", tbl.Name()),
		zap.Int("examined", st.Examined),
		zap.Int("emitted", st.Emitted),
		zap.Int("skipped", st.Skipped),
		zap.Int("filtered", st.Filtered),
		zap.Int("padded", st.Padded),
	)
	return err
}

func openInput(cmd *cobra.Command, path, delim string, log *zap.Logger) (*projector.Table, error) {
	if path == "-" {
		return projector.NewTable(cmd.InOrStdin(), delim, projector.WithName("-"), projector.WithLogger(log))
	}
	return projector.Open(path, delim, projector.WithLogger(log))
}
