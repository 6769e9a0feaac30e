package root

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/happyslowly/csv/internal/config"
	"github.com/happyslowly/csv/internal/logging"
	"github.com/happyslowly/csv/internal/projector"
	"github.com/happyslowly/csv/internal/where"
	"github.com/spf13/cobra"
)

// options mirrors the command line. Values are merged with the optional
// defaults file by resolve.
type options struct {
	list         bool
	delimiter    string
	top          int
	where        string
	whereTimeout time.Duration
	duplicates   string
	logLevel     string
	configPath   string
}

// settings is the validated outcome of flags and defaults file.
type settings struct {
	delimiter    string
	top          int
	where        string
	whereTimeout time.Duration
	duplicates   projector.DuplicatePolicy
	logLevel     string
}

func (o *options) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVarP(&o.list, "list", "l", false, "List the header column names, one per line")
	f.StringVarP(&o.delimiter, "delimiter", "d", projector.DefaultDelimiter, `Field delimiter; Go escapes such as \t or \a are accepted`)
	f.IntVarP(&o.top, "top", "n", projector.Unbounded, "Process at most N data rows (default: all)")
	f.StringVar(&o.where, "where", "", "Lua expression; rows for which it is false or nil are dropped")
	f.DurationVar(&o.whereTimeout, "where-timeout", where.DefaultTimeout, "Evaluation budget of --where per row (0 disables)")
	f.StringVar(&o.duplicates, "duplicates", "all", "Duplicate header names: all (every match) or last (last match only)")
	f.StringVar(&o.logLevel, "log-level", logging.DefaultLevel, "Diagnostics level on stderr: debug, info, warn or error")
	f.StringVarP(&o.configPath, "config", "c", "", "Path to a defaults file (.cue, .yaml or .yml)")
}

// resolve merges explicit flags over the defaults file and validates the
// result. Validation failures are usage errors.
func (o *options) resolve(cmd *cobra.Command) (settings, error) {
	var d config.Defaults
	if o.configPath != "" {
		var err error
		if d, err = config.Load(o.configPath); err != nil {
			return settings{}, newUsageError(cmd, fmt.Sprintf("config %s: %v", o.configPath, err))
		}
	}
	f := cmd.Flags()

	delim := o.delimiter
	if !f.Changed("delimiter") && d.HasDelimiter {
		delim = d.Delimiter
	}
	top := o.top
	if !f.Changed("top") && d.HasTop {
		top = d.Top
	}
	expr := o.where
	if !f.Changed("where") && d.HasWhere {
		expr = d.Where
	}
	timeout := o.whereTimeout
	if !f.Changed("where-timeout") && d.HasWhereTimeoutMs {
		timeout = time.Duration(d.WhereTimeoutMs) * time.Millisecond
	}
	dups := o.duplicates
	if !f.Changed("duplicates") && d.HasDuplicates {
		dups = d.Duplicates
	}
	level := o.logLevel
	if !f.Changed("log-level") && d.HasLogLevel {
		level = d.LogLevel
	}

	s := settings{top: top, where: expr, whereTimeout: timeout, logLevel: level}
	var err error
	if s.delimiter, err = parseDelimiter(delim); err != nil {
		return settings{}, newUsageError(cmd, err.Error())
	}
	if top < projector.Unbounded {
		return settings{}, newUsageError(cmd, fmt.Sprintf("invalid value for --top: %d (expected >= 0, or -1 for no limit)", top))
	}
	if timeout < 0 {
		return settings{}, newUsageError(cmd, fmt.Sprintf("invalid value for --where-timeout: %s", timeout))
	}
	if s.duplicates, err = projector.ParseDuplicatePolicy(dups); err != nil {
		return settings{}, newUsageError(cmd, err.Error())
	}
	return s, nil
}

// parseDelimiter interprets Go escape sequences so that control characters
// can be given on the command line. A value that does not unquote cleanly is
// used as written.
func parseDelimiter(v string) (string, error) {
	if v == "" {
		return "", errors.New("empty delimiter")
	}
	if !strings.Contains(v, `\`) {
		return v, nil
	}
	u, err := strconv.Unquote(`"` + strings.ReplaceAll(v, `"`, `\"`) + `"`)
	if err != nil {
		return v, nil
	}
	if u == "" {
		return "", errors.New("empty delimiter")
	}
	return u, nil
}
