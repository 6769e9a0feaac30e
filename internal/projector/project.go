package projector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"

	"go.uber.org/zap"
)

const (
	// Unbounded disables the row limit.
	Unbounded = -1

	// OutputSeparator joins projected fields on output.
	OutputSeparator = '\t'
)

// RowFilter decides whether a data row is emitted. line is the 1-based data
// line number.
type RowFilter interface {
	Keep(line int, header, fields []string) (bool, error)
}

// Projection holds the per-invocation settings of projection mode.
type Projection struct {
	Selected   []string
	Top        int
	Duplicates DuplicatePolicy
	Filter     RowFilter
	Logger     *zap.Logger
}

// Stats summarises one projection run.
type Stats struct {
	Examined int
	Emitted  int
	Skipped  int
	Filtered int
	Padded   int
}

// ListHeader writes each header name on its own line. Data lines are never read.
func ListHeader(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	for _, name := range t.Header {
		if _, err := bw.WriteString(name); err != nil {
			return quietPipe(err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return quietPipe(err)
		}
	}
	return quietPipe(bw.Flush())
}

// Run projects the header once, then every data line up to p.Top, through
// the same resolved indexes. Undecodable lines are skipped. Rows emitted
// before a failure are flushed. A closed downstream pipe ends the run
// without error.
func Run(ctx context.Context, w io.Writer, t *Table, p Projection) (st Stats, err error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if len(t.Header) == 0 {
		return st, nil
	}

	indexes := Resolve(t.Header, p.Selected, p.Duplicates)
	if missing := Missing(t.Header, p.Selected); len(missing) > 0 {
		log.Debug("unknown columns ignored", zap.Strings("columns", missing))
	}
	log.Debug("resolved columns",
		zap.Strings("selected", p.Selected),
		zap.Ints("indexes", indexes),
		zap.Stringer("duplicates", p.Duplicates),
	)

	bw := bufio.NewWriter(w)
	defer func() {
		if ferr := bw.Flush(); err == nil {
			err = ferr
		}
		err = quietPipe(err)
	}()
	if _, err := writeRow(bw, t.Header, indexes); err != nil {
		return st, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if p.Top != Unbounded && st.Examined >= p.Top {
			break
		}
		fields, line, err := t.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		st.Examined++
		var le *LineError
		if errors.As(err, &le) {
			st.Skipped++
			log.Warn("skipping line", zap.String("file", t.Name()), zap.Int("line", le.Line), zap.Error(le.Err))
			continue
		}
		if err != nil {
			return st, err
		}
		if p.Filter != nil {
			keep, err := p.Filter.Keep(line, t.Header, fields)
			if err != nil {
				return st, fmt.Errorf("where: line %d: %w", line, err)
			}
			if !keep {
				st.Filtered++
				continue
			}
		}
		short, err := writeRow(bw, fields, indexes)
		if err != nil {
			return st, err
		}
		if short > 0 {
			st.Padded++
			log.Warn("short row padded", zap.String("file", t.Name()), zap.Int("line", line), zap.Int("missing", short))
		}
		st.Emitted++
	}
	return st, nil
}

// writeRow writes the fields at indexes joined by OutputSeparator. Positions
// past the end of fields are written as empty values; their count is returned.
func writeRow(bw *bufio.Writer, fields []string, indexes []int) (int, error) {
	short := 0
	for i, ix := range indexes {
		if i > 0 {
			if err := bw.WriteByte(OutputSeparator); err != nil {
				return short, err
			}
		}
		if ix >= len(fields) {
			short++
			continue
		}
		if _, err := bw.WriteString(fields[ix]); err != nil {
			return short, err
		}
	}
	return short, bw.WriteByte('\n')
}

// quietPipe drops the error raised when the reader of our output went away.
func quietPipe(err error) error {
	if errors.Is(err, syscall.EPIPE) {
		return nil
	}
	return err
}
