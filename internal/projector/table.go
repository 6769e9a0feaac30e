package projector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultDelimiter splits header and data lines when no delimiter is configured.
const DefaultDelimiter = ","

// ErrUndecodable marks a line that is not valid UTF-8. Such lines are skipped.
var ErrUndecodable = errors.New("line is not valid UTF-8")

// LineError reports a recoverable failure on a single data line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *LineError) Unwrap() error { return e.Err }

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the logger used for load-time diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.log = l
		}
	}
}

// WithName sets the name used in error messages when the table is not
// backed by a named file.
func WithName(name string) Option {
	return func(t *Table) { t.name = name }
}

// Table is one opened input: the parsed header and a forward-only cursor
// over the remaining lines. It is consumed at most once.
type Table struct {
	Header []string

	name   string
	delim  string
	closer io.Closer
	rd     *bufio.Reader
	line   int // last data line read; the header is line 0
	done   bool
	log    *zap.Logger
}

// Open opens the file at path and parses its header.
func Open(path, delim string, options ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	t, err := NewTable(f, delim, append([]Option{WithName(path)}, options...)...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return t, nil
}

// NewTable reads the header from r. When r is an io.Closer the table owns it
// and releases it on Close. An empty input yields an empty header and an
// exhausted stream.
func NewTable(r io.Reader, delim string, options ...Option) (*Table, error) {
	if delim == "" {
		return nil, errors.New("empty delimiter")
	}
	t := &Table{
		name:  "-",
		delim: delim,
		rd:    bufio.NewReader(r),
		log:   zap.NewNop(),
	}
	if c, ok := r.(io.Closer); ok {
		t.closer = c
	}
	for _, opt := range options {
		opt(t)
	}

	header, ok, err := t.readLine()
	switch {
	case err != nil:
		return nil, fmt.Errorf("read header %s: %w", t.name, err)
	case !ok:
		t.Header = []string{}
	case !utf8.ValidString(header):
		t.log.Warn("header is not valid UTF-8, treating it as empty", zap.String("file", t.name))
		t.Header = []string{}
	default:
		t.Header = strings.Split(header, delim)
	}
	return t, nil
}

// Name reports the path or label of the input.
func (t *Table) Name() string { return t.name }

// Next returns the fields of the next data line and its 1-based number.
// It returns io.EOF once the stream is exhausted, and a *LineError for a line
// that cannot be decoded; the caller may keep reading after a *LineError.
func (t *Table) Next() ([]string, int, error) {
	s, ok, err := t.readLine()
	if err != nil {
		return nil, t.line, fmt.Errorf("read %s: %w", t.name, err)
	}
	if !ok {
		return nil, t.line, io.EOF
	}
	t.line++
	if !utf8.ValidString(s) {
		return nil, t.line, &LineError{Line: t.line, Err: ErrUndecodable}
	}
	return strings.Split(s, t.delim), t.line, nil
}

// Close releases the underlying reader. It is safe to call more than once.
func (t *Table) Close() error {
	if t.closer == nil {
		return nil
	}
	c := t.closer
	t.closer = nil
	return c.Close()
}

// readLine returns the next line without its terminator. ok is false at end
// of input.
func (t *Table) readLine() (string, bool, error) {
	if t.done {
		return "", false, nil
	}
	s, err := t.rd.ReadString('\n')
	if err != nil {
		t.done = true
		if !errors.Is(err, io.EOF) {
			return "", false, err
		}
		if s == "" {
			return "", false, nil
		}
	}
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, true, nil
}
