// Package where evaluates a sandboxed Lua predicate against data rows.
//
// The expression sees three globals: row (column name to value, later
// duplicate names win), fields (1-based array of values) and line (1-based
// data line number). A bare expression is evaluated as `return (expr)`; a
// chunk of statements must return its own result.
package where

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds the evaluation of one row.
const DefaultTimeout = time.Second

const sandboxTimeoutViolation = "sandbox timeout"

// Option configures a Predicate.
type Option func(*Predicate)

// WithTimeout sets the per-row evaluation budget. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Predicate) { p.timeout = d }
}

// Predicate is a compiled row filter. It is not safe for concurrent use.
type Predicate struct {
	expr    string
	timeout time.Duration
	state   *lua.LState
	fn      *lua.LFunction
}

// Compile parses expr once. The returned predicate must be closed.
func Compile(expr string, options ...Option) (*Predicate, error) {
	code := strings.TrimSpace(expr)
	if code == "" {
		return nil, errors.New("empty where expression")
	}
	p := &Predicate{expr: expr, timeout: DefaultTimeout}
	for _, opt := range options {
		opt(p)
	}
	p.state = newSandboxState()
	// a bare expression compiles once wrapped; a chunk with its own
	// statements does not, and is loaded as written
	fn, err := p.state.LoadString("return (" + code + ")")
	if err != nil {
		if fn, err = p.state.LoadString(code); err != nil {
			p.state.Close()
			return nil, fmt.Errorf("invalid where expression: %v", err)
		}
	}
	p.fn = fn
	return p, nil
}

// String returns the source expression.
func (p *Predicate) String() string { return p.expr }

// Keep evaluates the predicate for one row. nil and false drop the row; any
// other value keeps it.
func (p *Predicate) Keep(line int, header, fields []string) (bool, error) {
	L := p.state
	L.SetGlobal("row", rowTable(L, header, fields))
	L.SetGlobal("fields", fieldsTable(L, fields))
	L.SetGlobal("line", lua.LNumber(line))

	if p.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		L.SetContext(ctx)
		defer L.RemoveContext()
	}

	L.Push(p.fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if isTimeoutError(err) {
			return false, errors.New(sandboxTimeoutViolation)
		}
		return false, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}

// Close releases the Lua state.
func (p *Predicate) Close() {
	if p.state != nil {
		p.state.Close()
		p.state = nil
	}
}

func newSandboxState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	// base exposes file loaders; rows never need them
	for _, name := range []string{"dofile", "loadfile", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func rowTable(L *lua.LState, header, fields []string) *lua.LTable {
	tbl := L.CreateTable(0, len(header))
	for i, name := range header {
		if i < len(fields) {
			tbl.RawSetString(name, lua.LString(fields[i]))
		}
	}
	return tbl
}

func fieldsTable(L *lua.LState, fields []string) *lua.LTable {
	tbl := L.CreateTable(len(fields), 0)
	for i, f := range fields {
		tbl.RawSetInt(i+1, lua.LString(f))
	}
	return tbl
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "deadline")
}
