package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// compileCUE loads and compiles a CUE file at the given path.
func compileCUE(path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("invalid config: %v", err)
	}
	return v, nil
}

func loadCUE(path string) (Defaults, error) {
	v, err := compileCUE(path)
	if err != nil {
		return Defaults{}, err
	}
	if err := rejectUnknownCUEFields(v); err != nil {
		return Defaults{}, err
	}
	if err := requireStringField(v, "configVersion"); err != nil {
		return Defaults{}, err
	}

	var d Defaults
	if err := v.LookupPath(cue.ParsePath("configVersion")).Decode(&d.ConfigVersion); err != nil {
		return Defaults{}, fmt.Errorf("invalid value for configVersion: %v", err)
	}
	if d.HasDelimiter, err = optionalField(v, "delimiter", cue.StringKind, &d.Delimiter); err != nil {
		return Defaults{}, err
	}
	if d.HasTop, err = optionalField(v, "top", cue.IntKind, &d.Top); err != nil {
		return Defaults{}, err
	}
	if d.HasDuplicates, err = optionalField(v, "duplicates", cue.StringKind, &d.Duplicates); err != nil {
		return Defaults{}, err
	}
	if d.HasWhere, err = optionalField(v, "where", cue.StringKind, &d.Where); err != nil {
		return Defaults{}, err
	}
	if d.HasWhereTimeoutMs, err = optionalField(v, "whereTimeoutMs", cue.IntKind, &d.WhereTimeoutMs); err != nil {
		return Defaults{}, err
	}
	if d.HasLogLevel, err = optionalField(v, "logLevel", cue.StringKind, &d.LogLevel); err != nil {
		return Defaults{}, err
	}
	return d, nil
}

func requireStringField(v cue.Value, name string) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return fmt.Errorf("missing required field: %s", name)
	}
	if f.Kind() != cue.StringKind {
		return fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	return nil
}

// optionalField decodes name into dst when present. A present field of the
// wrong kind is an error.
func optionalField(v cue.Value, name string, kind cue.Kind, dst any) (bool, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return false, nil
	}
	if f.Kind() != kind {
		return false, fmt.Errorf("invalid type for field: %s (expected %s)", name, kind)
	}
	if err := f.Decode(dst); err != nil {
		return false, fmt.Errorf("invalid value for %s: %v", name, err)
	}
	return true, nil
}

func rejectUnknownCUEFields(v cue.Value) error {
	it, err := v.Fields()
	if err != nil {
		return fmt.Errorf("invalid config: %v", err)
	}
	for it.Next() {
		if name := it.Selector().String(); !isKnownField(name) {
			return fmt.Errorf("unknown config field: %s", name)
		}
	}
	return nil
}
