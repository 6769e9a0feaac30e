package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Defaults holds values read from an optional defaults file. Each HasXxx
// flag records whether the file set the matching field, so callers can let
// explicit flags take precedence.
type Defaults struct {
	ConfigVersion string

	Delimiter    string
	HasDelimiter bool

	Top    int
	HasTop bool

	Duplicates    string
	HasDuplicates bool

	Where    string
	HasWhere bool

	WhereTimeoutMs    int
	HasWhereTimeoutMs bool

	LogLevel    string
	HasLogLevel bool
}

var knownFields = []string{
	"configVersion",
	"delimiter",
	"top",
	"duplicates",
	"where",
	"whereTimeoutMs",
	"logLevel",
}

// Load reads a defaults file. The format follows the extension: .cue, .yaml
// or .yml.
func Load(path string) (Defaults, error) {
	var (
		d   Defaults
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		d, err = loadCUE(path)
	case ".yaml", ".yml":
		d, err = loadYAML(path)
	default:
		return Defaults{}, errors.New("unsupported config format: expected .cue, .yaml or .yml")
	}
	if err != nil {
		return Defaults{}, err
	}
	if err := checkConfigVersion(d.ConfigVersion); err != nil {
		return Defaults{}, err
	}
	// -1 is the unbounded sentinel, matching --top
	if d.HasTop && d.Top < -1 {
		return Defaults{}, fmt.Errorf("invalid value for top: %d (expected >= 0, or -1 for no limit)", d.Top)
	}
	if d.HasWhereTimeoutMs && d.WhereTimeoutMs < 0 {
		return Defaults{}, fmt.Errorf("invalid value for whereTimeoutMs: %d (expected >= 0)", d.WhereTimeoutMs)
	}
	return d, nil
}

func isKnownField(name string) bool {
	for _, f := range knownFields {
		if f == name {
			return true
		}
	}
	return false
}
