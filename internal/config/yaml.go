package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type yamlDefaults struct {
	ConfigVersion  *string `yaml:"configVersion"`
	Delimiter      *string `yaml:"delimiter"`
	Top            *int    `yaml:"top"`
	Duplicates     *string `yaml:"duplicates"`
	Where          *string `yaml:"where"`
	WhereTimeoutMs *int    `yaml:"whereTimeoutMs"`
	LogLevel       *string `yaml:"logLevel"`
}

func loadYAML(path string) (Defaults, error) {
	f, err := os.Open(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("failed to read config: %w", err)
	}
	defer f.Close()

	var y yamlDefaults
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&y); err != nil && !errors.Is(err, io.EOF) {
		return Defaults{}, fmt.Errorf("invalid config: %v", err)
	}
	if y.ConfigVersion == nil {
		return Defaults{}, errors.New("missing required field: configVersion")
	}

	d := Defaults{ConfigVersion: *y.ConfigVersion}
	if y.Delimiter != nil {
		d.Delimiter, d.HasDelimiter = *y.Delimiter, true
	}
	if y.Top != nil {
		d.Top, d.HasTop = *y.Top, true
	}
	if y.Duplicates != nil {
		d.Duplicates, d.HasDuplicates = *y.Duplicates, true
	}
	if y.Where != nil {
		d.Where, d.HasWhere = *y.Where, true
	}
	if y.WhereTimeoutMs != nil {
		d.WhereTimeoutMs, d.HasWhereTimeoutMs = *y.WhereTimeoutMs, true
	}
	if y.LogLevel != nil {
		d.LogLevel, d.HasLogLevel = *y.LogLevel, true
	}
	return d, nil
}
