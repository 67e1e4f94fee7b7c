// Package config holds the warning registry and project-level defaults.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

type Warning int

const (
	WarnDivZero Warning = iota
	WarnShadow
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Warnings   map[Warning]Info
	WarningMap map[string]Warning
	OutFile    string
}

func NewConfig() *Config {
	cfg := &Config{
		Warnings:   make(map[Warning]Info),
		WarningMap: make(map[string]Warning),
		OutFile:    "out.s",
	}

	warnings := map[Warning]Info{
		WarnDivZero: {"div-zero", true, "Warn when the right operand of '/' is the constant zero."},
		WarnShadow:  {"shadow", false, "Warn when a declaration shadows an outer binding."},
	}

	cfg.Warnings = warnings
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// projectFile mirrors the layout of cmips.toml.
type projectFile struct {
	Output   string          `toml:"output"`
	Warnings map[string]bool `toml:"warnings"`
}

// LoadProjectFile merges settings from the project file at path. A missing
// file is not an error.
func (c *Config) LoadProjectFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var pf projectFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if pf.Output != "" {
		c.OutFile = pf.Output
	}
	for name, enabled := range pf.Warnings {
		wt, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("%s: unknown warning %q", path, name)
		}
		c.SetWarning(wt, enabled)
	}
	return nil
}
