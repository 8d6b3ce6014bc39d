package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAuth()
	c.normalizeDRM()
	if err := c.normalizeExport(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.AuthFile) == "" {
		c.Paths.AuthFile = defaultAuthFile
	}
	if c.Paths.AuthFile, err = expandPath(c.Paths.AuthFile); err != nil {
		return fmt.Errorf("paths.auth_file: %w", err)
	}
	if c.Paths.LibraryBase == "" {
		if value, ok := os.LookupEnv("RIDIEXPORT_LIBRARY_BASE"); ok {
			c.Paths.LibraryBase = strings.TrimSpace(value)
		}
	}
	if c.Paths.LibraryBase, err = expandPath(strings.TrimSpace(c.Paths.LibraryBase)); err != nil {
		return fmt.Errorf("paths.library_base: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAuth() {
	c.Auth.LoginURL = strings.TrimSpace(c.Auth.LoginURL)
	if c.Auth.LoginURL == "" {
		c.Auth.LoginURL = defaultLoginURL
	}
	c.Auth.DevicesAPIURL = strings.TrimSpace(c.Auth.DevicesAPIURL)
	if c.Auth.DevicesAPIURL == "" {
		c.Auth.DevicesAPIURL = defaultDevicesAPIURL
	}
}

func (c *Config) normalizeDRM() {
	if value, ok := os.LookupEnv("RIDIEXPORT_DRM_HELPER"); ok && strings.TrimSpace(value) != "" {
		c.DRM.Helper = value
	}
	c.DRM.Helper = strings.TrimSpace(c.DRM.Helper)
	if c.DRM.Helper == "" {
		c.DRM.Helper = defaultDRMHelper
	}
}

func (c *Config) normalizeExport() error {
	var err error
	if strings.TrimSpace(c.Export.OutputDir) == "" {
		c.Export.OutputDir = defaultOutputDir
	}
	if c.Export.OutputDir, err = expandPath(c.Export.OutputDir); err != nil {
		return fmt.Errorf("export.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
