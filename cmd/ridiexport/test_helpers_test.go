package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ridiexport/internal/config"
	"ridiexport/internal/testsupport"
)

// helperScript stands in for the DRM helper: keys are the hex of "k", and
// decryption copies the data file. The book "bad" fails key derivation.
const helperScript = `#!/bin/sh
case "$1" in
derive-key)
	[ "$3" = bad ] && { echo "invalid key material" >&2; exit 2; }
	read device
	[ -n "$device" ] || exit 3
	echo 6b
	;;
decrypt)
	cat "$7"
	;;
*)
	exit 4
	;;
esac
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("CLI tests use a shell script DRM helper")
	}

	t.Setenv("RIDIEXPORT_DRM_HELPER", "")
	t.Setenv("RIDIEXPORT_LIBRARY_BASE", "")
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories(), testsupport.WithHelperScript(helperScript))
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func registerUser(t *testing.T, env *cliTestEnv, userID, deviceID, nick string) {
	t.Helper()
	payload := `{"user_devices":[{"user_idx":"` + userID + `","device_id":"` + deviceID + `","device_nick":"` + nick + `"}]}`
	if _, _, err := runCLI(t, env, payload, "auth", "register"); err != nil {
		t.Fatalf("auth register %s: %v", userID, err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
