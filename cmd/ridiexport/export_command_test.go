package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ridiexport/internal/testsupport"
)

func seedExportLibrary(t *testing.T, env *cliTestEnv) {
	t.Helper()
	registerUser(t, env, "1001", "dev-1", "Laptop")
	testsupport.WriteLibrary(t, env.cfg.Paths.LibraryBase, "1001",
		testsupport.BookFixture{ID: "100", Format: "pdf", Data: testsupport.PDF(t, "/Title (Book One)")},
		testsupport.BookFixture{ID: "bad", Format: "pdf", Data: testsupport.PDF(t, "/Title (Unreadable)")},
		testsupport.BookFixture{ID: "300", Format: "pdf", Data: testsupport.PDF(t, "/Producer (scanner)")},
		testsupport.BookFixture{ID: "400"},
	)
}

func TestExportAllContinuesPastFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	seedExportLibrary(t, env)
	outDir := filepath.Join(env.baseDir, "exported")

	out, _, err := runCLI(t, env, "", "export", "--all", "--output", outDir)
	if err == nil {
		t.Fatal("expected error reporting the failed book")
	}
	requireContains(t, err.Error(), "1 of 3 books failed")
	requireContains(t, out, "Exporting: 100...")
	requireContains(t, out, "Exported: Book One.pdf")
	requireContains(t, out, "Error bad:")
	requireContains(t, out, "invalid key material")
	requireContains(t, out, "Exported: 300.pdf")
	requireContains(t, out, "Exported 2 of 3 books")

	data, err := os.ReadFile(filepath.Join(outDir, "Book One.pdf"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "/Title (Book One)") {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := os.Stat(filepath.Join(outDir, "300.pdf")); err != nil {
		t.Fatalf("expected id-named export: %v", err)
	}
}

func TestExportSelectedBooksAddsSuffix(t *testing.T) {
	env := setupCLITestEnv(t)
	seedExportLibrary(t, env)
	outDir := filepath.Join(env.baseDir, "exported")

	for i := 0; i < 2; i++ {
		if _, _, err := runCLI(t, env, "", "export", "100", "--output", outDir); err != nil {
			t.Fatalf("export run %d: %v", i, err)
		}
	}
	for _, name := range []string{"Book One.pdf", "Book One (1).pdf"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	if _, _, err := runCLI(t, env, "", "export", "100", "--output", outDir, "--overwrite"); err != nil {
		t.Fatalf("export --overwrite: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Book One (2).pdf")); !os.IsNotExist(err) {
		t.Fatalf("overwrite should not add a suffix, stat err=%v", err)
	}
}

func TestExportJSONLines(t *testing.T) {
	env := setupCLITestEnv(t)
	seedExportLibrary(t, env)

	out, _, err := runCLI(t, env, "", "export", "100", "300", "--json")
	if err != nil {
		t.Fatalf("export --json: %v", err)
	}

	var types []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var line map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("decode line %q: %v", scanner.Text(), err)
		}
		types = append(types, line["type"].(string))
		if line["type"] == "summary" && line["succeeded"].(float64) != 2 {
			t.Fatalf("unexpected summary %v", line)
		}
	}
	if strings.Join(types, ",") != "outcome,outcome,summary" {
		t.Fatalf("unexpected line types %v", types)
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Export.OutputDir, "Book One.pdf")); err != nil {
		t.Fatalf("expected export in configured output dir: %v", err)
	}
}

func TestExportArgumentValidation(t *testing.T) {
	env := setupCLITestEnv(t)
	seedExportLibrary(t, env)

	if _, _, err := runCLI(t, env, "", "export"); err == nil {
		t.Fatal("expected error without ids or --all")
	}
	if _, _, err := runCLI(t, env, "", "export", "--all", "100"); err == nil {
		t.Fatal("expected error with both ids and --all")
	}
	_, _, err := runCLI(t, env, "", "export", "400")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected not-downloaded book to be rejected, got %v", err)
	}
}

func TestExportMissingHelper(t *testing.T) {
	env := setupCLITestEnv(t)
	seedExportLibrary(t, env)
	env.cfg.DRM.Helper = filepath.Join(env.baseDir, "missing-helper")
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, env, "", "export", "100")
	if err == nil || !strings.Contains(err.Error(), "drm helper") {
		t.Fatalf("expected helper error, got %v", err)
	}
}

func TestDoctorReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "", "doctor")
	if err == nil {
		t.Fatal("expected failing checks without an account")
	}
	requireContains(t, out, "DRM helper")
	requireContains(t, out, "no active account")

	seedExportLibrary(t, env)
	out, _, err = runCLI(t, env, "", "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "3 downloaded")
}
