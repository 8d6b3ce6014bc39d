package main

import (
	"encoding/json"
	"errors"
	"testing"

	"ridiexport/internal/library"
	"ridiexport/internal/testsupport"
)

func TestBooksRequiresActiveAccount(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "", "books")
	if !errors.Is(err, errNoActiveAccount) {
		t.Fatalf("expected errNoActiveAccount, got %v", err)
	}
}

func TestBooksMissingLibrary(t *testing.T) {
	env := setupCLITestEnv(t)
	registerUser(t, env, "1001", "dev-1", "Laptop")

	_, _, err := runCLI(t, env, "", "books")
	if !errors.Is(err, library.ErrLibraryNotFound) {
		t.Fatalf("expected ErrLibraryNotFound, got %v", err)
	}
}

func TestBooksListsDownloadedBooks(t *testing.T) {
	env := setupCLITestEnv(t)
	registerUser(t, env, "1001", "dev-1", "Laptop")
	testsupport.WriteLibrary(t, env.cfg.Paths.LibraryBase, "1001",
		testsupport.BookFixture{ID: "111", Format: "epub"},
		testsupport.BookFixture{ID: "222"},
		testsupport.BookFixture{ID: "333", Format: "pdf"},
	)

	out, _, err := runCLI(t, env, "", "books")
	if err != nil {
		t.Fatalf("books: %v", err)
	}
	requireContains(t, out, "111")
	requireContains(t, out, "333")
	requireNotContains(t, out, "222")
	requireContains(t, out, "2 books")

	out, _, err = runCLI(t, env, "", "books", "--all", "--json")
	if err != nil {
		t.Fatalf("books --all --json: %v", err)
	}
	var views []bookView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode books: %v (%s)", err, out)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 records, got %+v", views)
	}
	if views[1].ID != "222" || views[1].Downloaded || views[1].Format != "unknown" {
		t.Fatalf("unexpected record %+v", views[1])
	}
	if !views[0].Downloaded || views[0].Size == 0 {
		t.Fatalf("unexpected record %+v", views[0])
	}
}
