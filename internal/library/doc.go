// Package library enumerates the book artifacts the desktop reader has
// downloaded for a user.
//
// The reader keeps one directory per user (_<user_idx>) under its library
// base, and inside it one directory per book id holding the encrypted data
// file (<id>.epub or <id>.pdf) and its key material (<id>.dat). A Scanner
// resolves the user's directory, reads every book record, and keeps only the
// books whose data file is actually on disk: partially downloaded and
// metadata-only entries cannot be exported. Every Scan reads the filesystem
// again; nothing is cached.
package library
