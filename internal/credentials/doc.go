// Package credentials persists registered device credentials.
//
// A Store owns the single JSON credential file and the "active user" marker
// inside it. Reads are cheap and served from memory; every mutation runs a
// load → mutate → save cycle under both an in-process mutex and an advisory
// file lock so concurrent registrations from separate processes serialize
// instead of interleaving writes. Saves go through a temp file and rename so
// a crash never leaves a half-written credential file behind.
//
// An unparseable file surfaces as ErrCorruptState from Load; Open degrades it
// to an empty set so the CLI keeps working and the next registration can
// replace it.
package credentials
