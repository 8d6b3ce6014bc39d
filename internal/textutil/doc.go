// Package textutil turns untrusted text into filesystem-safe names.
//
// SanitizeFileName produces a single path component from book titles pulled
// out of decrypted content; SanitizeToken produces short lowercase tokens used
// for lock and state file names.
package textutil
