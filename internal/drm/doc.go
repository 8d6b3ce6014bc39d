// Package drm derives book keys and decrypts book content by delegating to an
// external helper program.
//
// The helper owns the cryptography. This package only builds its command
// line, feeds secrets over stdin so they never appear in process listings,
// and reads results from stdout:
//
//	<helper> derive-key --book-id ID --format FMT --key-file PATH   (stdin: device id, stdout: hex key)
//	<helper> decrypt    --book-id ID --format FMT --data-file PATH  (stdin: hex key,   stdout: plaintext)
//
// Executor abstracts process execution so tests can substitute a stub.
package drm
