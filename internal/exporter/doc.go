// Package exporter decrypts a batch of library books into plain files.
//
// A Pipeline processes a Job's books strictly in order on one goroutine. For
// each book it derives the content key, decrypts the data, reads the embedded
// title, sanitizes it into a file name, and writes the result atomically into
// the job's output directory. A failure affects only that book: it becomes a
// failed Outcome and the batch continues. Cancellation is checked before each
// book and never interrupts one: the book in flight when cancellation arrives
// still finishes, succeeding or failing, and reports its outcome.
//
// Callers observe the batch as an ordered Event stream: a progress event per
// book, an outcome event per finished book, and exactly one terminal done
// event carrying the Summary. Output paths are always absolute; the process
// working directory is never changed. Concurrent runs targeting the same
// output directory are excluded with an advisory file lock.
package exporter
