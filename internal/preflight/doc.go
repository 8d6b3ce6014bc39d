// Package preflight provides readiness checks for the filesystem paths and
// external programs ridiexport depends on.
//
// The CLI "ridiexport doctor" command runs RunAll and prints every result;
// "ridiexport export" runs CheckDirectoryAccess on the output directory before
// starting a batch so a read-only target fails fast instead of once per book.
package preflight
