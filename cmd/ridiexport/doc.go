// Package main hosts the ridiexport CLI entrypoint and command graph.
//
// The Cobra command tree registers device credentials, lists the books the
// desktop reader has downloaded, and exports selected books into plain files.
// It resolves configuration and logging once per invocation so subcommands
// only translate flags into calls on the internal packages and render results.
package main
