// Package fileutil holds the durable file-writing helpers shared by the
// credential store and the export pipeline.
package fileutil
