// Package ebookmeta reads the display title embedded in decrypted EPUB and
// PDF content. Titles come from untrusted files: callers must sanitize them
// before using them as file names. An empty result means no usable title.
package ebookmeta
