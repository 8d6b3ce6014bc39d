package ebookmeta

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"
)

const (
	containerPath = "META-INF/container.xml"
	// maxXMLSize bounds container and package documents read from the archive.
	maxXMLSize = 4 << 20
)

type epubContainer struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Titles []string `xml:"metadata>title"`
}

func epubTitle(data []byte) string {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var container epubContainer
	if err := decodeEntry(archive, containerPath, &container); err != nil {
		return ""
	}
	for _, rootfile := range container.Rootfiles {
		if rootfile.FullPath == "" {
			continue
		}
		if rootfile.MediaType != "" && rootfile.MediaType != "application/oebps-package+xml" {
			continue
		}
		var pkg opfPackage
		if err := decodeEntry(archive, path.Clean(rootfile.FullPath), &pkg); err != nil {
			continue
		}
		for _, title := range pkg.Titles {
			if strings.TrimSpace(title) != "" {
				return title
			}
		}
	}
	return ""
}

func decodeEntry(archive *zip.Reader, name string, v any) error {
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		decoder := xml.NewDecoder(io.LimitReader(rc, maxXMLSize))
		decoder.Strict = false
		return decoder.Decode(v)
	}
	return io.ErrUnexpectedEOF
}
