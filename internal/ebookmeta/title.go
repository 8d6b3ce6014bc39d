package ebookmeta

import (
	"strings"

	"ridiexport/internal/library"
)

// ExtractTitle returns the embedded title of data, or "" when none can be read.
func ExtractTitle(format library.Format, data []byte) string {
	var title string
	switch format {
	case library.FormatEPUB:
		title = epubTitle(data)
	case library.FormatPDF:
		title = pdfTitle(data)
	}
	return cleanTitle(title)
}

func cleanTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}
