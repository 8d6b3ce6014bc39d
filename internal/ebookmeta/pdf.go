package ebookmeta

import (
	"bytes"
	"sync"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
)

var disableConfigDir sync.Once

// pdfTitle reads /Title from the document Info dictionary, following the
// trailer or cross-reference stream into object streams as needed.
func pdfTitle(data []byte) (title string) {
	// pdfcpu would otherwise create a per-user config directory on first use.
	disableConfigDir.Do(api.DisableConfigDir)
	defer func() {
		// Malformed input can panic inside the parser; such books keep their id.
		if recover() != nil {
			title = ""
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil || ctx == nil || ctx.Info == nil {
		return ""
	}
	info, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || info == nil {
		return ""
	}
	obj, ok := info.Find("Title")
	if !ok {
		return ""
	}
	obj, err = ctx.Dereference(obj)
	if err != nil {
		return ""
	}

	switch v := obj.(type) {
	case types.StringLiteral:
		title, err = types.StringLiteralToString(v)
	case types.HexLiteral:
		title, err = types.HexLiteralToString(v)
	default:
		return ""
	}
	if err != nil {
		return ""
	}
	return toUTF8(title)
}

// toUTF8 treats text that is not already UTF-8 as single-byte PDFDocEncoding,
// which agrees with Latin-1 for printable characters.
func toUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return ""
	}
	return out
}
