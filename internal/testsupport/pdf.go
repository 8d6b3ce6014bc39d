package testsupport

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"testing"
)

// pdfObjects returns a catalog, page tree, single page, and an Info
// dictionary holding info, numbered 1 through 4.
func pdfObjects(info string) []string {
	return []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
		"<< " + info + " >>",
	}
}

// PDF returns a one-page PDF 1.4 document with a classic xref table whose
// Info dictionary body is info, for example `/Title (Book One)`.
func PDF(t testing.TB, info string) []byte {
	t.Helper()

	objects := pdfObjects(info)
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// CompressedPDF returns the same document in PDF 1.5 form: every object,
// the Info dictionary included, sits in a Flate-compressed object stream
// indexed by a cross-reference stream.
func CompressedPDF(t testing.TB, info string) []byte {
	t.Helper()

	objects := pdfObjects(info)
	var header, body bytes.Buffer
	for i, obj := range objects {
		fmt.Fprintf(&header, "%d %d ", i+1, body.Len())
		body.WriteString(obj)
		body.WriteByte('\n')
	}
	var packed bytes.Buffer
	zw := zlib.NewWriter(&packed)
	if _, err := zw.Write(append(header.Bytes(), body.Bytes()...)); err != nil {
		t.Fatalf("compress object stream: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compress object stream: %v", err)
	}

	streamNum := len(objects) + 1
	xrefNum := streamNum + 1

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")
	streamOff := buf.Len()
	fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /ObjStm /N %d /First %d /Filter /FlateDecode /Length %d >>\nstream\n",
		streamNum, len(objects), header.Len(), packed.Len())
	buf.Write(packed.Bytes())
	buf.WriteString("\nendstream\nendobj\n")

	xrefOff := buf.Len()
	var entries []byte
	entry := func(kind byte, field2 uint32, field3 uint16) {
		entries = append(entries, kind)
		entries = binary.BigEndian.AppendUint32(entries, field2)
		entries = binary.BigEndian.AppendUint16(entries, field3)
	}
	entry(0, 0, 65535)
	for i := range objects {
		entry(2, uint32(streamNum), uint16(i))
	}
	entry(1, uint32(streamOff), 0)
	entry(1, uint32(xrefOff), 0)

	fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Root 1 0 R /Info 4 0 R /Length %d >>\nstream\n",
		xrefNum, xrefNum+1, len(entries))
	buf.Write(entries)
	buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOff)
	return buf.Bytes()
}
