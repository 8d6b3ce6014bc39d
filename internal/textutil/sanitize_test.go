package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "A Tale of Two Cities", want: "A Tale of Two Cities"},
		{name: "separators", in: "AC/DC: Live\\Bootleg", want: "AC-DC- Live-Bootleg"},
		{name: "removed chars", in: `Who? "Me" <you> |them|`, want: "Who Me you them"},
		{name: "control chars", in: "Line\x00One\x07\tTwo\nThree", want: "LineOne Two Three"},
		{name: "traversal", in: "../../etc/passwd", want: "-..-etc-passwd"},
		{name: "dots only", in: "..", want: FallbackFileName},
		{name: "empty", in: "", want: FallbackFileName},
		{name: "whitespace", in: " \t\n ", want: FallbackFileName},
		{name: "reserved", in: "con", want: "con_"},
		{name: "korean", in: "채식주의자", want: "채식주의자"},
		{name: "trailing dot", in: "Vol. 1.", want: "Vol. 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.in); got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileNameNeverUnsafe(t *testing.T) {
	inputs := []string{
		"/", "\\", "a/../b", "\x00\x01\x02", "..\\..\\windows", "\u202etxt.exe", "title\u0000/\u001f",
		strings.Repeat("/", 50), strings.Repeat("가", 300),
	}
	for _, in := range inputs {
		got := SanitizeFileName(in)
		if got == "" {
			t.Fatalf("SanitizeFileName(%q) returned empty", in)
		}
		if got == "." || got == ".." {
			t.Fatalf("SanitizeFileName(%q) returned traversal name %q", in, got)
		}
		if strings.ContainsAny(got, "/\\") {
			t.Fatalf("SanitizeFileName(%q) = %q contains a path separator", in, got)
		}
		for _, r := range got {
			if r < 0x20 || r == 0x7f {
				t.Fatalf("SanitizeFileName(%q) = %q contains control character %U", in, got, r)
			}
		}
		if len(got) > 200 {
			t.Fatalf("SanitizeFileName(%q) length %d exceeds limit", in, len(got))
		}
	}
}

func TestSanitizeFileNameNormalizesToNFC(t *testing.T) {
	decomposed := "e\u0301cole"
	if got := SanitizeFileName(decomposed); got != "\u00e9cole" {
		t.Fatalf("expected NFC output, got %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("My Books/2024"); got != "my_books_2024" {
		t.Fatalf("unexpected token %q", got)
	}
	if got := SanitizeToken("  "); got != "unknown" {
		t.Fatalf("expected unknown for blank input, got %q", got)
	}
}
