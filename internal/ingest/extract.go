package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// ExtractText pulls plain text out of raw upload bytes. PDF payloads go
// through the pdf reader; anything else is treated as UTF-8 text.
func ExtractText(raw []byte) (string, error) {
	if bytes.HasPrefix(raw, pdfMagic) {
		return extractPDF(raw)
	}
	return normalizeText(string(raw)), nil
}

func extractPDF(raw []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return normalizeText(buf.String()), nil
}

// normalizeText collapses runs of whitespace so chunk windows measure real
// content rather than layout artifacts.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
