// CLAUDE:SUMMARY Charset detection, lossy UTF-8 normalization, and ISO-8859-1 output encoding.
// Package textenc converts page bytes between wire encodings and the
// canonical in-memory UTF-8 form.
//
// Inbound: the declared Content-Type charset wins; otherwise the charset is
// sniffed from a BOM, a <meta> declaration, or statistically. Byte sequences
// that fail to convert are discarded rather than reported — a page with a
// broken encoding still mirrors.
//
// Outbound: the rewritten markup is written as ISO-8859-1, a deliberate
// single-byte Western encoding kept for byte-compatibility with downstream
// consumers. Runes outside Latin-1 are replaced with the encoder substitute.
package textenc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DecodeUTF8 decodes raw page bytes to a UTF-8 string. contentType is the
// HTTP Content-Type header, possibly empty; when it carries no charset the
// encoding is detected from the content itself.
func DecodeUTF8(raw []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", fmt.Errorf("determine charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	// Lossy normalization: drop anything that did not survive conversion.
	return strings.ToValidUTF8(string(decoded), ""), nil
}

// EncodeLatin1 encodes s as ISO-8859-1. Unmappable runes are substituted,
// never reported as errors.
func EncodeLatin1(s string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode latin-1: %w", err)
	}
	return out, nil
}
