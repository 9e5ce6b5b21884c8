package ems

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Supported input encodings.
const (
	EncodingAuto   = "auto"
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeInput converts raw input bytes to text.
//
// With EncodingAuto, valid UTF-8 (including plain ASCII) is used as is and
// anything else is decoded as Latin-1, which every EMS export we have seen
// falls back to. The encoding actually applied is returned.
func DecodeInput(data []byte, encoding string) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	switch normaliseEncoding(encoding) {
	case EncodingAuto:
		if utf8.Valid(data) {
			return string(data), EncodingUTF8, nil
		}
		return decodeLatin1(data)
	case EncodingUTF8:
		if !utf8.Valid(data) {
			return decodeLatin1(data)
		}
		return string(data), EncodingUTF8, nil
	case EncodingLatin1:
		return decodeLatin1(data)
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

func decodeLatin1(data []byte) (string, string, error) {
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	if err != nil {
		return "", "", fmt.Errorf("decoding latin-1: %w", err)
	}
	return string(out), EncodingLatin1, nil
}

func normaliseEncoding(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto
	case "utf-8", "utf8":
		return EncodingUTF8
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1
	default:
		return name
	}
}
