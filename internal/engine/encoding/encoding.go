package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// ErrDecode is returned when bytes cannot be decoded to UTF-8 text.
var ErrDecode = errors.New("cannot decode file content")

// Encoding identifies the on-disk character encoding of a file.
type Encoding uint8

const (
	UTF8 Encoding = iota
	UTF8BOM
	UTF16LE
	UTF16BE
	Latin1
	ShiftJIS
)

// String returns the IANA-style name of the encoding.
func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "UTF-8"
	case UTF8BOM:
		return "UTF-8 BOM"
	case UTF16LE:
		return "UTF-16LE"
	case UTF16BE:
		return "UTF-16BE"
	case Latin1:
		return "ISO-8859-1"
	case ShiftJIS:
		return "Shift_JIS"
	default:
		return "unknown"
	}
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeFallback is a pluggable decoder tried when bytes are neither
// BOM-marked nor valid UTF-8. It returns the decoded text and the
// encoding it decided on, or ok=false to reject.
type DecodeFallback func(data []byte) (text string, enc Encoding, ok bool)

// DefaultFallback tries Shift-JIS when the data looks like it, then
// Latin-1, which accepts any byte sequence.
func DefaultFallback(data []byte) (string, Encoding, bool) {
	if looksLikeShiftJIS(data) {
		if text, err := japanese.ShiftJIS.NewDecoder().Bytes(data); err == nil && utf8.Valid(text) {
			return string(text), ShiftJIS, true
		}
	}
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", UTF8, false
	}
	return string(text), Latin1, true
}

// Decode converts raw file bytes to UTF-8 text, detecting a BOM
// first, assuming UTF-8 otherwise, and consulting fallback (may be
// nil) for everything else.
func Decode(data []byte, fallback DecodeFallback) (string, Encoding, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		rest := data[len(bomUTF8):]
		if !utf8.Valid(rest) {
			return "", UTF8BOM, fmt.Errorf("%w: UTF-8 BOM with invalid body", ErrDecode)
		}
		return string(rest), UTF8BOM, nil

	case bytes.HasPrefix(data, bomUTF16LE):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		text, err := dec.Bytes(data)
		if err != nil {
			return "", UTF16LE, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return string(text), UTF16LE, nil

	case bytes.HasPrefix(data, bomUTF16BE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		text, err := dec.Bytes(data)
		if err != nil {
			return "", UTF16BE, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return string(text), UTF16BE, nil
	}

	if utf8.Valid(data) {
		return string(data), UTF8, nil
	}

	if fallback != nil {
		if text, enc, ok := fallback(data); ok {
			return text, enc, nil
		}
	}
	return "", UTF8, fmt.Errorf("%w: not valid UTF-8 and no fallback accepted it", ErrDecode)
}

// Encode converts UTF-8 text back to the given encoding for save,
// re-attaching a BOM where the encoding requires one.
func Encode(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case UTF8:
		return []byte(text), nil
	case UTF8BOM:
		out := make([]byte, 0, len(bomUTF8)+len(text))
		out = append(out, bomUTF8...)
		return append(out, text...), nil
	case UTF16LE:
		return encodeWith(text, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder())
	case UTF16BE:
		return encodeWith(text, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder())
	case Latin1:
		return encodeWith(text, charmap.ISO8859_1.NewEncoder())
	case ShiftJIS:
		return encodeWith(text, japanese.ShiftJIS.NewEncoder())
	default:
		return nil, fmt.Errorf("%w: unknown encoding %d", ErrDecode, enc)
	}
}

func encodeWith(text string, enc *encoding.Encoder) ([]byte, error) {
	out, err := enc.Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

// looksLikeShiftJIS is a cheap heuristic: a lead byte in the Shift-JIS
// double-byte ranges followed by a valid trail byte.
func looksLikeShiftJIS(data []byte) bool {
	pairs := 0
	for i := 0; i+1 < len(data) && i < 4096; i++ {
		b := data[i]
		if (b >= 0x81 && b <= 0x9F) || (b >= 0xE0 && b <= 0xEF) {
			t := data[i+1]
			if (t >= 0x40 && t <= 0x7E) || (t >= 0x80 && t <= 0xFC) {
				pairs++
				i++
				continue
			}
			return false
		}
	}
	return pairs > 0
}
