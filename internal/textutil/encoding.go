// Package textutil decodes MAPI text properties and prepares text for display.
package textutil

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// DecodeUTF16LE decodes a unicode (001F) property. An odd trailing byte is
// ignored and trailing NUL characters are removed.
func DecodeUTF16LE(b []byte) (string, error) {
	b = b[:len(b)&^1]
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode utf-16le: %w", err)
	}
	return strings.TrimRight(string(out), "\x00"), nil
}

// DecodeString8 decodes an 8-bit (001E) property. Trailing NULs are removed;
// text that is not valid UTF-8 goes through EnsureUTF8.
func DecodeString8(b []byte) string {
	b = bytes.TrimRight(b, "\x00")
	if utf8.Valid(b) {
		return string(b)
	}
	return EnsureUTF8(string(b))
}

// fallbackEncodings are tried in order when detection is inconclusive.
// Outlook writes string8 properties in the sender's ANSI code page, so the
// Windows code pages come first.
var fallbackEncodings = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_1,
	charmap.ISO8859_15,
	japanese.ShiftJIS,
	japanese.EUCJP,
	korean.EUCKR,
	simplifiedchinese.GBK,
	traditionalchinese.Big5,
}

// EnsureUTF8 returns s unchanged when it is valid UTF-8. Otherwise the
// charset is detected (or guessed from fallbackEncodings) and s is
// converted; bytes that still cannot be decoded become U+FFFD.
func EnsureUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	data := []byte(s)

	threshold := 30
	if len(data) > 50 {
		threshold = 50
	}
	if res, err := chardet.NewTextDetector().DetectBest(data); err == nil && res.Confidence >= threshold {
		if out, ok := decodeWith(GetEncodingByName(res.Charset), data); ok {
			return out
		}
	}
	for _, enc := range fallbackEncodings {
		if out, ok := decodeWith(enc, data); ok {
			return out
		}
	}
	return SanitizeUTF8(s)
}

func decodeWith(enc encoding.Encoding, data []byte) (string, bool) {
	if enc == nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

// SanitizeUTF8 replaces each invalid byte with U+FFFD.
func SanitizeUTF8(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.WriteString(s[:size])
		}
		s = s[size:]
	}
	return sb.String()
}

var encodingsByName = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"latin-1":      charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"latin9":       charmap.ISO8859_15,
	"iso-8859-2":   charmap.ISO8859_2,
	"latin2":       charmap.ISO8859_2,
	"shift_jis":    japanese.ShiftJIS,
	"shift-jis":    japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"eucjp":        japanese.EUCJP,
	"iso-2022-jp":  japanese.ISO2022JP,
	"euc-kr":       korean.EUCKR,
	"euckr":        korean.EUCKR,
	"gb2312":       simplifiedchinese.GBK,
	"gbk":          simplifiedchinese.GBK,
	"gb18030":      simplifiedchinese.GB18030,
	"gb-18030":     simplifiedchinese.GB18030,
	"big5":         traditionalchinese.Big5,
	"big-5":        traditionalchinese.Big5,
	"koi8-r":       charmap.KOI8R,
	"koi8-u":       charmap.KOI8U,
}

// GetEncodingByName returns the encoding for an IANA charset name, matched
// case-insensitively, or nil.
func GetEncodingByName(name string) encoding.Encoding {
	return encodingsByName[strings.ToLower(strings.TrimSpace(name))]
}

// TruncateRunes shortens s to at most maxRunes runes, ending in "..." when
// anything was cut.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth shortens s to fit width terminal cells, counting wide
// characters as two cells.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "...")
}

// FirstLine returns the first line of s after any leading line breaks.
func FirstLine(s string) string {
	s = strings.TrimLeft(s, "\r\n")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "\r")
}
