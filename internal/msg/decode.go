package msg

import (
	"bytes"
	"fmt"

	"github.com/wesm/msgreader/internal/cfb"
	"github.com/wesm/msgreader/internal/textutil"
)

// decodeValue converts raw stream bytes into a Value of type typ.
// Trailing NUL characters are dropped from text.
func decodeValue(typ PropType, raw []byte) (Value, error) {
	switch typ {
	case TypeString8:
		return Value{Type: typ, Text: textutil.DecodeString8(raw)}, nil
	case TypeUnicode:
		s, err := textutil.DecodeUTF16LE(raw)
		if err != nil {
			return Value{}, fmt.Errorf("decode unicode: %w", err)
		}
		return Value{Type: typ, Text: s}, nil
	case TypeBinary:
		return Value{Type: typ, Data: bytes.Clone(raw)}, nil
	default:
		return Value{}, fmt.Errorf("decode: unsupported property type %s", typ)
	}
}

// readValue reads the stream at e and decodes it as typ.
func readValue(c *cfb.Container, e *cfb.Entry, typ PropType) (Value, error) {
	raw, err := c.StreamBytes(e)
	if err != nil {
		return Value{}, fmt.Errorf("read stream %q: %w", e.Name, err)
	}
	return decodeValue(typ, raw)
}
