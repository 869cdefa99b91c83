package msg

import (
	"log/slog"
	"strings"

	"github.com/wesm/msgreader/internal/cfb"
)

type storageKind int

const (
	storagePlain storageKind = iota
	storageAttachment
	storageRecipient
	storageEmbeddedMessage
)

func classifyStorage(name string) storageKind {
	switch {
	case strings.HasPrefix(name, attachPrefix):
		return storageAttachment
	case strings.HasPrefix(name, recipPrefix):
		return storageRecipient
	case len(name) >= typeEnd && parsePropType(name[typeStart:typeEnd]) == TypeEmbeddedMessage:
		return storageEmbeddedMessage
	default:
		return storagePlain
	}
}

// extractor maps the directory tree onto Fields records.
type extractor struct {
	c      *cfb.Container
	dir    *cfb.Directory
	logger *slog.Logger
}

func newExtractor(c *cfb.Container, logger *slog.Logger) *extractor {
	return &extractor{c: c, dir: c.Directory(), logger: logger}
}

// message extracts the root storage into a message record.
func (x *extractor) message() (*Fields, error) {
	out := newFields()
	if err := x.storage(x.dir.Root(), out); err != nil {
		return nil, err
	}
	return out, nil
}

// storage extracts the children of parent into dst.
func (x *extractor) storage(parent *cfb.Entry, dst *Fields) error {
	for _, ci := range parent.Children {
		e := x.dir.Entry(ci)
		var err error
		switch e.Kind {
		case cfb.KindStorage, cfb.KindRoot:
			err = x.childStorage(e, dst)
		case cfb.KindStream:
			err = x.stream(e, dst)
		case cfb.KindUnused:
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) childStorage(e *cfb.Entry, dst *Fields) error {
	switch classifyStorage(e.Name) {
	case storageAttachment:
		att := newFields()
		dst.Attachments = append(dst.Attachments, att)
		return x.storage(e, att)
	case storageRecipient:
		rcp := newFields()
		dst.Recipients = append(dst.Recipients, rcp)
		return x.storage(e, rcp)
	case storageEmbeddedMessage:
		x.logger.Debug("embedded message not decoded", "entry", e.Index, "name", e.Name)
		dst.HasEmbeddedMessage = true
		return nil
	case storagePlain:
		return x.storage(e, dst)
	}
	return nil
}

func (x *extractor) stream(e *cfb.Entry, dst *Fields) error {
	class, code, ok := propCodes(e.Name)
	if !ok {
		return nil
	}
	typ := parsePropType(code)

	if class == classAttachData {
		switch typ {
		case TypeString8, TypeUnicode, TypeBinary:
			dst.payload = &payloadRef{entry: e.Index, typ: typ, length: e.Size}
		case TypeUnknown, TypeEmbeddedMessage:
			x.logger.Debug("skipping attachment data", "entry", e.Index, "type", code)
		}
		return nil
	}

	field := lookupField(class)
	if field == FieldUnknown {
		return nil
	}

	switch typ {
	case TypeString8, TypeUnicode:
	case TypeBinary:
		if field == FieldBody {
			return nil
		}
	case TypeUnknown, TypeEmbeddedMessage:
		x.logger.Debug("skipping property", "field", field, "type", code)
		return nil
	}

	v, err := readValue(x.c, e, typ)
	if err != nil {
		return err
	}
	dst.set(field, v)
	return nil
}
