package msg

import (
	"bytes"
	"encoding/json"

	"github.com/wesm/msgreader/internal/textutil"
)

// Value is one decoded property. Text is set for string8 and unicode
// properties, Data for binary ones.
type Value struct {
	Type PropType
	Text string
	Data []byte
}

// String returns the text of v. Binary values are decoded as 8-bit text.
func (v Value) String() string {
	if v.Type == TypeBinary {
		return textutil.DecodeString8(v.Data)
	}
	return v.Text
}

// payloadRef locates the 3701 stream of an attachment without reading it.
type payloadRef struct {
	entry  int
	typ    PropType
	length uint32
}

// Fields is the decoded record of a message, attachment or recipient.
type Fields struct {
	values map[Field]Value

	// HasEmbeddedMessage is set when the record holds an attached .msg,
	// which is not decoded.
	HasEmbeddedMessage bool

	Attachments []*Fields
	Recipients  []*Fields

	payload *payloadRef
}

func newFields() *Fields {
	return &Fields{values: make(map[Field]Value)}
}

func (f *Fields) set(field Field, v Value) { f.values[field] = v }

// Get returns the raw value of field.
func (f *Fields) Get(field Field) (Value, bool) {
	v, ok := f.values[field]
	return v, ok
}

// Text returns field as text, or "" when it is absent.
func (f *Fields) Text(field Field) string {
	v, ok := f.values[field]
	if !ok {
		return ""
	}
	return v.String()
}

// Has reports whether field was present.
func (f *Fields) Has(field Field) bool {
	_, ok := f.values[field]
	return ok
}

// Subject returns the message subject.
func (f *Fields) Subject() string { return f.Text(FieldSubject) }

// SenderName returns the display name of the sender.
func (f *Fields) SenderName() string { return f.Text(FieldSenderName) }

// SenderEmail returns the sender address.
func (f *Fields) SenderEmail() string { return f.Text(FieldSenderEmail) }

// Body returns the plain-text body.
func (f *Fields) Body() string { return f.Text(FieldBody) }

// BodyHTML returns the HTML body.
func (f *Fields) BodyHTML() string { return f.Text(FieldBodyHTML) }

// Headers returns the raw transport headers.
func (f *Fields) Headers() string { return f.Text(FieldHeaders) }

// MessageClass returns the item class, such as IPM.Note.
func (f *Fields) MessageClass() string { return f.Text(FieldMessageClass) }

// DisplayTo returns the To line as Outlook displays it.
func (f *Fields) DisplayTo() string { return f.Text(FieldDisplayTo) }

// DisplayCc returns the Cc line as Outlook displays it.
func (f *Fields) DisplayCc() string { return f.Text(FieldDisplayCc) }

// InternetMessageID returns the Message-ID header value.
func (f *Fields) InternetMessageID() string { return f.Text(FieldInternetMessageID) }

// Extension returns the attachment file extension.
func (f *Fields) Extension() string { return f.Text(FieldExtension) }

// FileNameShort returns the 8.3 attachment filename.
func (f *Fields) FileNameShort() string { return f.Text(FieldFileNameShort) }

// ContentID returns the attachment Content-ID.
func (f *Fields) ContentID() string { return f.Text(FieldContentID) }

// MimeTag returns the attachment MIME type.
func (f *Fields) MimeTag() string { return f.Text(FieldMimeTag) }

// Name returns the recipient display name.
func (f *Fields) Name() string { return f.Text(FieldName) }

// AddressType returns the recipient address type, such as SMTP or EX.
func (f *Fields) AddressType() string { return f.Text(FieldAddressType) }

// FileName returns the long attachment filename, or the 8.3 name when the
// long one is missing.
func (f *Fields) FileName() string {
	if s := f.Text(FieldFileName); s != "" {
		return s
	}
	return f.FileNameShort()
}

// Email returns the SMTP address of a recipient, falling back to the
// address-type specific address.
func (f *Fields) Email() string {
	if s := f.Text(FieldEmail); s != "" {
		return s
	}
	return f.Text(FieldEmailAddress)
}

// HasContent reports whether an attachment carries a 3701 payload stream.
func (f *Fields) HasContent() bool { return f.payload != nil }

// ContentLength is the declared size of the attachment payload, or 0.
func (f *Fields) ContentLength() int {
	if f.payload == nil {
		return 0
	}
	return int(f.payload.length)
}

// MarshalJSON writes the present fields in a fixed order followed by the
// nested records.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(b)
		return nil
	}

	for field := FieldSubject; int(field) < len(fieldNames); field++ {
		v, ok := f.values[field]
		if !ok {
			continue
		}
		var out any = v.Text
		if v.Type == TypeBinary {
			out = v.Data
		}
		if err := write(field.String(), out); err != nil {
			return nil, err
		}
	}
	if f.HasEmbeddedMessage {
		if err := write("hasEmbeddedMessage", true); err != nil {
			return nil, err
		}
	}
	if f.payload != nil {
		if err := write("contentLength", f.payload.length); err != nil {
			return nil, err
		}
	}
	if len(f.Attachments) > 0 {
		if err := write("attachments", f.Attachments); err != nil {
			return nil, err
		}
	}
	if len(f.Recipients) > 0 {
		if err := write("recipients", f.Recipients); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
