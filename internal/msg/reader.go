// Package msg decodes Outlook .msg files into message, attachment and
// recipient records.
package msg

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/wesm/msgreader/internal/cfb"
)

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxSize makes OpenFile refuse files larger than n bytes. Zero or
// negative means no limit.
func WithMaxSize(n int64) Option {
	return func(r *Reader) { r.maxSize = n }
}

// AttachmentData is a resolved attachment payload.
type AttachmentData struct {
	FileName string
	Content  []byte
}

// Reader decodes one .msg buffer. Parsing happens on first use and its
// result, including a failure, is kept. A Reader is safe for concurrent use.
type Reader struct {
	data    []byte
	logger  *slog.Logger
	maxSize int64

	once   sync.Once
	c      *cfb.Container
	fields *Fields
	err    error
}

// NewReader returns a Reader over data. The buffer must not be modified
// while the Reader is in use.
func NewReader(data []byte, opts ...Option) *Reader {
	r := &Reader{data: data, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenFile reads the file at path into a new Reader.
func OpenFile(path string, opts ...Option) (*Reader, error) {
	r := NewReader(nil, opts...)
	if r.maxSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat message file: %w", err)
		}
		if info.Size() > r.maxSize {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, info.Size(), r.maxSize)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message file: %w", err)
	}
	r.data = data
	return r, nil
}

func (r *Reader) parse() {
	r.once.Do(func() {
		if !cfb.HasSignature(r.data) {
			r.err = ErrNotMsgFile
			return
		}
		c, err := cfb.Open(r.data, cfb.WithLogger(r.logger))
		if err != nil {
			r.err = fmt.Errorf("open compound file: %w", err)
			return
		}
		fields, err := newExtractor(c, r.logger).message()
		if err != nil {
			r.err = fmt.Errorf("extract fields: %w", err)
			return
		}
		r.c = c
		r.fields = fields
		r.logger.Debug("decoded message",
			"attachments", len(fields.Attachments),
			"recipients", len(fields.Recipients),
			"embedded", fields.HasEmbeddedMessage,
		)
	})
}

// FileData returns the decoded message record.
func (r *Reader) FileData() (*Fields, error) {
	r.parse()
	if r.err != nil {
		return nil, r.err
	}
	return r.fields, nil
}

// Container returns the parsed compound file.
func (r *Reader) Container() (*cfb.Container, error) {
	r.parse()
	if r.err != nil {
		return nil, r.err
	}
	return r.c, nil
}

// Attachment returns the payload of attachment i in traversal order.
func (r *Reader) Attachment(i int) (*AttachmentData, error) {
	fields, err := r.FileData()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(fields.Attachments) {
		return nil, fmt.Errorf("%w: index %d of %d attachments", ErrInvalidReference, i, len(fields.Attachments))
	}
	return r.resolve(fields.Attachments[i])
}

// AttachmentFor returns the payload of att, which must be one of the
// message's attachment records.
func (r *Reader) AttachmentFor(att *Fields) (*AttachmentData, error) {
	fields, err := r.FileData()
	if err != nil {
		return nil, err
	}
	if att == nil || !slices.Contains(fields.Attachments, att) {
		return nil, fmt.Errorf("%w: record is not an attachment of this message", ErrInvalidReference)
	}
	return r.resolve(att)
}

func (r *Reader) resolve(att *Fields) (*AttachmentData, error) {
	if att.payload == nil {
		return nil, fmt.Errorf("%w: attachment %q has no data", ErrInvalidReference, att.FileName())
	}
	e := r.c.Directory().Entry(att.payload.entry)
	if att.payload.typ == TypeUnicode {
		v, err := readValue(r.c, e, att.payload.typ)
		if err != nil {
			return nil, fmt.Errorf("read attachment %q: %w", att.FileName(), err)
		}
		return &AttachmentData{FileName: att.FileName(), Content: []byte(v.Text)}, nil
	}
	// string8 and binary payloads are returned byte for byte.
	raw, err := r.c.StreamBytes(e)
	if err != nil {
		return nil, fmt.Errorf("read attachment %q: %w", att.FileName(), err)
	}
	return &AttachmentData{FileName: att.FileName(), Content: bytes.Clone(raw)}, nil
}
