package msg

import (
	"errors"
	"fmt"

	"github.com/wesm/msgreader/internal/cfb"
)

var (
	// ErrNotMsgFile is returned for input without the compound file
	// signature. It matches cfb.ErrFormat.
	ErrNotMsgFile = fmt.Errorf("msg: not an Outlook message file: %w", cfb.ErrFormat)

	// ErrInvalidReference is returned for an attachment index or record
	// that does not belong to the message or has no payload.
	ErrInvalidReference = errors.New("msg: invalid attachment reference")

	// ErrTooLarge is returned by OpenFile when the file exceeds the
	// configured size limit.
	ErrTooLarge = errors.New("msg: file too large")
)
