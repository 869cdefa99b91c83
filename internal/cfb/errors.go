package cfb

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned when the buffer does not start with the compound file signature.
	ErrFormat = errors.New("cfb: not a compound file")

	// ErrIntegrity is matched by every *IntegrityError.
	ErrIntegrity = errors.New("cfb: read outside buffer")

	// ErrStructure is matched by every *StructuralError.
	ErrStructure = errors.New("cfb: malformed structure")
)

// IntegrityError reports a read that would run past the end of the buffer.
type IntegrityError struct {
	Offset int64
	Length int
	Size   int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("cfb: read of %d bytes at offset %d exceeds buffer size %d", e.Length, e.Offset, e.Size)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

// StructuralError reports a chain or link that cannot be resolved:
// cycles, unterminated chains, and indices outside their table.
type StructuralError struct {
	Op     string
	Index  uint32
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("cfb: %s: index %d: %s", e.Op, e.Index, e.Reason)
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructure }

func structural(op string, index uint32, format string, args ...any) error {
	return &StructuralError{Op: op, Index: index, Reason: fmt.Sprintf(format, args...)}
}
