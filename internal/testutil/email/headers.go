// Package email builds RFC 5322 header blocks shaped like the transport
// headers Outlook stores in a .msg file.
package email

import "strings"

// HeaderBuilder constructs a header block with a fluent API. Lines end in
// \r\n and the block has no body.
type HeaderBuilder struct {
	keys []string
	vals []string
}

// NewHeaders returns a builder with a Received line and sensible defaults
// for From, To, Subject and Date.
func NewHeaders() *HeaderBuilder {
	return (&HeaderBuilder{}).
		Header("Received", "from mail.example.com (192.0.2.1) by mx.example.net; Mon, 1 Jan 2024 12:00:01 +0000").
		Header("From", "Sender <sender@example.com>").
		Header("To", "recipient@example.com").
		Header("Subject", "Test Message").
		Header("Date", "Mon, 01 Jan 2024 12:00:00 +0000")
}

// Header appends a header line.
func (b *HeaderBuilder) Header(key, value string) *HeaderBuilder {
	b.keys = append(b.keys, key)
	b.vals = append(b.vals, value)
	return b
}

// Set replaces every line for key, or appends one when absent.
func (b *HeaderBuilder) Set(key, value string) *HeaderBuilder {
	b.Remove(key)
	return b.Header(key, value)
}

// Remove drops every line for key.
func (b *HeaderBuilder) Remove(key string) *HeaderBuilder {
	keys, vals := b.keys[:0], b.vals[:0]
	for i, k := range b.keys {
		if !strings.EqualFold(k, key) {
			keys = append(keys, k)
			vals = append(vals, b.vals[i])
		}
	}
	b.keys, b.vals = keys, vals
	return b
}

// String renders the block.
func (b *HeaderBuilder) String() string {
	var s strings.Builder
	for i, k := range b.keys {
		s.WriteString(k + ": " + b.vals[i] + "\r\n")
	}
	return s.String()
}
