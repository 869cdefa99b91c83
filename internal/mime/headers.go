// Package mime interprets the RFC 5322 parts of a decoded .msg: the
// transport header block (property 007D) and HTML bodies.
package mime

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

// Headers holds the fields of a transport header block.
type Headers struct {
	Subject    string
	Date       time.Time
	From       []Address
	To         []Address
	Cc         []Address
	ReplyTo    []Address
	MessageID  string
	InReplyTo  string
	References []string
	Received   []string
	Errors     []string // Non-fatal parsing errors
}

// Address represents an email address with optional display name.
type Address struct {
	Name   string
	Email  string
	Domain string
}

// String formats a as "Name <email>" or just the email.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// ParseHeaders parses a transport header block. Outlook stores the block
// without a body, so an empty body is appended before parsing.
func ParseHeaders(raw string) (*Headers, error) {
	raw = strings.TrimLeft(raw, "\r\n")
	if strings.TrimSpace(raw) == "" {
		return &Headers{}, nil
	}
	block := strings.TrimRight(raw, "\r\n") + "\r\n\r\n"

	env, err := enmime.ReadEnvelope(bytes.NewReader([]byte(block)))
	if err != nil {
		return nil, fmt.Errorf("parse transport headers: %w", err)
	}

	h := &Headers{
		Subject:   env.GetHeader("Subject"),
		MessageID: strings.TrimSpace(env.GetHeader("Message-ID")),
		InReplyTo: strings.TrimSpace(env.GetHeader("In-Reply-To")),
		Received:  env.GetHeaderValues("Received"),
		From:      parseAddressList(env, "From"),
		To:        parseAddressList(env, "To"),
		Cc:        parseAddressList(env, "Cc"),
		ReplyTo:   parseAddressList(env, "Reply-To"),
	}
	if s := env.GetHeader("Date"); s != "" {
		if t, err := parseDate(s); err == nil {
			h.Date = t
		} else {
			h.Errors = append(h.Errors, err.Error())
		}
	}
	if refs := env.GetHeader("References"); refs != "" {
		h.References = parseReferences(refs)
	}
	for _, e := range env.Errors {
		h.Errors = append(h.Errors, e.Error())
	}
	return h, nil
}

// FirstFrom returns the first From address, or the zero Address.
func (h *Headers) FirstFrom() Address {
	if len(h.From) > 0 {
		return h.From[0]
	}
	return Address{}
}

func parseAddressList(env *enmime.Envelope, header string) []Address {
	list, err := env.AddressList(header)
	if err != nil || list == nil {
		return nil
	}
	out := make([]Address, 0, len(list))
	for _, addr := range list {
		if addr.Address == "" {
			continue
		}
		out = append(out, Address{
			Name:   addr.Name,
			Email:  strings.ToLower(addr.Address),
			Domain: extractDomain(addr.Address),
		})
	}
	return out
}

func extractDomain(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return strings.ToLower(email[i+1:])
	}
	return ""
}

// parseReferences splits a References header into message IDs without
// angle brackets.
func parseReferences(refs string) []string {
	var out []string
	for _, ref := range strings.Fields(refs) {
		if ref = strings.Trim(ref, "<>"); ref != "" {
			out = append(out, ref)
		}
	}
	return out
}

var dateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"02 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// parseDate accepts the common header date layouts and returns UTC. A
// trailing parenthesised zone name such as "(PST)" is ignored.
func parseDate(s string) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	if i := strings.LastIndex(s, "("); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
