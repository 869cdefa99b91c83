package mime

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	testemail "github.com/wesm/msgreader/internal/testutil/email"
)

func mustParseHeaders(t *testing.T, raw string) *Headers {
	t.Helper()
	h, err := ParseHeaders(raw)
	if err != nil {
		t.Fatalf("ParseHeaders() failed: %v", err)
	}
	return h
}

func TestParseHeaders_Defaults(t *testing.T) {
	h := mustParseHeaders(t, testemail.NewHeaders().String())

	if h.Subject != "Test Message" {
		t.Errorf("Subject = %q", h.Subject)
	}
	if want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC); !h.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", h.Date, want)
	}
	want := Address{Name: "Sender", Email: "sender@example.com", Domain: "example.com"}
	if got := h.FirstFrom(); got != want {
		t.Errorf("FirstFrom() = %+v, want %+v", got, want)
	}
	if len(h.Received) != 1 {
		t.Errorf("Received = %v, want one line", h.Received)
	}
}

func TestParseHeaders_Threading(t *testing.T) {
	raw := testemail.NewHeaders().
		Header("Message-ID", "<msg-3@example.com>").
		Header("In-Reply-To", "<msg-2@example.com>").
		Header("References", "<msg-1@example.com>\r\n <msg-2@example.com>").
		Header("Cc", `"Carol, C." <Carol@Example.ORG>, dave@example.net`).
		Header("Reply-To", "list@example.com").
		String()

	h := mustParseHeaders(t, raw)
	if h.MessageID != "<msg-3@example.com>" || h.InReplyTo != "<msg-2@example.com>" {
		t.Errorf("MessageID = %q, InReplyTo = %q", h.MessageID, h.InReplyTo)
	}
	if diff := cmp.Diff([]string{"msg-1@example.com", "msg-2@example.com"}, h.References); diff != "" {
		t.Errorf("References (-want +got):\n%s", diff)
	}
	wantCc := []Address{
		{Name: "Carol, C.", Email: "carol@example.org", Domain: "example.org"},
		{Email: "dave@example.net", Domain: "example.net"},
	}
	if diff := cmp.Diff(wantCc, h.Cc); diff != "" {
		t.Errorf("Cc (-want +got):\n%s", diff)
	}
	if len(h.ReplyTo) != 1 || h.ReplyTo[0].Email != "list@example.com" {
		t.Errorf("ReplyTo = %+v", h.ReplyTo)
	}
}

func TestParseHeaders_Empty(t *testing.T) {
	for _, raw := range []string{"", "\r\n", "  \r\n\r\n"} {
		h := mustParseHeaders(t, raw)
		if h.Subject != "" || len(h.From) != 0 || !h.Date.IsZero() {
			t.Errorf("ParseHeaders(%q) = %+v, want empty", raw, h)
		}
	}
}

func TestParseHeaders_BadDate(t *testing.T) {
	h := mustParseHeaders(t, testemail.NewHeaders().Set("Date", "sometime last week").String())
	if !h.Date.IsZero() {
		t.Errorf("Date = %v, want zero", h.Date)
	}
	if len(h.Errors) == 0 {
		t.Error("expected a recorded date error")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"RFC1123Z", "Mon, 02 Jan 2006 15:04:05 -0700", time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC)},
		{"no weekday", "02 Jan 2006 15:04:05 -0700", time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC)},
		{"parenthesized zone", "Mon, 02 Jan 2006 15:04:05 -0700 (PST)", time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC)},
		{"double space", "Mon,  2 Dec 2024 11:42:03 +0000 (UTC)", time.Date(2024, 12, 2, 11, 42, 3, 0, time.UTC)},
		{"ISO 8601", "2006-01-02T15:04:05-07:00", time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC)},
		{"SQL-like", "2006-01-02 15:04:05", time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDate(tc.input)
			if err != nil {
				t.Fatalf("parseDate(%q): %v", tc.input, err)
			}
			if !got.Equal(tc.want) || got.Location() != time.UTC {
				t.Errorf("parseDate(%q) = %v, want %v UTC", tc.input, got, tc.want)
			}
		})
	}
	for _, bad := range []string{"", "not a date", "2006-01-02"} {
		if _, err := parseDate(bad); err == nil {
			t.Errorf("parseDate(%q) succeeded", bad)
		}
	}
}

func TestAddressString(t *testing.T) {
	if got := (Address{Name: "Ann", Email: "ann@example.com"}).String(); got != "Ann <ann@example.com>" {
		t.Errorf("got %q", got)
	}
	if got := (Address{Email: "ann@example.com"}).String(); got != "ann@example.com" {
		t.Errorf("got %q", got)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"paragraph", "<p>Hello</p>", "Hello"},
		{"inline tags", "<b>Bold</b> and <i>italic</i>", "Bold and italic"},
		{"script removed", "<script>alert('x')</script>Text", "Text"},
		{"style removed", "<style>.c{color:red}</style>Content", "Content"},
		{"comment removed", "<!--[if mso]>word junk<![endif]-->Visible", "Visible"},
		{"entities", "Tom &amp; Jerry&nbsp;&#169;", "Tom & Jerry ©"},
		{"br", "Line1<br/>Line2", "Line1\nLine2"},
		{"paragraphs", "<p>Para1</p><p>Para2</p>", "Para1\n\nPara2"},
		{"collapse newlines", "A\n\n\n\nB", "A\n\nB"},
		{
			"outlook body",
			`<html><head><style>p.MsoNormal{margin:0}</style></head><body>
			<p class=MsoNormal>Hello,</p>
			<p class=MsoNormal>See the <b>attached</b> report.</p>
			</body></html>`,
			"Hello,\n\nSee the attached report.",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripHTML(tc.input); got != tc.want {
				t.Errorf("StripHTML() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBodyText(t *testing.T) {
	if got := BodyText("plain", "<p>html</p>"); got != "plain" {
		t.Errorf("got %q", got)
	}
	if got := BodyText("", "<p>html only</p>"); got != "html only" {
		t.Errorf("got %q", got)
	}
	if got := BodyText("", ""); got != "" {
		t.Errorf("got %q", got)
	}
}
