package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/wesm/msgreader/internal/msg"
	testemail "github.com/wesm/msgreader/internal/testutil/email"
	"github.com/wesm/msgreader/internal/testutil/msgtest"
)

func renderEML(t *testing.T, b *msgtest.Builder) *enmime.Envelope {
	t.Helper()
	r := msg.NewReader(b.Bytes())
	f, err := r.FileData()
	if err != nil {
		t.Fatalf("FileData: %v", err)
	}
	atts, _, err := Collect(r)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteEML(&buf, f, atts); err != nil {
		t.Fatalf("WriteEML: %v", err)
	}
	env, err := enmime.ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v\n%s", err, buf.String())
	}
	return env
}

func TestWriteEML_FromProperties(t *testing.T) {
	b := msgtest.New()
	root := b.Root()
	root.Unicode("0037", "Grüße aus Köln").
		Unicode("0C1A", "Ann Sender").
		Unicode("5D02", "ann@example.com").
		Unicode("1000", "Plain body\r\nsecond line").
		Unicode("1035", "<abc@example.com>")
	root.Recipient(0).Unicode("3001", "Bob").Unicode("39FE", "bob@example.com")
	root.Recipient(1).Unicode("3001", "Exchange Only").Unicode("3003", "/O=ORG/OU=EXCHANGE/CN=RECIPIENTS/CN=X")
	root.Attachment(0).
		Unicode("3707", "data.bin").
		String8("370E", "application/octet-stream").
		Binary("3701", []byte{0, 1, 2, 0xff})

	env := renderEML(t, b)

	if got := env.GetHeader("Subject"); got != "Grüße aus Köln" {
		t.Errorf("Subject = %q", got)
	}
	if got := env.GetHeader("From"); !strings.Contains(got, "ann@example.com") || !strings.Contains(got, "Ann Sender") {
		t.Errorf("From = %q", got)
	}
	to := env.GetHeader("To")
	if !strings.Contains(to, "bob@example.com") || strings.Contains(to, "EXCHANGE") {
		t.Errorf("To = %q", to)
	}
	if got := env.GetHeader("Message-Id"); got != "<abc@example.com>" {
		t.Errorf("Message-Id = %q", got)
	}
	if !strings.Contains(env.Text, "Plain body") || !strings.Contains(env.Text, "second line") {
		t.Errorf("Text = %q", env.Text)
	}
	if env.HTML != "" {
		t.Errorf("HTML = %q, want none", env.HTML)
	}
	if len(env.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(env.Attachments))
	}
	a := env.Attachments[0]
	if a.FileName != "data.bin" || !bytes.Equal(a.Content, []byte{0, 1, 2, 0xff}) {
		t.Errorf("attachment = %q %v", a.FileName, a.Content)
	}
}

func TestWriteEML_TransportHeaders(t *testing.T) {
	raw := testemail.NewHeaders().
		Set("From", `"Header Sender" <hs@example.org>`).
		Set("To", "rcpt@example.org").
		Header("Cc", "cc@example.org").
		Header("Message-ID", "<hdr@example.org>").
		Header("In-Reply-To", "<parent@example.org>").
		Header("References", "<root@example.org> <parent@example.org>").
		String()

	b := msgtest.New()
	b.Root().
		Unicode("007D", raw).
		Unicode("1000", "plain").
		Unicode("1013", "<p>html</p>")

	env := renderEML(t, b)

	if got := env.GetHeader("Subject"); got != "Test Message" {
		t.Errorf("Subject = %q, want the transport subject", got)
	}
	if got := env.GetHeader("From"); !strings.Contains(got, "hs@example.org") {
		t.Errorf("From = %q", got)
	}
	if got := env.GetHeader("Cc"); !strings.Contains(got, "cc@example.org") {
		t.Errorf("Cc = %q", got)
	}
	if got := env.GetHeader("Message-Id"); got != "<hdr@example.org>" {
		t.Errorf("Message-Id = %q", got)
	}
	if got := env.GetHeader("In-Reply-To"); got != "<parent@example.org>" {
		t.Errorf("In-Reply-To = %q", got)
	}
	if got := env.GetHeader("References"); !strings.Contains(got, "<root@example.org>") {
		t.Errorf("References = %q", got)
	}
	date, err := env.Date()
	if err != nil {
		t.Fatalf("Date: %v", err)
	}
	if want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC); !date.Equal(want) {
		t.Errorf("Date = %v, want %v", date, want)
	}
	if strings.TrimSpace(env.Text) != "plain" || !strings.Contains(env.HTML, "<p>html</p>") {
		t.Errorf("Text = %q, HTML = %q", env.Text, env.HTML)
	}
}

func TestWriteEML_Empty(t *testing.T) {
	env := renderEML(t, msgtest.New())
	if env.GetHeader("From") != "" || len(env.Attachments) != 0 {
		t.Errorf("From = %q, attachments = %d", env.GetHeader("From"), len(env.Attachments))
	}
}
