package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/wesm/msgreader/internal/mime"
	"github.com/wesm/msgreader/internal/msg"
)

// WriteEML renders a decoded message as RFC 5322. The plain and HTML
// bodies become alternatives, followed by one part per attachment.
// Header values come from the message properties first and the stored
// transport headers second.
func WriteEML(w io.Writer, f *msg.Fields, atts []Attachment) error {
	mw, err := mail.CreateWriter(w, emlHeader(f))
	if err != nil {
		return fmt.Errorf("create message writer: %w", err)
	}
	if err := writeBodies(mw, f); err != nil {
		return err
	}
	for _, att := range atts {
		if err := writeAttachment(mw, att); err != nil {
			return fmt.Errorf("write attachment %q: %w", att.FileName, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	return nil
}

func emlHeader(f *msg.Fields) mail.Header {
	transport, err := mime.ParseHeaders(f.Headers())
	if err != nil {
		transport = &mime.Headers{}
	}

	var h mail.Header
	if !transport.Date.IsZero() {
		h.SetDate(transport.Date)
	}

	subject := f.Subject()
	if subject == "" {
		subject = transport.Subject
	}
	h.SetSubject(subject)

	from := mailAddresses(transport.From)
	if len(from) == 0 && isInternetAddress(f.SenderEmail()) {
		from = []*mail.Address{{Name: f.SenderName(), Address: f.SenderEmail()}}
	}
	if len(from) > 0 {
		h.SetAddressList("From", from)
	}

	to, cc := mailAddresses(transport.To), mailAddresses(transport.Cc)
	if len(to) == 0 && len(cc) == 0 {
		to = recipientAddresses(f)
	}
	if len(to) > 0 {
		h.SetAddressList("To", to)
	}
	if len(cc) > 0 {
		h.SetAddressList("Cc", cc)
	}
	if replyTo := mailAddresses(transport.ReplyTo); len(replyTo) > 0 {
		h.SetAddressList("Reply-To", replyTo)
	}

	id := f.InternetMessageID()
	if id == "" {
		id = transport.MessageID
	}
	if id = trimMsgID(id); id != "" {
		h.SetMessageID(id)
	}
	if id := trimMsgID(transport.InReplyTo); id != "" {
		h.SetMsgIDList("In-Reply-To", []string{id})
	}
	if len(transport.References) > 0 {
		h.SetMsgIDList("References", transport.References)
	}
	return h
}

func mailAddresses(addrs []mime.Address) []*mail.Address {
	var out []*mail.Address
	for _, a := range addrs {
		out = append(out, &mail.Address{Name: a.Name, Address: a.Email})
	}
	return out
}

// recipientAddresses lists recipient records that carry an SMTP address.
// Exchange-only recipients have none and are left out.
func recipientAddresses(f *msg.Fields) []*mail.Address {
	var out []*mail.Address
	for _, rec := range f.Recipients {
		if email := rec.Email(); isInternetAddress(email) {
			out = append(out, &mail.Address{Name: rec.Name(), Address: email})
		}
	}
	return out
}

func isInternetAddress(s string) bool {
	return strings.Contains(s, "@") && !strings.HasPrefix(s, "/")
}

func trimMsgID(id string) string {
	return strings.Trim(strings.TrimSpace(id), "<>")
}

func writeBodies(mw *mail.Writer, f *msg.Fields) error {
	tw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("create body: %w", err)
	}
	plain, html := f.Body(), f.BodyHTML()
	if plain != "" || html == "" {
		if err := writeInlinePart(tw, "text/plain", plain); err != nil {
			return err
		}
	}
	if html != "" {
		if err := writeInlinePart(tw, "text/html", html); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finish body: %w", err)
	}
	return nil
}

func writeInlinePart(tw *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")
	pw, err := tw.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		pw.Close()
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	return pw.Close()
}

func writeAttachment(mw *mail.Writer, att Attachment) error {
	contentType := att.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	name := SanitizeFilename(att.FileName)
	if name == "" {
		name = fmt.Sprintf("attachment_%d", att.Index+1)
	}

	var ah mail.AttachmentHeader
	ah.SetContentType(contentType, nil)
	ah.SetFilename(name)
	ah.Set("Content-Transfer-Encoding", "base64")
	if cid := trimMsgID(att.ContentID); cid != "" {
		ah.Set("Content-Id", "<"+cid+">")
	}
	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return err
	}
	if _, err := aw.Write(att.Content); err != nil {
		aw.Close()
		return err
	}
	return aw.Close()
}
