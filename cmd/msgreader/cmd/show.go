package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/wesm/msgreader/internal/export"
	"github.com/wesm/msgreader/internal/mime"
	"github.com/wesm/msgreader/internal/msg"
	"github.com/wesm/msgreader/internal/textutil"
)

const (
	// maxValueWidth is the display width of header values before truncation.
	maxValueWidth = 72
	labelWidth    = 9
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <file.msg>",
	Short: "Print the fields, recipients and attachments of a message",
	Long: `Print a decoded .msg file: header fields, recipients, the attachment
list and the body. HTML-only bodies are rendered as plain text.

Use --json for the complete field record, including every decoded
property of each attachment and recipient.

Examples:
  msgreader show invoice.msg
  msgreader show invoice.msg --json | jq '.attachments[].fileName'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openMessage(args[0])
		if err != nil {
			return err
		}
		fields, err := r.FileData()
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		if showJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(fields)
		}
		return printMessage(out, fields, newStyles(isTerminal(out) && !termenv.EnvNoColor()))
	},
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type styles struct {
	color   bool
	heading lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(color bool) styles {
	return styles{
		color:   color,
		heading: lipgloss.NewStyle().Bold(true),
		label:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#005f87", Dark: "#5fafd7"}),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#767676", Dark: "#8a8a8a"}),
	}
}

func (s styles) render(st lipgloss.Style, v string) string {
	if !s.color {
		return v
	}
	return st.Render(v)
}

func printMessage(w io.Writer, f *msg.Fields, st styles) error {
	headers, err := mime.ParseHeaders(f.Headers())
	if err != nil {
		headers = &mime.Headers{}
	}

	subject := f.Subject()
	if subject == "" {
		subject = headers.Subject
	}
	if subject == "" {
		subject = "(no subject)"
	}

	rule := strings.Repeat("─", maxValueWidth+labelWidth)
	fmt.Fprintln(w, st.render(st.heading, subject))
	fmt.Fprintln(w, st.render(st.dim, rule))

	row := func(label, value string) {
		if value == "" {
			return
		}
		value = textutil.TruncateWidth(textutil.FirstLine(value), maxValueWidth)
		fmt.Fprintf(w, "%s%s\n", padRight(st.render(st.label, label+":"), labelWidth), value)
	}

	row("From", senderLine(f, headers))
	row("To", f.DisplayTo())
	row("Cc", f.DisplayCc())
	if !headers.Date.IsZero() {
		row("Date", headers.Date.Local().Format(time.RFC1123))
	}
	msgID := f.InternetMessageID()
	if msgID == "" {
		msgID = headers.MessageID
	}
	row("ID", msgID)
	row("Class", f.MessageClass())

	if len(f.Recipients) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.render(st.heading, "Recipients:"))
		for _, rec := range f.Recipients {
			fmt.Fprintf(w, "  • %s\n", recipientLine(rec))
		}
	}

	if len(f.Attachments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.render(st.heading, "Attachments:"))
		for i, att := range f.Attachments {
			fmt.Fprintf(w, "  [%d] %s %s\n", i, attachmentName(att, i), st.render(st.dim, attachmentDetail(att)))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, st.render(st.dim, rule))
	if body := mime.BodyText(f.Body(), f.BodyHTML()); body != "" {
		fmt.Fprintln(w, body)
	} else {
		fmt.Fprintln(w, st.render(st.dim, "[No body content available]"))
	}
	return nil
}

// padRight pads s with spaces to fill width terminal cells, ignoring ANSI
// escapes.
func padRight(s string, width int) string {
	sw := lipgloss.Width(s)
	if sw >= width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-sw)
}

func senderLine(f *msg.Fields, headers *mime.Headers) string {
	name, email := f.SenderName(), f.SenderEmail()
	if email == "" {
		from := headers.FirstFrom()
		if name == "" {
			name = from.Name
		}
		email = from.Email
	}
	return formatAddress(name, email)
}

func formatAddress(name, email string) string {
	if email == "" {
		return name
	}
	return mime.Address{Name: name, Email: email}.String()
}

func recipientLine(rec *msg.Fields) string {
	line := formatAddress(rec.Name(), rec.Email())
	if line == "" {
		line = "(unnamed)"
	}
	if t := rec.AddressType(); t != "" && t != "SMTP" {
		line += " [" + t + "]"
	}
	return line
}

func attachmentName(att *msg.Fields, i int) string {
	if name := att.FileName(); name != "" {
		return name
	}
	if name := att.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("attachment_%d", i+1)
}

func attachmentDetail(att *msg.Fields) string {
	switch {
	case att.HasEmbeddedMessage:
		return "(embedded message)"
	case !att.HasContent():
		return "(no data)"
	default:
		return fmt.Sprintf("(%s, %s)", export.ContentType(att), export.FormatBytesLong(int64(att.ContentLength())))
	}
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output the full field record as JSON")
	rootCmd.AddCommand(showCmd)
}
