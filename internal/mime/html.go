package mime

import (
	"html"
	"regexp"
	"strings"
)

var (
	blockTagRe  = regexp.MustCompile(`(?i)<(/?)(p|div|br|hr|h[1-6]|li|tr|td|th|blockquote|pre|table|ul|ol|dl|dt|dd)[^>]*>`)
	scriptTagRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTagRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	headTagRe   = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	commentRe   = regexp.MustCompile(`(?s)<!--.*?-->`)
	anyTagRe    = regexp.MustCompile(`<[^>]*>`)
)

// StripHTML renders an HTML body as plain text. Block elements become line
// breaks, entities are decoded and runs of spaces collapse, including
// inside <pre>.
func StripHTML(rawHTML string) string {
	text := commentRe.ReplaceAllString(rawHTML, "")
	for _, re := range []*regexp.Regexp{scriptTagRe, styleTagRe, headTagRe} {
		text = re.ReplaceAllString(text, "")
	}
	text = blockTagRe.ReplaceAllString(text, "\n")
	text = anyTagRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	text = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u00a0", " ").Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}

// BodyText prefers the plain body and falls back to the stripped HTML body.
func BodyText(plain, htmlBody string) string {
	if plain != "" {
		return plain
	}
	if htmlBody != "" {
		return StripHTML(htmlBody)
	}
	return ""
}
