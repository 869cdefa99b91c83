// Package export writes the decoded parts of a .msg file to disk: single
// attachment files, attachment directories and zip archives, and .eml
// renderings of the whole message.
package export

import (
	"archive/zip"
	"errors"
	"fmt"
	"io/fs"
	stdmime "mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/wesm/msgreader/internal/fileutil"
	"github.com/wesm/msgreader/internal/msg"
)

const defaultContentType = "application/octet-stream"

// maxNameAttempts bounds the search for a free file name in a directory.
const maxNameAttempts = 1000

// Attachment is a resolved attachment ready to be written out.
type Attachment struct {
	Index       int
	FileName    string
	ContentType string
	ContentID   string
	Content     []byte
}

// ExportStats contains structured results of an attachment export operation.
type ExportStats struct {
	Count      int
	Size       int64
	Errors     []string
	Path       string
	WriteError bool // true if a write error occurred and the output was removed
}

// Collect resolves the payload of every attachment of the message read by
// r. Records without data, such as embedded messages, are listed in skipped.
func Collect(r *msg.Reader) (atts []Attachment, skipped []string, err error) {
	fields, err := r.FileData()
	if err != nil {
		return nil, nil, err
	}
	for i, rec := range fields.Attachments {
		if !rec.HasContent() {
			skipped = append(skipped, fmt.Sprintf("attachment %d (%s): no data", i, displayName(rec, i)))
			continue
		}
		data, err := r.Attachment(i)
		if err != nil {
			return nil, skipped, err
		}
		atts = append(atts, Attachment{
			Index:       i,
			FileName:    data.FileName,
			ContentType: ContentType(rec),
			ContentID:   rec.ContentID(),
			Content:     data.Content,
		})
	}
	return atts, skipped, nil
}

// ContentType returns the media type of an attachment record: its MIME
// tag when that is well formed, otherwise a guess from the file extension.
func ContentType(rec *msg.Fields) string {
	if mt, _, err := stdmime.ParseMediaType(rec.MimeTag()); err == nil && strings.Contains(mt, "/") {
		return mt
	}
	ext := rec.Extension()
	if ext == "" {
		ext = filepath.Ext(rec.FileName())
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if guess := stdmime.TypeByExtension(strings.ToLower(ext)); guess != "" {
		if mt, _, err := stdmime.ParseMediaType(guess); err == nil {
			return mt
		}
	}
	return defaultContentType
}

func displayName(rec *msg.Fields, i int) string {
	if name := rec.FileName(); name != "" {
		return name
	}
	if name := rec.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", i)
}

// AttachmentsToDir writes each attachment to its own file under dir. Names
// are sanitized and never replace an existing file.
func AttachmentsToDir(dir string, atts []Attachment) ExportStats {
	if err := fileutil.SecureMkdirAll(dir, 0700); err != nil {
		return ExportStats{
			Errors:     []string{fmt.Sprintf("failed to create directory: %v", err)},
			WriteError: true,
		}
	}

	var stats ExportStats
	usedNames := make(map[string]int)
	for _, att := range atts {
		if err := writeUnique(dir, att, usedNames); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", att.FileName, err))
			continue
		}
		stats.Count++
		stats.Size += int64(len(att.Content))
	}
	if stats.Count > 0 {
		stats.Path = absPath(dir)
	}
	return stats
}

func writeUnique(dir string, att Attachment, usedNames map[string]int) error {
	for range maxNameAttempts {
		name := resolveUniqueFilename(att.FileName, att.Index, usedNames)
		err := fileutil.WriteNew(filepath.Join(dir, name), att.Content, 0600)
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
	}
	return fmt.Errorf("no free file name after %d attempts", maxNameAttempts)
}

// AttachmentsToZip writes the attachments into a new zip archive at
// zipPath. The archive is removed when nothing was exported or a write
// failed.
func AttachmentsToZip(zipPath string, atts []Attachment) ExportStats {
	zipFile, err := fileutil.SecureOpenFile(zipPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return ExportStats{Errors: []string{fmt.Sprintf("failed to create zip file: %v", err)}}
	}

	zipWriter := zip.NewWriter(zipFile)

	var stats ExportStats
	var writeError bool

	usedNames := make(map[string]int)
	for _, att := range atts {
		n, err := addAttachmentToZip(zipWriter, att, usedNames)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", att.FileName, err))
			writeError = true
			continue
		}
		stats.Count++
		stats.Size += n
	}

	if err := zipWriter.Close(); err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("zip finalization error: %v", err))
		writeError = true
	}
	if err := zipFile.Close(); err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("file close error: %v", err))
		writeError = true
	}

	if stats.Count == 0 || writeError {
		os.Remove(zipPath)
		stats.WriteError = writeError
		return stats
	}

	stats.Path = absPath(zipPath)
	return stats
}

func addAttachmentToZip(zw *zip.Writer, att Attachment, usedNames map[string]int) (int64, error) {
	filename := resolveUniqueFilename(att.FileName, att.Index, usedNames)

	w, err := zw.Create(filename)
	if err != nil {
		return 0, fmt.Errorf("zip write error: %w", err)
	}
	n, err := w.Write(att.Content)
	if err != nil {
		return 0, fmt.Errorf("zip write error: %w", err)
	}
	return int64(n), nil
}

// FormatExportResult formats ExportStats into a human-readable string for display.
func FormatExportResult(stats ExportStats) string {
	if stats.WriteError {
		out := "Export failed due to write errors. Output removed."
		if len(stats.Errors) > 0 {
			out += "\n\nErrors:\n" + strings.Join(stats.Errors, "\n")
		}
		return out
	}

	if stats.Count == 0 {
		out := "No attachments exported."
		if len(stats.Errors) > 0 {
			out += "\n\nErrors:\n" + strings.Join(stats.Errors, "\n")
		}
		return out
	}

	result := fmt.Sprintf("Exported %d attachment(s) (%s)\n\nSaved to:\n%s",
		stats.Count, FormatBytesLong(stats.Size), stats.Path)
	if len(stats.Errors) > 0 {
		result += "\n\nErrors:\n" + strings.Join(stats.Errors, "\n")
	}
	return result
}

// resolveUniqueFilename sanitizes original and, when the name was handed
// out before, appends _2, _3 and so on before the extension, skipping any
// candidate already handed out. Unnamed attachments become
// attachment_<index+1>.
func resolveUniqueFilename(original string, index int, usedNames map[string]int) string {
	filename := SanitizeFilename(original)
	if filename == "" {
		filename = fmt.Sprintf("attachment_%d", index+1)
	}

	baseKey := filename
	count, exists := usedNames[baseKey]
	if !exists {
		usedNames[baseKey] = 1
		return filename
	}
	ext := filepath.Ext(filename)
	base := filename[:len(filename)-len(ext)]
	for {
		count++
		filename = fmt.Sprintf("%s_%d%s", base, count, ext)
		if _, taken := usedNames[filename]; !taken {
			break
		}
	}
	usedNames[baseKey] = count
	usedNames[filename] = 1

	return filename
}

// SanitizeFilename reduces s to a single safe path component. A name made
// only of dots comes back empty.
func SanitizeFilename(s string) string {
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	var result []rune
	for _, r := range s {
		switch {
		case r < 0x20, r == 0x7f:
			result = append(result, '_')
		case strings.ContainsRune(`:*?"<>|`, r):
			result = append(result, '_')
		default:
			result = append(result, r)
		}
	}
	name := strings.TrimSpace(string(result))
	if strings.Trim(name, ".") == "" {
		return ""
	}
	return name
}

// FormatBytesLong formats bytes with full precision for export results.
func FormatBytesLong(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
