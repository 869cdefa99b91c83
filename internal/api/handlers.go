package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdmime "mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wesm/msgreader/internal/cfb"
	"github.com/wesm/msgreader/internal/config"
	"github.com/wesm/msgreader/internal/export"
	"github.com/wesm/msgreader/internal/mime"
	"github.com/wesm/msgreader/internal/msg"
)

// uploadField is the multipart form field carrying the .msg file.
const uploadField = "file"

// Multipart parts beyond this size spill to temporary files.
const maxUploadMemory = 32 << 20

// MessageResponse is the decoded message returned by POST /api/v1/messages.
type MessageResponse struct {
	Subject            string           `json:"subject"`
	From               *AddressInfo     `json:"from,omitempty"`
	To                 []AddressInfo    `json:"to"`
	Cc                 []AddressInfo    `json:"cc"`
	Date               string           `json:"date,omitempty"`
	MessageID          string           `json:"message_id,omitempty"`
	MessageClass       string           `json:"message_class,omitempty"`
	Body               string           `json:"body"`
	HasHTML            bool             `json:"has_html"`
	HasEmbeddedMessage bool             `json:"has_embedded_message"`
	Recipients         []RecipientInfo  `json:"recipients"`
	Attachments        []AttachmentInfo `json:"attachments"`
	Fields             *msg.Fields      `json:"fields"`
}

// AddressInfo is a display name and email address.
type AddressInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// RecipientInfo describes one recipient record.
type RecipientInfo struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	AddressType string `json:"address_type,omitempty"`
}

// AttachmentInfo describes one attachment record. Index is the value to
// pass to the attachment download endpoint.
type AttachmentInfo struct {
	Index           int    `json:"index"`
	Filename        string `json:"filename"`
	MimeType        string `json:"mime_type"`
	Size            int    `json:"size"`
	ContentID       string `json:"content_id,omitempty"`
	HasContent      bool   `json:"has_content"`
	EmbeddedMessage bool   `json:"embedded_message,omitempty"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// writeDecodeError maps decoder failures to status codes.
func (s *Server) writeDecodeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, msg.ErrInvalidReference):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, cfb.ErrFormat):
		writeError(w, http.StatusUnsupportedMediaType, "not_msg_file", "Upload is not an Outlook .msg file")
	case errors.Is(err, cfb.ErrIntegrity), errors.Is(err, cfb.ErrStructure):
		writeError(w, http.StatusUnprocessableEntity, "corrupt_file", err.Error())
	default:
		s.logger.Error("failed to decode message", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to decode message")
	}
}

// readUpload reads the uploaded .msg into a Reader. On failure it has
// already written the error response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*msg.Reader, bool) {
	limit := s.cfg.Server.MaxUploadBytes
	if limit <= 0 {
		limit = config.DefaultMaxFileBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("Upload exceeds %d bytes", limit))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid_upload", "Expected a multipart/form-data upload")
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file",
			fmt.Sprintf("Multipart field %q is required", uploadField))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("failed to read upload", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to read upload")
		return nil, false
	}
	return msg.NewReader(data, msg.WithLogger(s.logger)), true
}

// handleDecode returns the decoded fields of an uploaded message.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	fields, err := reader.FileData()
	if err != nil {
		s.writeDecodeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.messageResponse(fields))
}

func (s *Server) messageResponse(f *msg.Fields) MessageResponse {
	resp := MessageResponse{
		Subject:            f.Subject(),
		MessageID:          f.InternetMessageID(),
		MessageClass:       f.MessageClass(),
		Body:               mime.BodyText(f.Body(), f.BodyHTML()),
		HasHTML:            f.BodyHTML() != "",
		HasEmbeddedMessage: f.HasEmbeddedMessage,
		To:                 []AddressInfo{},
		Cc:                 []AddressInfo{},
		Recipients:         []RecipientInfo{},
		Attachments:        []AttachmentInfo{},
		Fields:             f,
	}

	headers, err := mime.ParseHeaders(f.Headers())
	if err != nil {
		s.logger.Debug("transport headers not parsed", "error", err)
		headers = &mime.Headers{}
	}
	if resp.Subject == "" {
		resp.Subject = headers.Subject
	}
	if resp.MessageID == "" {
		resp.MessageID = headers.MessageID
	}
	if !headers.Date.IsZero() {
		resp.Date = headers.Date.Format(time.RFC3339)
	}
	if from := headers.FirstFrom(); from.Email != "" {
		resp.From = &AddressInfo{Name: from.Name, Email: from.Email}
	} else if f.SenderEmail() != "" || f.SenderName() != "" {
		resp.From = &AddressInfo{Name: f.SenderName(), Email: f.SenderEmail()}
	}
	for _, a := range headers.To {
		resp.To = append(resp.To, AddressInfo{Name: a.Name, Email: a.Email})
	}
	for _, a := range headers.Cc {
		resp.Cc = append(resp.Cc, AddressInfo{Name: a.Name, Email: a.Email})
	}

	for _, rec := range f.Recipients {
		resp.Recipients = append(resp.Recipients, RecipientInfo{
			Name:        rec.Name(),
			Email:       rec.Email(),
			AddressType: rec.AddressType(),
		})
	}
	for i, att := range f.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentInfo{
			Index:           i,
			Filename:        att.FileName(),
			MimeType:        export.ContentType(att),
			Size:            att.ContentLength(),
			ContentID:       att.ContentID(),
			HasContent:      att.HasContent(),
			EmbeddedMessage: att.HasEmbeddedMessage,
		})
	}
	return resp
}

// handleAttachment streams one attachment of an uploaded message.
func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid_index", "Attachment index must be a non-negative number")
		return
	}

	reader, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	fields, err := reader.FileData()
	if err != nil {
		s.writeDecodeError(w, err)
		return
	}
	data, err := reader.Attachment(index)
	if err != nil {
		s.writeDecodeError(w, err)
		return
	}

	name := export.SanitizeFilename(data.FileName)
	if name == "" {
		name = fmt.Sprintf("attachment_%d", index+1)
	}
	w.Header().Set("Content-Type", export.ContentType(fields.Attachments[index]))
	w.Header().Set("Content-Disposition", stdmime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data.Content)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data.Content)
}
