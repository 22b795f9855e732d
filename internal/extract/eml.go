package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
)

// EmailExtractor handles RFC 822 .eml files
type EmailExtractor struct{}

// NewEmailExtractor creates a new EmailExtractor
func NewEmailExtractor() *EmailExtractor {
	return &EmailExtractor{}
}

// Extract parses headers and body separately, preferring text/plain parts of
// multipart messages and falling back to tag-stripped HTML parts. Headers go
// into metadata; the returned text carries header lines followed by the body.
func (e *EmailExtractor) Extract(_ context.Context, _ string, data []byte) domain.ExtractedDocument {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return domain.NewExtractionFailure(domain.SourceTypeEmail, fmt.Sprintf("failed to parse email: %v", err))
	}

	from := decodeHeader(msg.Header.Get("From"))
	to := decodeHeader(msg.Header.Get("To"))
	subject := decodeHeader(msg.Header.Get("Subject"))
	date := msg.Header.Get("Date")

	body := extractEmailBody(msg)

	if strings.TrimSpace(subject) == "" && strings.TrimSpace(body) == "" {
		return domain.NewExtractionFailure(domain.SourceTypeEmail, "email has no subject or body")
	}

	var content strings.Builder
	if from != "" {
		content.WriteString("From: ")
		content.WriteString(from)
		content.WriteString("\n")
	}
	if to != "" {
		content.WriteString("To: ")
		content.WriteString(to)
		content.WriteString("\n")
	}
	if date != "" {
		content.WriteString("Date: ")
		content.WriteString(date)
		content.WriteString("\n")
	}
	if subject != "" {
		content.WriteString("Subject: ")
		content.WriteString(subject)
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(body)

	metadata := map[string]string{}
	if from != "" {
		metadata["from"] = from
	}
	if to != "" {
		metadata["to"] = to
	}
	if subject != "" {
		metadata["subject"] = subject
	}
	if date != "" {
		metadata["date"] = date
	}

	return domain.NewExtractedDocument(strings.TrimSpace(content.String()), domain.SourceTypeEmail, metadata)
}

// decodeHeader decodes RFC 2047 encoded header values
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// extractEmailBody pulls the text content out of a message body
func extractEmailBody(msg *mail.Message) string {
	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return ""
		}
		return string(body)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipartBody(msg.Body, params["boundary"])
	}

	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return ""
	}
	body = decodeTransferBody(body, msg.Header.Get("Content-Transfer-Encoding"))

	if mediaType == "text/html" {
		return stripTags(string(body))
	}

	return string(body)
}

// decodeTransferBody reverses the Content-Transfer-Encoding so base64 and
// quoted-printable bodies index as text instead of encoded noise. Unknown
// or absent encodings pass through, and a decode failure keeps the raw bytes.
func decodeTransferBody(raw []byte, encoding string) []byte {
	var r io.Reader
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, bytes.NewReader(raw))
	case "quoted-printable":
		r = quotedprintable.NewReader(bytes.NewReader(raw))
	default:
		return raw
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return raw
	}
	return decoded
}

// extractMultipartBody walks multipart parts, preferring text/plain over HTML
func extractMultipartBody(r io.Reader, boundary string) string {
	if boundary == "" {
		return ""
	}

	mr := multipart.NewReader(r, boundary)
	var textParts []string
	var htmlParts []string

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		mediaType, params, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "application/octet-stream"
		}

		// multipart.Part transparently decodes quoted-printable parts; the
		// helper covers base64, which it leaves alone.
		content, readErr := io.ReadAll(part)
		part.Close()
		if readErr != nil {
			continue
		}
		content = decodeTransferBody(content, part.Header.Get("Content-Transfer-Encoding"))

		switch {
		case mediaType == "text/plain":
			textParts = append(textParts, string(content))
		case mediaType == "text/html":
			htmlParts = append(htmlParts, stripTags(string(content)))
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested := extractMultipartBody(bytes.NewReader(content), params["boundary"]); nested != "" {
				textParts = append(textParts, nested)
			}
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n")
	}
	return strings.Join(htmlParts, "\n")
}

// stripTags removes markup for plain-text indexing of HTML email parts
func stripTags(html string) string {
	var result strings.Builder
	inTag := false

	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	lines := strings.Split(result.String(), "\n")
	var cleaned []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
