package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

// Email metadata keys.
const (
	MetaFrom = "from"
	MetaTo   = "to"
	MetaDate = "date"
)

func extractEmail(_ string, data []byte) (Document, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("%w: not an email message: %v", domain.ErrInvalidInput, err)
	}

	headers := map[string]string{
		MetaFrom: decodeHeader(msg.Header.Get("From")),
		MetaTo:   decodeHeader(msg.Header.Get("To")),
		MetaDate: msg.Header.Get("Date"),
	}
	subject := decodeHeader(msg.Header.Get("Subject"))

	body, err := emailBody(msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return Document{}, err
	}

	var b strings.Builder
	metadata := map[string]string{}
	for _, h := range []struct{ label, key string }{{"From", MetaFrom}, {"To", MetaTo}, {"Date", MetaDate}} {
		if v := headers[h.key]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", h.label, v)
			metadata[h.key] = v
		}
	}
	if subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", subject)
	}
	b.WriteString("\n")
	b.WriteString(body)

	return Document{
		Title:    subject,
		Text:     strings.TrimSpace(b.String()),
		Metadata: metadata,
	}, nil
}

// decodeHeader decodes RFC 2047 encoded words, returning header unchanged
// when it cannot be decoded.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// emailBody returns the text of a message body, preferring text/plain
// parts over HTML ones.
func emailBody(contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return multipartBody(r, params["boundary"])
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, err)
	}
	if mediaType == "text/html" {
		return stripHTML(string(data)), nil
	}
	return strings.TrimSpace(string(data)), nil
}

func multipartBody(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", nil
	}

	var plain, rich []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: multipart body: %v", domain.ErrInvalidInput, err)
		}

		text, err := emailBody(part.Header.Get("Content-Type"), part)
		part.Close()
		if err != nil || text == "" {
			continue
		}
		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type")) //nolint:errcheck // empty on failure
		if mediaType == "text/html" {
			rich = append(rich, text)
		} else {
			plain = append(plain, text)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n"), nil
	}
	return strings.Join(rich, "\n"), nil
}
