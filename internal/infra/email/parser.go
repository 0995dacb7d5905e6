package email

import (
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/datashield/internal/domain/analysis"
)

const (
	maxPartBytes = 1 << 20
	maxDepth     = 10
)

// hrefPattern deliberately scans raw HTML, so links inside comments or
// non-rendered tags are reported too.
var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*["'](https?://[^"'\s>]+)["']`)

// Parser turns raw RFC 5322 text into analysis.EmailMetadata.
type Parser struct {
	logger  *zap.Logger
	decoder *mime.WordDecoder
}

func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger, decoder: new(mime.WordDecoder)}
}

// Parse fails with EmailParseFailed when raw is not a transport-format message.
func (p *Parser) Parse(raw string) (*analysis.EmailMetadata, error) {
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return nil, analysis.E(analysis.KindEmailParseFailed, "parse email", err)
	}
	if len(msg.Header) == 0 {
		return nil, analysis.Errorf(analysis.KindEmailParseFailed, "parse email", "message has no headers")
	}

	meta := &analysis.EmailMetadata{
		From:    p.decodeHeader(msg.Header.Get("From")),
		Subject: p.decodeHeader(msg.Header.Get("Subject")),
		Date:    formatDate(msg.Header),
		Headers: make(map[string]string, len(msg.Header)),
		Links:   []string{},
	}
	for k, v := range msg.Header {
		meta.Headers[strings.ToLower(k)] = p.decodeHeader(strings.Join(v, ", "))
	}

	meta.SPFResult = headerOr(meta.Headers, "authentication-results", analysis.NotAvailable)
	meta.DKIMResult = analysis.NotPresent
	if _, ok := meta.Headers["dkim-signature"]; ok {
		meta.DKIMResult = analysis.Present
	}
	meta.ReturnPath = headerOr(meta.Headers, "return-path", analysis.NotAvailable)

	w := &walker{meta: meta, seen: map[string]bool{}, logger: p.logger}
	w.walk(textproto.MIMEHeader(msg.Header), msg.Body, 0)

	return meta, nil
}

func (p *Parser) decodeHeader(v string) string {
	if v == "" {
		return ""
	}
	decoded, err := p.decoder.DecodeHeader(v)
	if err != nil {
		return v
	}
	return decoded
}

func formatDate(h mail.Header) string {
	if t, err := h.Date(); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return h.Get("Date")
}

func headerOr(h map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(h[key]); v != "" {
		return v
	}
	return fallback
}

// ExtractLinks returns the distinct href targets found in html, in order.
func ExtractLinks(html string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range hrefPattern.FindAllStringSubmatch(html, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

type walker struct {
	meta   *analysis.EmailMetadata
	seen   map[string]bool
	logger *zap.Logger
}

// walk visits one MIME entity. multipart.Reader decodes quoted-printable
// parts itself and drops their Content-Transfer-Encoding header.
func (w *walker) walk(h textproto.MIMEHeader, body io.Reader, depth int) {
	if depth > maxDepth {
		return
	}

	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}

	if isAttachment(h, mediaType, params) {
		w.meta.AttachmentCount++
		return
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			return
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				w.logger.Debug("Stopped reading malformed multipart body", zap.Error(err))
				return
			}
			w.walk(part.Header, part, depth+1)
		}

	case mediaType == "text/html":
		w.meta.HasHTML = true
		data, err := io.ReadAll(io.LimitReader(decodeTransfer(h, body), maxPartBytes))
		if err != nil && len(data) == 0 {
			w.logger.Debug("Failed to read html part", zap.Error(err))
			return
		}
		for _, link := range ExtractLinks(string(data)) {
			if !w.seen[link] {
				w.seen[link] = true
				w.meta.Links = append(w.meta.Links, link)
			}
		}
	}
}

func isAttachment(h textproto.MIMEHeader, mediaType string, params map[string]string) bool {
	if disp, dparams, err := mime.ParseMediaType(h.Get("Content-Disposition")); err == nil {
		if disp == "attachment" || dparams["filename"] != "" {
			return true
		}
	}
	if strings.HasPrefix(mediaType, "multipart/") || strings.HasPrefix(mediaType, "text/") {
		return params["name"] != ""
	}
	// images, documents, forwarded messages
	return true
}

func decodeTransfer(h textproto.MIMEHeader, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding"))) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	}
	return body
}
