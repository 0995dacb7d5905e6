package prompt

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/datashield/internal/domain/ai"
	"github.com/bryanwahyu/datashield/internal/domain/analysis"
)

const truncatedMarker = "\n[... content truncated ...]"

// GetURLSystemPrompt fixes the task and answer format for URL analysis.
func GetURLSystemPrompt() string {
	return `You are a phishing and scam analyst. You will read a URL and the content fetched from that page and estimate the chance that it is a phishing or scam page.
Analyze the content before answering.
Answer format:
- Start with the percentage chance of phishing, e.g. "85% phishing".
- Follow with a summary of at most 50 characters.
- No markdown, no extra lines.`
}

// GetEmailSystemPrompt fixes the task and answer format for email analysis.
func GetEmailSystemPrompt() string {
	return `You are an email security analyst. You will read the metadata of an email, the links it contains and locally detected security indicators, and estimate the chance that it is spam or phishing.
Analyze the data before answering.
Answer format:
- Give the percentage chance of spam and of phishing, e.g. "spam 40%, phishing 90%".
- Follow with an explanation of at most 50 characters.
- No markdown, no extra lines.`
}

// Composer builds deterministic prompts; it has no failure mode.
type Composer struct {
	MaxContentChars int
}

func NewComposer(maxContentChars int) *Composer {
	return &Composer{MaxContentChars: maxContentChars}
}

// ComposeURL serializes the URL and its fetched page as plain text.
func (c *Composer) ComposeURL(rawURL string, page *analysis.PageContent) ai.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "url: %s\n", rawURL)
	if page != nil {
		if page.FinalURL != "" && page.FinalURL != rawURL {
			fmt.Fprintf(&b, "final url: %s\n", page.FinalURL)
		}
		fmt.Fprintf(&b, "http status: %d\n", page.StatusCode)
		if page.Title != "" {
			fmt.Fprintf(&b, "title: %s\n", page.Title)
		}
		fmt.Fprintf(&b, "content: %s\n", TruncateText(page.Text, c.MaxContentChars))
	}

	return ai.Prompt{System: GetURLSystemPrompt(), User: b.String()}
}

// ComposeEmail dumps the metadata and indicators as a structured text block.
func (c *Composer) ComposeEmail(meta *analysis.EmailMetadata, indicators analysis.Indicators) ai.Prompt {
	var b strings.Builder
	b.WriteString("Email metadata:\n")
	fmt.Fprintf(&b, "from: %s\n", meta.From)
	fmt.Fprintf(&b, "subject: %s\n", meta.Subject)
	fmt.Fprintf(&b, "date: %s\n", meta.Date)
	fmt.Fprintf(&b, "return-path: %s\n", meta.ReturnPath)
	fmt.Fprintf(&b, "spf: %s\n", meta.SPFResult)
	fmt.Fprintf(&b, "dkim: %s\n", meta.DKIMResult)
	fmt.Fprintf(&b, "attachments: %d\n", meta.AttachmentCount)
	fmt.Fprintf(&b, "has html: %t\n", meta.HasHTML)

	b.WriteString("links:\n")
	if len(meta.Links) == 0 {
		b.WriteString("- none\n")
	}
	for _, l := range meta.Links {
		fmt.Fprintf(&b, "- %s\n", l)
	}

	b.WriteString("security indicators:\n")
	if len(indicators) == 0 {
		b.WriteString("- none\n")
	}
	for _, ind := range indicators {
		fmt.Fprintf(&b, "- %s\n", ind)
	}

	if len(meta.Headers) > 0 {
		b.WriteString("headers:\n")
		keys := make([]string, 0, len(meta.Headers))
		for k := range meta.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var hb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&hb, "%s: %s\n", k, meta.Headers[k])
		}
		b.WriteString(TruncateText(hb.String(), c.MaxContentChars))
	}

	return ai.Prompt{System: GetEmailSystemPrompt(), User: b.String()}
}

// TruncateText cuts text to at most maxSize bytes on a rune boundary.
// maxSize <= 0 disables truncation.
func TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	return truncated + truncatedMarker
}
