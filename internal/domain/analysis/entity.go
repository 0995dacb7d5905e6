package analysis

import "time"

// Kind discriminates the two request variants.
type Kind string

const (
	KindURL   Kind = "url"
	KindEmail Kind = "email"
)

// Request is the validated input of one pipeline run. Exactly one of URL or
// RawEmail is set, matching Kind.
type Request struct {
	Kind          Kind
	URL           string
	RawEmail      string
	CallerAddress string
}

// NewURLRequest builds a URL-kind request.
func NewURLRequest(rawURL, caller string) Request {
	return Request{Kind: KindURL, URL: rawURL, CallerAddress: caller}
}

// NewEmailRequest builds an email-kind request.
func NewEmailRequest(raw, caller string) Request {
	return Request{Kind: KindEmail, RawEmail: raw, CallerAddress: caller}
}

// PageContent is the enrichment of a URL request.
type PageContent struct {
	FinalURL    string `json:"finalUrl"`
	StatusCode  int    `json:"statusCode"`
	ContentType string `json:"contentType,omitempty"`
	Title       string `json:"title,omitempty"`
	Text        string `json:"text,omitempty"`
	FetchedBody string `json:"-"`
}

// Fallback values for authentication headers that are absent.
const (
	NotAvailable = "Not available"
	NotPresent   = "Not present"
	Present      = "Present"
)

// EmailMetadata is the enrichment of an email request.
type EmailMetadata struct {
	From            string            `json:"from"`
	Subject         string            `json:"subject"`
	Date            string            `json:"date"`
	Headers         map[string]string `json:"headers"`
	AttachmentCount int               `json:"attachments"`
	HasHTML         bool              `json:"hasHtml"`
	Links           []string          `json:"links"`
	SPFResult       string            `json:"spfResult"`
	DKIMResult      string            `json:"dkimResult"`
	ReturnPath      string            `json:"returnPath"`
}

// Indicator codes emitted by the heuristic extractor.
const (
	IndicatorSubjectKeywords = "Suspicious subject keywords"
	IndicatorShortenedLinks  = "Shortened URLs detected"
)

// Indicators lists heuristic findings in discovery order.
type Indicators []string

// Bucket is a coarse two-level risk level.
type Bucket string

const (
	BucketHigh Bucket = "High"
	BucketLow  Bucket = "Low"
)

// RiskAssessment is derived from the indicator count only.
type RiskAssessment struct {
	Spam     Bucket `json:"spam"`
	Phishing Bucket `json:"phishing"`
}

// RecordID identifier type
type RecordID string

// Record is the persisted, append-only trace of one successful run.
type Record struct {
	ID            RecordID   `json:"id"`
	Kind          Kind       `json:"kind"`
	Input         string     `json:"input"`
	Summary       string     `json:"summary,omitempty"`
	Indicators    Indicators `json:"indicators,omitempty"`
	Verdict       string     `json:"verdict"`
	CallerAddress string     `json:"callerAddress"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// URLResult is the outcome of the URL pipeline.
type URLResult struct {
	URL       string
	Page      *PageContent
	Verdict   string
	Timestamp time.Time
	Recorded  bool
}

// EmailResult is the outcome of the email pipeline.
type EmailResult struct {
	Metadata   *EmailMetadata
	Indicators Indicators
	Risk       RiskAssessment
	Verdict    string
	Timestamp  time.Time
	Recorded   bool
}
