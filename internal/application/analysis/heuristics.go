package analysis

import (
	"strings"

	domain "github.com/bryanwahyu/datashield/internal/domain/analysis"
)

var (
	subjectKeywords = []string{"urgent", "password"}
	shortenerHints  = []string{"bit.ly", "tinyurl", "shortened"}
)

// rule is one independent heuristic over email metadata.
type rule struct {
	indicator string
	match     func(*domain.EmailMetadata) bool
}

// Rules run in this order; every matching rule appends its indicator once.
// Sender-domain reputation belongs here but emits nothing yet.
var rules = []rule{
	{indicator: domain.IndicatorSubjectKeywords, match: hasSubjectKeyword},
	{indicator: domain.IndicatorShortenedLinks, match: hasShortenedLink},
}

// ExtractIndicators evaluates every rule against meta. The result is never nil.
func ExtractIndicators(meta *domain.EmailMetadata) domain.Indicators {
	out := domain.Indicators{}
	if meta == nil {
		return out
	}
	for _, r := range rules {
		if r.match(meta) {
			out = append(out, r.indicator)
		}
	}
	return out
}

func hasSubjectKeyword(meta *domain.EmailMetadata) bool {
	return containsAny(strings.ToLower(meta.Subject), subjectKeywords)
}

func hasShortenedLink(meta *domain.EmailMetadata) bool {
	for _, link := range meta.Links {
		if containsAny(strings.ToLower(link), shortenerHints) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// AssessRisk buckets an indicator count. Both thresholds are strict.
func AssessRisk(count int) domain.RiskAssessment {
	risk := domain.RiskAssessment{Spam: domain.BucketLow, Phishing: domain.BucketLow}
	if count > 2 {
		risk.Spam = domain.BucketHigh
	}
	if count > 3 {
		risk.Phishing = domain.BucketHigh
	}
	return risk
}
