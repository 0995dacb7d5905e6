package postgres

import (
	"encoding/json"
	"strings"

	domain "github.com/bryanwahyu/datashield/internal/domain/analysis"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func encodeIndicators(in domain.Indicators) (string, error) {
	if in == nil {
		in = domain.Indicators{}
	}
	b, err := json.Marshal(in)
	return string(b), err
}

func decodeIndicators(raw []byte) (domain.Indicators, error) {
	if len(raw) == 0 {
		return domain.Indicators{}, nil
	}
	var out domain.Indicators
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
