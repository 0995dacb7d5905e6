package analysis

// Page is one page of persisted records, newest first.
type Page struct {
	Data     []*Record `json:"data"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}
