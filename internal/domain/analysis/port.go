package analysis

import "context"

// Fetcher retrieves remote page content for a URL request.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*PageContent, error)
}

// EmailParser turns a raw transport-format message into metadata.
type EmailParser interface {
	Parse(raw string) (*EmailMetadata, error)
}

// Repository is the append-only record sink.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Paginate(ctx context.Context, page, pageSize int) ([]*Record, error)
}
