package analysis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/datashield/internal/application"
	"github.com/bryanwahyu/datashield/internal/domain/ai"
	domain "github.com/bryanwahyu/datashield/internal/domain/analysis"
	"github.com/bryanwahyu/datashield/internal/infra/ai/prompt"
)

// Service runs the analysis pipeline: enrich, compose, classify, record.
// Each call is sequential and independent; Service is safe for concurrent use.
type Service struct {
	Fetcher    domain.Fetcher
	Parser     domain.EmailParser
	Classifier ai.Client
	Repo       domain.Repository
	Composer   *prompt.Composer
	Clock      application.Clock
	Logger     *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

// AnalyzeURL fetches the page behind req.URL and asks the classifier for a verdict.
// req must already be validated.
func (s *Service) AnalyzeURL(ctx context.Context, req domain.Request) (*domain.URLResult, error) {
	if req.Kind != domain.KindURL || req.URL == "" {
		return nil, domain.Errorf(domain.KindInvalidInput, "", "url is required")
	}
	log := s.logger().With(
		zap.String("kind", string(domain.KindURL)),
		zap.String("url", req.URL),
		zap.String("caller", req.CallerAddress),
	)

	page, err := s.Fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, s.fail(log, err)
	}

	p := s.Composer.ComposeURL(req.URL, page)
	verdict, err := s.Classifier.Classify(ctx, p)
	if err != nil {
		return nil, s.fail(log, err)
	}

	now := s.clock().Now()
	rec := &domain.Record{
		ID:            domain.RecordID(uuid.NewString()),
		Kind:          domain.KindURL,
		Input:         req.URL,
		Summary:       fmt.Sprintf("status=%d title=%q final=%s", page.StatusCode, page.Title, page.FinalURL),
		Verdict:       verdict,
		CallerAddress: req.CallerAddress,
		CreatedAt:     now,
	}

	return &domain.URLResult{
		URL:       req.URL,
		Page:      page,
		Verdict:   verdict,
		Timestamp: now,
		Recorded:  s.record(ctx, log, rec),
	}, nil
}

// AnalyzeEmail parses the raw message, runs the heuristics and asks the
// classifier for a verdict.
func (s *Service) AnalyzeEmail(ctx context.Context, req domain.Request) (*domain.EmailResult, error) {
	if req.Kind != domain.KindEmail || req.RawEmail == "" {
		return nil, domain.Errorf(domain.KindInvalidInput, "", "emailContent is required")
	}
	log := s.logger().With(
		zap.String("kind", string(domain.KindEmail)),
		zap.Int("size", len(req.RawEmail)),
		zap.String("caller", req.CallerAddress),
	)

	meta, err := s.Parser.Parse(req.RawEmail)
	if err != nil {
		return nil, s.fail(log, err)
	}
	log = log.With(zap.String("from", meta.From), zap.String("subject", meta.Subject))

	indicators := ExtractIndicators(meta)
	risk := AssessRisk(len(indicators))

	p := s.Composer.ComposeEmail(meta, indicators)
	verdict, err := s.Classifier.Classify(ctx, p)
	if err != nil {
		return nil, s.fail(log, err)
	}

	now := s.clock().Now()
	rec := &domain.Record{
		ID:            domain.RecordID(uuid.NewString()),
		Kind:          domain.KindEmail,
		Input:         fmt.Sprintf("From: %s | Subject: %s", meta.From, meta.Subject),
		Summary:       fmt.Sprintf("links=%d attachments=%d html=%t", len(meta.Links), meta.AttachmentCount, meta.HasHTML),
		Indicators:    indicators,
		Verdict:       verdict,
		CallerAddress: req.CallerAddress,
		CreatedAt:     now,
	}

	return &domain.EmailResult{
		Metadata:   meta,
		Indicators: indicators,
		Risk:       risk,
		Verdict:    verdict,
		Timestamp:  now,
		Recorded:   s.record(ctx, log, rec),
	}, nil
}

// List returns one page of records, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (*domain.Page, error) {
	records, err := s.Repo.Paginate(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*domain.Record{}
	}
	return &domain.Page{Data: records, Page: page, PageSize: pageSize}, nil
}

func (s *Service) fail(log *zap.Logger, err error) error {
	log.Error("analysis failed",
		zap.String("error_kind", string(domain.KindOf(err))),
		zap.Error(err),
	)
	return err
}

// record saves rec and reports whether it was stored. A failed save never
// hides the verdict from the caller.
func (s *Service) record(ctx context.Context, log *zap.Logger, rec *domain.Record) bool {
	if err := s.Repo.Save(ctx, rec); err != nil {
		log.Error("failed to record analysis",
			zap.String("record_id", string(rec.ID)),
			zap.String("error_kind", string(domain.KindPersistenceFailed)),
			zap.Error(err),
		)
		return false
	}
	return true
}
