package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/datashield/internal/domain/analysis"
	"github.com/bryanwahyu/datashield/internal/middleware"
)

// Analyzer is the pipeline behind the analysis routes.
type Analyzer interface {
	AnalyzeURL(ctx context.Context, req analysis.Request) (*analysis.URLResult, error)
	AnalyzeEmail(ctx context.Context, req analysis.Request) (*analysis.EmailResult, error)
	List(ctx context.Context, page, pageSize int) (*analysis.Page, error)
}

type Options struct {
	Logger       *zap.Logger
	Limiter      *middleware.RateLimiter
	Checkers     map[string]middleware.HealthChecker
	APIKeys      map[string]string
	CORSOrigins  []string
	TrustProxy   bool
	MaxBodyBytes int64
}

const banner = "Datashield phishing & spam analysis API is running\n"

// RecordedHeader tells the caller whether the verdict was persisted.
const RecordedHeader = "X-Analysis-Recorded"

type Router struct {
	svc    Analyzer
	logger *zap.Logger
	opts   Options
}

func NewRouter(svc Analyzer, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	r := &Router{svc: svc, logger: opts.Logger, opts: opts}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	if opts.TrustProxy {
		mux.Use(chimw.RealIP)
	}
	mux.Use(middleware.LoggingMiddleware(opts.Logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.Recover(opts.Logger))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{RecordedHeader, "Retry-After", "X-Request-ID"},
		MaxAge:         300,
	}))
	if opts.Limiter != nil {
		mux.Use(middleware.RateLimitMiddleware(opts.Limiter))
	}

	mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "NotFound", "route "+req.URL.Path+" not found")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", req.Method+" not allowed on "+req.URL.Path)
	})

	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(banner))
	})
	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler(opts.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Group(func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		rt.Post("/analyze-url", r.wrap(r.handleAnalyzeURL))
		rt.Post("/analyze-email", r.wrap(r.handleAnalyzeEmail))
		rt.Get("/analyses", r.wrap(r.handleListAnalyses))
		// legacy popup endpoint
		rt.Post("/analisar-url", r.wrap(r.handleAnalisarURL))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		kind := analysis.KindOf(err)
		switch kind {
		case analysis.KindClassifierUnavailable, analysis.KindClassifierResponseMalformed:
			middleware.IncrementClassifierFailures()
		}

		if analysis.IsClientError(err) {
			middleware.WriteError(w, http.StatusBadRequest, string(kind), err.Error())
			return
		}
		if kind == "" {
			r.logger.Error("unhandled error",
				zap.String("path", req.URL.Path),
				zap.String("request_id", chimw.GetReqID(req.Context())),
				zap.Error(err))
			middleware.WriteError(w, http.StatusInternalServerError, "InternalError", "internal server error")
			return
		}
		middleware.WriteError(w, http.StatusInternalServerError, string(kind), err.Error())
	}
}

// decodeBody reads a bounded JSON body into v. An empty body leaves v zero so
// the field checks report what is missing.
func (r *Router) decodeBody(w http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxBodyBytes)
	err := json.NewDecoder(req.Body).Decode(v)

	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &tooLarge):
		return analysis.Errorf(analysis.KindInvalidInput, "", "request body exceeds %d bytes", tooLarge.Limit)
	default:
		return analysis.Errorf(analysis.KindInvalidInput, "", "invalid JSON body: %v", err)
	}
}

// pipelineContext keeps the pipeline running when the caller disconnects;
// each outbound call carries its own timeout.
func pipelineContext(req *http.Request) context.Context {
	return context.WithoutCancel(req.Context())
}

func setRecorded(w http.ResponseWriter, recorded bool) {
	w.Header().Set(RecordedHeader, strconv.FormatBool(recorded))
	if !recorded {
		middleware.IncrementPersistenceFailures()
	}
}

type urlResponse struct {
	URL       string    `json:"url"`
	Analysis  string    `json:"analysis"`
	Timestamp time.Time `json:"timestamp"`
	Resultado string    `json:"resultado,omitempty"`
}

func (r *Router) analyzeURL(w http.ResponseWriter, req *http.Request) (*analysis.URLResult, error) {
	var body struct {
		URL string `json:"url"`
	}
	if err := r.decodeBody(w, req, &body); err != nil {
		return nil, err
	}

	rawURL := middleware.SanitizeString(body.URL)
	if err := middleware.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	res, err := r.svc.AnalyzeURL(pipelineContext(req), analysis.NewURLRequest(rawURL, middleware.ClientIP(req)))
	if err != nil {
		return nil, err
	}
	middleware.IncrementURLAnalyses()
	setRecorded(w, res.Recorded)
	return res, nil
}

// POST /analyze-url
// Body: {"url": "https://..."}
func (r *Router) handleAnalyzeURL(w http.ResponseWriter, req *http.Request) error {
	res, err := r.analyzeURL(w, req)
	if err != nil {
		return err
	}
	return middleware.WriteJSON(w, http.StatusOK, urlResponse{
		URL:       res.URL,
		Analysis:  res.Verdict,
		Timestamp: res.Timestamp,
	})
}

// POST /analisar-url, same as /analyze-url plus the old "resultado" field.
func (r *Router) handleAnalisarURL(w http.ResponseWriter, req *http.Request) error {
	res, err := r.analyzeURL(w, req)
	if err != nil {
		return err
	}
	return middleware.WriteJSON(w, http.StatusOK, urlResponse{
		URL:       res.URL,
		Analysis:  res.Verdict,
		Timestamp: res.Timestamp,
		Resultado: res.Verdict,
	})
}

type emailAnalysis struct {
	Metadata           *analysis.EmailMetadata `json:"metadata"`
	SecurityIndicators analysis.Indicators     `json:"securityIndicators"`
	AIAnalysis         string                  `json:"aiAnalysis"`
	RiskAssessment     analysis.RiskAssessment `json:"riskAssessment"`
}

type emailResponse struct {
	Analysis  emailAnalysis `json:"analysis"`
	Timestamp time.Time     `json:"timestamp"`
}

// POST /analyze-email
// Body: {"emailContent": "<raw RFC 5322 message>"}
func (r *Router) handleAnalyzeEmail(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		EmailContent string `json:"emailContent"`
	}
	if err := r.decodeBody(w, req, &body); err != nil {
		return err
	}

	raw := middleware.SanitizeString(body.EmailContent)
	if err := middleware.ValidateRequired("emailContent", raw); err != nil {
		return err
	}

	res, err := r.svc.AnalyzeEmail(pipelineContext(req), analysis.NewEmailRequest(raw, middleware.ClientIP(req)))
	if err != nil {
		return err
	}
	middleware.IncrementEmailAnalyses()
	setRecorded(w, res.Recorded)

	return middleware.WriteJSON(w, http.StatusOK, emailResponse{
		Analysis: emailAnalysis{
			Metadata:           res.Metadata,
			SecurityIndicators: res.Indicators,
			AIAnalysis:         res.Verdict,
			RiskAssessment:     res.Risk,
		},
		Timestamp: res.Timestamp,
	})
}

// GET /analyses?page=&page_size=
func (r *Router) handleListAnalyses(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.List(req.Context(), middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return middleware.WriteJSON(w, http.StatusOK, list)
}
