package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"TheraChat/internal/config"
	"TheraChat/internal/prompt"
)

// ErrorKind categorizes backend failures for logging.
type ErrorKind string

const (
	KindConnection      ErrorKind = "connection"
	KindTimeout         ErrorKind = "timeout"
	KindStatus          ErrorKind = "status"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindEmptyResponse   ErrorKind = "empty_response"
)

// ErrUnavailable matches every UnavailableError with errors.Is.
var ErrUnavailable = errors.New("model backend unavailable")

// ErrNotConfigured is returned by New when no backend is configured.
var ErrNotConfigured = errors.New("no model backend configured")

// UnavailableError is returned for any failed model call. Callers show a
// fixed apology instead of the error text.
type UnavailableError struct {
	Backend string
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s backend unavailable (%s): %s", e.Backend, e.Kind, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrUnavailable) true for every UnavailableError.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Request is one model turn.
type Request struct {
	System      string
	Payload     prompt.Payload
	Temperature float64
	MaxTokens   int
}

// Client is a model-inference backend.
type Client interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Options configures a backend client.
type Options struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Meter      metric.Meter
}

// New creates the client selected by cfg.
func New(cfg config.Config, opts Options) (Client, error) {
	if !cfg.BackendConfigured() {
		return nil, ErrNotConfigured
	}
	opts.BaseURL = cfg.BaseURL
	opts.Model = cfg.Model
	if opts.Timeout == 0 {
		opts.Timeout = cfg.Timeout.Duration
	}

	switch cfg.Backend {
	case config.BackendOllama:
		return NewOllama(opts), nil
	case config.BackendOpenAI:
		return NewOpenAI(opts), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}

// transport is the HTTP plumbing shared by the concrete clients.
type transport struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	duration   metric.Float64Histogram
}

func newTransport(name string, opts Options) transport {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(name)
	}
	meter := opts.Meter
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(name)
	}
	histogram, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		logger.Warn("failed to create histogram", "error", err)
		histogram, _ = metricnoop.NewMeterProvider().Meter(name).Float64Histogram("http.client.request.duration")
	}

	return transport{
		name:       name,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		tracer:     tracer,
		duration:   histogram,
	}
}

func (t transport) unavailable(kind ErrorKind, msg string, cause error) error {
	return &UnavailableError{Backend: t.name, Kind: kind, Message: msg, Cause: cause}
}

// do sends a JSON request and decodes a JSON response into out. body may be nil.
func (t transport) do(ctx context.Context, method, path string, body, out any) error {
	ctx, span := t.tracer.Start(ctx, t.name+"_api_call",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		))
	defer span.End()

	start := time.Now()
	err := t.roundTrip(ctx, method, path, body, out)

	elapsed := time.Since(start)
	t.duration.Record(ctx, float64(elapsed.Milliseconds()),
		metric.WithAttributes(attribute.String("backend", t.name), attribute.Bool("error", err != nil)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend request failed")
		t.logger.Warn("backend request failed", "backend", t.name, "path", path, "duration_ms", elapsed.Milliseconds(), "error", err)
		return err
	}
	t.logger.Debug("backend request", "backend", t.name, "path", path, "duration_ms", elapsed.Milliseconds())
	return nil
}

func (t transport) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return t.unavailable(KindConnection, "failed to create request", err)
	}
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return t.unavailable(KindTimeout, "request timed out", err)
		}
		return t.unavailable(KindConnection, "failed to send request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return t.unavailable(KindConnection, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return t.unavailable(KindStatus, fmt.Sprintf("API error: %s - %s", resp.Status, strings.TrimSpace(string(respBody))), nil)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return t.unavailable(KindInvalidResponse, "failed to unmarshal response", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
