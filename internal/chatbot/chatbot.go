package chatbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"TheraChat/internal/backend"
	"TheraChat/internal/config"
	"TheraChat/internal/crisis"
	"TheraChat/internal/export"
	"TheraChat/internal/prompt"
	"TheraChat/internal/session"
)

// CrisisReply is sent instead of a model reply when a crisis phrase is found.
const CrisisReply = "I'm really sorry you're feeling this way. If you are in immediate danger, please contact local emergency services now " +
	"(for example, 112 in India or 911 in the US). If you can, reach out to someone you trust or a local crisis hotline. " +
	"Would you like me to provide some grounding steps you can try right now, or resources to contact a professional?"

// ApologyReply is shown when the model backend cannot be reached.
const ApologyReply = "Sorry, I couldn't reach the language model backend right now. " +
	"Please check that your model server is running and try again."

// SummaryRequest is the user turn appended by Summarize.
const SummaryRequest = "Please produce a short, clear 2-3 sentence summary of your last reply."

var (
	ErrNoBackend    = errors.New("sending is disabled: no model backend configured")
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoReply      = errors.New("there is no assistant reply to summarize yet")
)

// Outcome says how a turn was answered.
type Outcome int

const (
	OutcomeModel Outcome = iota
	OutcomeCrisis
	OutcomeApology
)

func (o Outcome) String() string {
	switch o {
	case OutcomeModel:
		return "model"
	case OutcomeCrisis:
		return "crisis"
	case OutcomeApology:
		return "apology"
	default:
		return "unknown"
	}
}

// Reply is the assistant message appended for one turn.
type Reply struct {
	Message session.Message
	Outcome Outcome
}

// ChatBot represents the main application
type ChatBot struct {
	config       config.Config
	client       backend.Client // nil when no backend is configured
	transcript   *session.Transcript
	lastResponse string

	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
	now    func() time.Time

	in  io.Reader
	out io.Writer

	turns         metric.Int64Counter
	crisisFlags   metric.Int64Counter
	backendErrors metric.Int64Counter
}

// Option customizes a ChatBot.
type Option func(*ChatBot)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cb *ChatBot) { cb.logger = l }
}

// WithTelemetry sets the tracer and meter.
func WithTelemetry(tracer trace.Tracer, meter metric.Meter) Option {
	return func(cb *ChatBot) {
		cb.tracer = tracer
		cb.meter = meter
	}
}

// WithIO sets the terminal streams used by Run.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(cb *ChatBot) {
		cb.in = in
		cb.out = out
	}
}

// WithClock sets the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(cb *ChatBot) { cb.now = now }
}

// NewChatBot creates a new ChatBot instance. A nil client puts the bot in
// the "no backend configured" state where sending is disabled.
func NewChatBot(cfg config.Config, client backend.Client, opts ...Option) *ChatBot {
	cb := &ChatBot{
		config:     cfg,
		client:     client,
		transcript: session.NewTranscript(),
		logger:     slog.Default(),
		tracer:     tracenoop.NewTracerProvider().Tracer("therachat"),
		meter:      metricnoop.NewMeterProvider().Meter("therachat"),
		now:        time.Now,
		in:         os.Stdin,
		out:        os.Stdout,
	}
	for _, opt := range opts {
		opt(cb)
	}

	cb.turns = cb.counter("therachat.turns", "Conversation turns by outcome")
	cb.crisisFlags = cb.counter("therachat.crisis.detected", "Messages flagged by crisis detection")
	cb.backendErrors = cb.counter("therachat.backend.errors", "Failed model backend calls")

	backendName := config.BackendNone
	if client != nil {
		backendName = client.Name()
	}
	cb.logger.Info("created new session", "session_id", cb.transcript.ID, "backend", backendName)
	return cb
}

func (cb *ChatBot) counter(name, desc string) metric.Int64Counter {
	c, err := cb.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		cb.logger.Warn("failed to create counter", "name", name, "error", err)
		c, _ = metricnoop.NewMeterProvider().Meter("therachat").Int64Counter(name)
	}
	return c
}

// SendEnabled reports whether a model backend is configured.
func (cb *ChatBot) SendEnabled() bool {
	return cb.client != nil
}

// Transcript returns a copy of the conversation so far.
func (cb *ChatBot) Transcript() []session.Message {
	return cb.transcript.Messages()
}

// SessionID returns the current session ID.
func (cb *ChatBot) SessionID() string {
	return cb.transcript.ID
}

// Send records a user message and answers it. Crisis messages get the
// fixed safety reply without calling the model; backend failures get the
// apology reply. Neither is returned as an error.
func (cb *ChatBot) Send(ctx context.Context, text string) (Reply, error) {
	if !cb.SendEnabled() {
		return Reply{}, ErrNoBackend
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	now := cb.now()
	cb.transcript.Append(session.NewMessage(session.RoleUser, text, now))

	if label, ok := crisis.Match(text); ok {
		cb.crisisFlags.Add(ctx, 1)
		cb.logger.Warn("crisis phrase detected, skipping model", "session_id", cb.transcript.ID, "phrase", label)
		reply := session.NewMessage(session.RoleAssistant, CrisisReply, now)
		cb.transcript.Append(reply)
		cb.recordTurn(ctx, OutcomeCrisis)
		return Reply{Message: reply, Outcome: OutcomeCrisis}, nil
	}

	return cb.respond(ctx)
}

// Summarize asks the model to summarize its last reply.
func (cb *ChatBot) Summarize(ctx context.Context) (Reply, error) {
	if !cb.SendEnabled() {
		return Reply{}, ErrNoBackend
	}
	if cb.lastResponse == "" {
		return Reply{}, ErrNoReply
	}
	cb.transcript.Append(session.NewMessage(session.RoleUser, SummaryRequest, cb.now()))
	return cb.respond(ctx)
}

// respond sends the transcript, whose last message is the current user
// turn, to the model and appends the answer.
func (cb *ChatBot) respond(ctx context.Context) (Reply, error) {
	ctx, span := cb.tracer.Start(ctx, "chat_turn",
		trace.WithAttributes(attribute.String("session.id", cb.transcript.ID)))
	defer span.End()

	payload, err := prompt.BuildPayload(cb.transcript.Messages())
	if err != nil {
		return Reply{}, fmt.Errorf("failed to build payload: %w", err)
	}

	start := time.Now()
	text, err := cb.client.Generate(ctx, backend.Request{
		System:      prompt.SystemInstructions,
		Payload:     payload,
		Temperature: cb.config.Temperature,
		MaxTokens:   cb.config.MaxTokens,
	})

	outcome := OutcomeModel
	if err != nil {
		cb.backendErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("backend", cb.client.Name())))
		cb.logger.Error("failed to get model reply",
			"session_id", cb.transcript.ID,
			"backend", cb.client.Name(),
			"unavailable", errors.Is(err, backend.ErrUnavailable),
			"error", err)
		span.RecordError(err)
		text = ApologyReply
		outcome = OutcomeApology
	} else {
		cb.lastResponse = text
		cb.logger.Info("model replied",
			"session_id", cb.transcript.ID,
			"backend", cb.client.Name(),
			"history_chars", len(payload.HistoryText),
			"reply_chars", len(text),
			"duration_ms", time.Since(start).Milliseconds())
	}

	reply := session.NewMessage(session.RoleAssistant, text, cb.now())
	cb.transcript.Append(reply)
	cb.recordTurn(ctx, outcome)
	return Reply{Message: reply, Outcome: outcome}, nil
}

func (cb *ChatBot) recordTurn(ctx context.Context, outcome Outcome) {
	cb.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
}

// Reset clears the conversation.
func (cb *ChatBot) Reset() {
	cb.transcript.Clear()
	cb.lastResponse = ""
	cb.logger.Info("conversation reset", "session_id", cb.transcript.ID)
}

// CanSummarize reports whether there is a model reply to summarize.
func (cb *ChatBot) CanSummarize() bool {
	return cb.SendEnabled() && cb.lastResponse != ""
}

// Export writes the transcript to path, or to the configured export path
// when path is empty.
func (cb *ChatBot) Export(path string) (string, error) {
	if path == "" {
		path = cb.config.ExportPath
	}
	written, err := export.ToFile(path, cb.transcript.Messages())
	if err != nil {
		return "", err
	}
	cb.logger.Info("conversation exported", "session_id", cb.transcript.ID, "path", written, "message_count", cb.transcript.Len())
	return written, nil
}

// ListModels lists the models offered by the backend.
func (cb *ChatBot) ListModels(ctx context.Context) ([]string, error) {
	if !cb.SendEnabled() {
		return nil, ErrNoBackend
	}
	return cb.client.ListModels(ctx)
}

// SetTemperature changes the sampling temperature for later turns.
func (cb *ChatBot) SetTemperature(v float64) error {
	if err := config.ValidateTemperature(v); err != nil {
		return err
	}
	cb.config.Temperature = v
	return nil
}

// SetMaxTokens changes the reply token limit for later turns.
func (cb *ChatBot) SetMaxTokens(n int) error {
	if err := config.ValidateMaxTokens(n); err != nil {
		return err
	}
	cb.config.MaxTokens = n
	return nil
}

// Settings returns the current temperature and max token limit.
func (cb *ChatBot) Settings() (float64, int) {
	return cb.config.Temperature, cb.config.MaxTokens
}
