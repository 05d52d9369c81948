// Package analysis turns a food photo or text query into a validated
// nutrition report by calling the configured generative model.
package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/franckalain/nutrilens/internal/metrics"
	"github.com/franckalain/nutrilens/internal/ml"
	"github.com/franckalain/nutrilens/internal/models"
	"github.com/google/uuid"
)

// Journal records the outcome of every model call.
type Journal interface {
	SaveAnalysisRecord(ctx context.Context, rec *models.AnalysisRecord) error
}

// Input is a single analysis request. At least one of Image or Text must be set.
type Input struct {
	// Image is base64, optionally prefixed with a data URI header.
	Image string
	Text  string

	// SessionID tags the journal record; it is not sent to the model.
	SessionID string
}

// Client calls the model once per Analyze; it keeps no state between calls.
type Client struct {
	model   ml.Model
	journal Journal
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithJournal records every call outcome in j.
func WithJournal(j Journal) Option {
	return func(c *Client) {
		c.journal = j
	}
}

// NewClient creates a client for an already loaded model.
func NewClient(model ml.Model, opts ...Option) *Client {
	c := &Client{
		model: model,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze sends the input to the model and returns the parsed report.
// Missing or undecodable input fails before the model is called.
func (c *Client) Analyze(ctx context.Context, in Input) (*models.AnalysisResult, error) {
	text := strings.TrimSpace(in.Text)
	if in.Image == "" && text == "" {
		return nil, ErrNoInput
	}

	prompt, err := buildPrompt(in.Image, text)
	if err != nil {
		return nil, err
	}

	source := "text"
	if prompt.Image != nil {
		source = "image"
	}
	logger := log.WithFields(log.Fields{
		"source":  source,
		"session": in.SessionID,
	})

	start := c.now()
	result, err := c.generate(ctx, prompt)
	elapsed := c.now().Sub(start)

	if err != nil {
		var e *Error
		errors.As(err, &e)
		logger.WithError(e.Err).WithField("kind", e.Kind.String()).Error("Food analysis failed")
		metrics.ObserveAnalysis(source, e.Kind.String(), elapsed)
	} else {
		logger.WithFields(log.Fields{
			"food":     result.FoodName,
			"calories": result.Calories,
			"elapsed":  elapsed.String(),
		}).Info("Food analysis completed")
		metrics.ObserveAnalysis(source, "completed", elapsed)
	}

	c.record(ctx, in, source, text, result, err, elapsed)
	return result, err
}

func (c *Client) generate(ctx context.Context, prompt *ml.Prompt) (*models.AnalysisResult, error) {
	text, err := c.model.Generate(ctx, prompt)
	if err != nil {
		return nil, &Error{Kind: KindUpstream, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Kind: KindEmptyResponse, Err: errors.New("model returned no content")}
	}

	result, err := models.ParseAnalysisResult([]byte(text))
	if err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Err: err}
	}
	return result, nil
}

func (c *Client) record(ctx context.Context, in Input, source, text string, result *models.AnalysisResult, err error, elapsed time.Duration) {
	if c.journal == nil {
		return
	}

	rec := &models.AnalysisRecord{
		ID:        uuid.New().String(),
		SessionID: in.SessionID,
		Source:    source,
		Query:     text,
		Status:    "completed",
		Duration:  elapsed,
		CreatedAt: c.now(),
	}
	if result != nil {
		rec.FoodName = result.FoodName
		rec.Calories = result.Calories
		rec.HealthScore = result.HealthScore
	}
	var e *Error
	if errors.As(err, &e) {
		rec.Status = "failed"
		rec.Error = e.Kind.String()
	}

	// The journal must outlive a cancelled request context
	if saveErr := c.journal.SaveAnalysisRecord(context.WithoutCancel(ctx), rec); saveErr != nil {
		log.WithError(saveErr).WithField("record", rec.ID).Warn("Failed to journal analysis")
	}
}
