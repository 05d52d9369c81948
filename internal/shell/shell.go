// Package shell holds the per-session UI state machine: the current
// analysis, its error, the bounded history and the idle preview.
package shell

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/franckalain/nutrilens/internal/analysis"
	"github.com/franckalain/nutrilens/internal/models"
)

// State is the phase of the current analysis.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateResult
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateResult:
		return "result"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrBusy is returned when an action would race the analysis in flight.
	ErrBusy = errors.New("an analysis is already in progress")
	// ErrUnknownEntry is returned when a history id is not in the session.
	ErrUnknownEntry = errors.New("history entry not found")
)

// Analyzer produces a nutrition report for an image or text query.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (*models.AnalysisResult, error)
}

// View is an immutable snapshot of the shell handed to the renderer.
type View struct {
	State        State                  `json:"state"`
	Loading      bool                   `json:"loading"`
	Result       *models.AnalysisResult `json:"result,omitempty"`
	Error        string                 `json:"error,omitempty"`
	InputImage   string                 `json:"inputImage,omitempty"`
	TextQuery    string                 `json:"textQuery"`
	History      []models.HistoryEntry  `json:"history"`
	ShowHistory  bool                   `json:"showHistory"`
	PreviewIndex int                    `json:"previewIndex"`
	Preview      FoodExample            `json:"preview"`
	ScrollToTop  bool                   `json:"scrollToTop,omitempty"`
}

// Renderer receives a snapshot after every transition. It is called with the
// shell locked and must not call back into the Shell.
type Renderer func(View)

// Option configures a Shell.
type Option func(*Shell)

// WithRenderer sets the callback that receives every new View.
func WithRenderer(r Renderer) Option {
	return func(s *Shell) {
		s.render = r
	}
}

// WithClock replaces time.Now for history ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Shell) {
		s.now = now
	}
}

// WithSessionID tags analyses with the owning session.
func WithSessionID(id string) Option {
	return func(s *Shell) {
		s.sessionID = id
	}
}

// Shell owns one user's state. Submissions are rejected while one is in
// flight, so results always belong to the latest accepted submission.
type Shell struct {
	analyzer  Analyzer
	render    Renderer
	now       func() time.Time
	sessionID string

	mu           sync.Mutex
	state        State
	result       *models.AnalysisResult
	errMsg       string
	inputImage   string
	textQuery    string
	history      *History
	showHistory  bool
	previewIndex int
	lastID       int64
}

// New creates an idle shell.
func New(analyzer Analyzer, opts ...Option) *Shell {
	s := &Shell{
		analyzer: analyzer,
		render:   func(View) {},
		now:      time.Now,
		history:  NewHistory(MaxHistory),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitImage analyzes a base64 image (data URI accepted) and blocks until it settles.
func (s *Shell) SubmitImage(ctx context.Context, image string) error {
	return s.submit(ctx, image, "")
}

// SubmitText analyzes a text query. A blank query is ignored.
func (s *Shell) SubmitText(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	return s.submit(ctx, "", query)
}

func (s *Shell) submit(ctx context.Context, image, query string) error {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = StateLoading
	s.errMsg = ""
	s.inputImage = image
	if query != "" {
		s.textQuery = query
	}
	s.emitLocked(false)
	s.mu.Unlock()

	result, err := s.analyzer.Analyze(ctx, analysis.Input{
		Image:     image,
		Text:      query,
		SessionID: s.sessionID,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateError
		s.result = nil
		s.errMsg = analysis.UserMessage(err)
		if s.errMsg == "" {
			s.errMsg = analysis.MessageUnexpected
		}
		s.emitLocked(false)
		return nil
	}

	now := s.now()
	s.state = StateResult
	s.result = result
	s.history.Prepend(models.HistoryEntry{
		ID:        s.nextIDLocked(now),
		Timestamp: now,
		Image:     image,
		Result:    result,
	})
	s.emitLocked(true)
	return nil
}

// Reset clears the result, error, input image and pending query.
func (s *Shell) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoading {
		return ErrBusy
	}
	s.state = StateIdle
	s.result = nil
	s.errMsg = ""
	s.inputImage = ""
	s.textQuery = ""
	s.emitLocked(false)
	return nil
}

// SelectHistory shows a past analysis without calling the analyzer.
func (s *Shell) SelectHistory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoading {
		return ErrBusy
	}
	entry, ok := s.history.Get(id)
	if !ok {
		return ErrUnknownEntry
	}
	s.state = StateResult
	s.result = entry.Result
	s.inputImage = entry.Image
	s.errMsg = ""
	s.showHistory = false
	s.emitLocked(false)
	return nil
}

// ClearHistory empties the history; the current view is kept.
func (s *Shell) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Clear()
	s.emitLocked(false)
}

// ToggleHistory opens or closes the history panel.
func (s *Shell) ToggleHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.showHistory = !s.showHistory
	s.emitLocked(false)
}

// SetTextQuery stores the query being typed.
func (s *Shell) SetTextQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.textQuery = query
	s.emitLocked(false)
}

// View returns a snapshot of the current state.
func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(false)
}

// RunPreview advances the idle preview every interval until ctx is done.
func (s *Shell) RunPreview(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.advancePreview()
		}
	}
}

func (s *Shell) advancePreview() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return
	}
	s.previewIndex = (s.previewIndex + 1) % len(FoodExamples)
	s.emitLocked(false)
}

// nextIDLocked derives an id from the clock, bumped to stay unique.
func (s *Shell) nextIDLocked(now time.Time) string {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *Shell) emitLocked(scrollToTop bool) {
	s.render(s.viewLocked(scrollToTop))
}

func (s *Shell) viewLocked(scrollToTop bool) View {
	return View{
		State:        s.state,
		Loading:      s.state == StateLoading,
		Result:       s.result,
		Error:        s.errMsg,
		InputImage:   s.inputImage,
		TextQuery:    s.textQuery,
		History:      s.history.Entries(),
		ShowHistory:  s.showHistory,
		PreviewIndex: s.previewIndex,
		Preview:      FoodExamples[s.previewIndex],
		ScrollToTop:  scrollToTop,
	}
}
