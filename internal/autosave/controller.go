// Package autosave implements the per-editor debounce state machine deciding
// when a pending edit becomes a persisted write.
//
// One Controller owns one open document editor session. Keystroke-level edits
// land in an in-memory buffer and re-arm a quiet-period timer; when the timer
// fires (or a manual save is issued) the buffer is compared against the last
// persisted snapshot and written only if it differs. The buffer survives
// failed writes, so typed text is never discarded.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillapp/quill/internal/domain"
)

// DefaultDebounce is the quiet period after the last edit before a flush.
const DefaultDebounce = 3 * time.Second

// State of one editor session.
type State int

const (
	// Clean: no unsaved edits.
	Clean State = iota
	// Pending: an edit occurred; the debounce timer is armed (or a failed
	// write left the buffer dirty).
	Pending
	// Saving: a write is in flight.
	Saving
	// Saved: the last write completed and no edit has arrived since.
	Saved
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Pending:
		return "pending"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	default:
		return "unknown"
	}
}

// Saver persists one editor flush. *sync.DocumentSyncer satisfies it.
type Saver interface {
	Update(ctx context.Context, id string, patch domain.DocumentPatch) (domain.Document, error)
}

// Controller is the autosave state machine for one open document.
//
// The controller holds the only copy of unsaved text: it never re-reads the
// document from a cache after construction, so a remote update arriving while
// the editor is open does not disturb what the user is typing. The next flush
// overwrites the remote version (last local write wins).
type Controller struct {
	saver     Saver
	docID     string
	sessionID string
	debounce  time.Duration
	clock     Clock
	logger    *slog.Logger
	onState   func(State)
	onError   func(error)

	mu               sync.Mutex
	state            State
	timer            Timer
	pendingTitle     string
	pendingContent   string
	persistedTitle   string
	persistedContent string
	lastSavedAt      time.Time
	inFlight         bool
	pendingFlush     bool
	closed           bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce overrides the quiet-period duration.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithClock substitutes the timer source.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithStateListener registers fn to run after every state transition.
// fn is called outside the controller lock.
func WithStateListener(fn func(State)) Option {
	return func(c *Controller) { c.onState = fn }
}

// WithErrorListener registers fn to run when a flush fails.
func WithErrorListener(fn func(error)) Option {
	return func(c *Controller) { c.onError = fn }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New opens an editor session over doc. The document's current title and
// content become both the persisted snapshot and the initial buffer.
func New(saver Saver, doc domain.Document, opts ...Option) *Controller {
	c := &Controller{
		saver:            saver,
		docID:            doc.ID,
		sessionID:        uuid.NewString(),
		debounce:         DefaultDebounce,
		clock:            SystemClock,
		logger:           slog.Default(),
		state:            Clean,
		pendingTitle:     doc.Title,
		pendingContent:   doc.Content,
		persistedTitle:   doc.Title,
		persistedContent: doc.Content,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("document_id", doc.ID, "session_id", c.sessionID)
	return c
}

// DocumentID returns the document this session edits.
func (c *Controller) DocumentID() string { return c.docID }

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastSavedAt returns when the last successful flush completed, zero if none.
func (c *Controller) LastSavedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSavedAt
}

// Buffer returns the current unsaved title and content.
func (c *Controller) Buffer() (title, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingTitle, c.pendingContent
}

// Edit records a keystroke-level change to title and content, replacing the
// buffer wholesale and re-arming the debounce timer. Later edits within the
// window coalesce: only the final buffer is ever written.
func (c *Controller) Edit(title, content string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.pendingTitle = title
	c.pendingContent = content

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.clock.AfterFunc(c.debounce, c.timerFired)

	notify := c.setStateLocked(Pending)
	c.mu.Unlock()

	notify()
}

// timerFired is the debounce callback.
func (c *Controller) timerFired() {
	c.flush(context.Background())
}

// SaveNow flushes immediately, skipping any remaining debounce wait. A no-op
// flush (buffer equals the persisted snapshot) returns nil without writing.
func (c *Controller) SaveNow(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	return c.flush(ctx)
}

// flush compares the buffer against the persisted snapshot and writes the
// difference. At most one write is in flight: a flush arriving during a write
// queues exactly one follow-up, which runs when the write completes.
func (c *Controller) flush(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.inFlight {
		c.pendingFlush = true
		c.mu.Unlock()
		return nil
	}

	title, content := c.pendingTitle, c.pendingContent
	if title == c.persistedTitle && content == c.persistedContent {
		notify := c.setStateLocked(Clean)
		c.mu.Unlock()
		notify()
		return nil
	}

	c.inFlight = true
	notify := c.setStateLocked(Saving)
	c.mu.Unlock()
	notify()

	_, err := c.saver.Update(ctx, c.docID, domain.DocumentPatch{
		Title:   &title,
		Content: &content,
	})

	c.mu.Lock()
	c.inFlight = false

	if err != nil {
		// The buffer is intact; a later edit or manual save retries.
		notify := c.setStateLocked(Pending)
		onError := c.onError
		c.mu.Unlock()

		c.logger.Warn("autosave failed", "error", err)
		notify()
		if onError != nil {
			onError(err)
		}
		return err
	}

	c.persistedTitle = title
	c.persistedContent = content
	c.lastSavedAt = c.clock.Now()

	var next State
	if c.pendingTitle == title && c.pendingContent == content {
		next = Saved
	} else {
		// Edits arrived mid-write; the re-armed timer will flush them.
		next = Pending
	}
	notify = c.setStateLocked(next)
	rerun := c.pendingFlush
	c.pendingFlush = false
	c.mu.Unlock()

	notify()

	if rerun {
		return c.flush(ctx)
	}
	return nil
}

// Close ends the session: the timer is cancelled and further edits are
// ignored. Unsaved buffer contents are intentionally not flushed; a caller
// wanting a final flush issues SaveNow before Close.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
}

// setStateLocked transitions to next and returns the listener invocation to
// run after the lock is released. Call with c.mu held.
func (c *Controller) setStateLocked(next State) func() {
	if c.state == next || c.onState == nil {
		c.state = next
		return func() {}
	}
	c.state = next
	fn := c.onState
	return func() { fn(next) }
}
