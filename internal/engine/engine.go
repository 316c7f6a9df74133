package engine

import (
	"time"

	"lukechampine.com/blake3"

	"github.com/smash-editor/smash/internal/config"
	"github.com/smash-editor/smash/internal/engine/buffer"
	"github.com/smash-editor/smash/internal/engine/cursor"
	"github.com/smash-editor/smash/internal/engine/encoding"
	"github.com/smash-editor/smash/internal/engine/history"
	"github.com/smash-editor/smash/internal/engine/rope"
	"github.com/smash-editor/smash/internal/engine/search"
	"github.com/smash-editor/smash/internal/engine/swap"
	"github.com/smash-editor/smash/internal/event"
	"github.com/smash-editor/smash/internal/log"
)

// Session is one open document with its full editing state. All
// methods must be called from the owning goroutine; the session has
// no internal locking on the edit path.
type Session struct {
	cfg   config.Engine
	log   *log.Logger
	clock func() time.Time

	buf     *buffer.Buffer
	cursors *cursor.Set
	history *history.Tree
	index   *search.Index
	events  *event.Broadcaster

	group    *groupState  // non-nil while Group is collecting commits
	journal  *swap.Writer // nil until the first journaled commit
	diskHash []byte       // hash of the on-disk bytes as of last load/save
	fallback encoding.DecodeFallback

	viewport int // page-motion height hint
}

// Option configures a Session.
type Option func(*Session)

// WithConfig overrides the engine configuration.
func WithConfig(cfg config.Engine) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithLogger sets the logger used by background workers.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock injects the time source (tests run hermetic).
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// WithDecodeFallback installs the decoder tried for non-UTF-8 files.
func WithDecodeFallback(f encoding.DecodeFallback) Option {
	return func(s *Session) { s.fallback = f }
}

// HashBytes is the content hash used throughout: BLAKE3-256.
func HashBytes(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}

// hashRope digests rope content without materializing it.
func hashRope(r rope.Rope) []byte {
	h := blake3.New(32, nil)
	it := r.Chunks(0, r.Len())
	for it.Next() {
		h.Write([]byte(it.Text()))
	}
	return h.Sum(nil)
}

func newSession(opts ...Option) *Session {
	s := &Session{
		cfg:      config.Default(),
		log:      log.Discard(),
		clock:    time.Now,
		fallback: encoding.DefaultFallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cursors = cursor.NewSet()
	s.history = history.NewTree(history.Limits{
		MaxNodes:    s.cfg.UndoMaxNodes,
		MaxBytes:    s.cfg.UndoMaxBytes,
		MaxAge:      s.cfg.UndoMaxAge.Std(),
		MergeWindow: s.cfg.UndoMergeWindow.Std(),
	}, s.clock)
	s.index = search.NewIndex()
	s.events = event.NewBroadcaster(s.cfg.EventChannelDepth)
	return s
}

// NewScratch creates a session over an empty unnamed buffer.
func NewScratch(opts ...Option) *Session {
	s := newSession(opts...)
	s.buf = buffer.New(buffer.WithHashFunc(hashRope))
	s.diskHash = HashBytes(nil)
	return s
}

// Buffer exposes the underlying buffer for read access.
func (s *Session) Buffer() *buffer.Buffer { return s.buf }

// Rope returns the current content snapshot.
func (s *Session) Rope() rope.Rope { return s.buf.Rope() }

// Revision returns the buffer revision.
func (s *Session) Revision() uint64 { return s.buf.Revision() }

// IsDirty reports whether content differs from the last save.
func (s *Session) IsDirty() bool { return s.buf.IsDirty() }

// Cursors returns the live cursor set.
func (s *Session) Cursors() *cursor.Set { return s.cursors }

// History returns the undo tree (read access for undo-tree UIs).
func (s *Session) History() *history.Tree { return s.history }

// Matches returns the current search matches.
func (s *Session) Matches() []search.Match { return s.index.Matches() }

// Subscribe returns a bounded event subscription.
func (s *Session) Subscribe() *event.Subscription { return s.events.Subscribe() }

// SetViewportHint records the page height used by page motions.
func (s *Session) SetViewportHint(lines int) { s.viewport = lines }

// MoveCursors applies a motion to every cursor.
func (s *Session) MoveCursors(m cursor.Motion, extend bool) {
	s.cursors.Move(s.buf.Rope(), m, extend, s.viewport)
}

// AddCursor adds a cursor at a position, deduplicating.
func (s *Session) AddCursor(pos buffer.Position) error {
	off, err := s.buf.Rope().PositionToOffset(s.buf.ClampPosition(pos))
	if err != nil {
		return err
	}
	s.cursors.Add(cursor.At(off))
	return nil
}

// AddCursorAtNextMatch extends the multi-cursor set to the next
// occurrence of the primary selection.
func (s *Session) AddCursorAtNextMatch() bool {
	return s.cursors.AddNextMatch(s.buf.Rope())
}

// ColumnSelect enters column-selection mode over a rectangle.
func (s *Session) ColumnSelect(topLine, bottomLine, leftCol, rightCol int) {
	s.cursors.ColumnSelect(s.buf.Rope(), topLine, bottomLine, leftCol, rightCol)
}

// Close shuts down the background workers. The swap file survives if
// the buffer is dirty (that is what crash recovery replays); a clean
// close removes it.
func (s *Session) Close() error {
	var err error
	if s.journal != nil {
		err = s.journal.Close()
		if !s.buf.IsDirty() {
			if rerr := s.journal.Remove(); rerr != nil && err == nil {
				err = rerr
			}
		}
		s.journal = nil
	}
	s.events.Close()
	return err
}
