package swap

import (
	"os"
	"time"

	"github.com/smash-editor/smash/internal/engine/buffer"
	"github.com/smash-editor/smash/internal/log"
)

// WriterConfig tunes flushing and backpressure.
type WriterConfig struct {
	QueueDepth    int           // bounded append queue (default 256)
	FsyncInterval time.Duration // hard ceiling between fsyncs (default 30s)
	IdleFlush     time.Duration // fsync after this much quiet (default 1s)
	FsyncTimeout  time.Duration // fsync stall budget (default 5s)
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.QueueDepth <= 0 {
		c.QueueDepth = 256
	}
	if c.FsyncInterval <= 0 {
		c.FsyncInterval = 30 * time.Second
	}
	if c.IdleFlush <= 0 {
		c.IdleFlush = time.Second
	}
	if c.FsyncTimeout <= 0 {
		c.FsyncTimeout = 5 * time.Second
	}
	return c
}

type writerMsg struct {
	frame []byte
	sync  chan error // non-nil: flush request, answered when durable
}

// Writer journals committed commands to one swap file from a
// background goroutine. The file descriptor is owned exclusively by
// that goroutine.
type Writer struct {
	path string
	ch   chan writerMsg
	done chan struct{}
	log  *log.Logger
}

// NewWriter creates the swap file (truncating any stale one), writes
// the header, and starts the worker.
func NewWriter(docPath string, header Header, cfg WriterConfig, logger *log.Logger) (*Writer, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = log.Discard()
	}
	path := SwapPath(docPath)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	if err := WriteHeader(f, header); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	w := &Writer{
		path: path,
		ch:   make(chan writerMsg, cfg.QueueDepth),
		done: make(chan struct{}),
		log:  logger.Named("swap").With("path", path),
	}
	go w.run(f, cfg)
	return w, nil
}

// Path returns the swap file path.
func (w *Writer) Path() string { return w.path }

// Append journals one command. It blocks while the queue is full —
// correctness over latency — and returns ErrClosed after Close.
func (w *Writer) Append(cmd buffer.EditCommand) error {
	payload, err := EncodeCommand(cmd)
	if err != nil {
		return err
	}
	select {
	case <-w.done:
		return ErrClosed
	default:
	}
	select {
	case w.ch <- writerMsg{frame: payload}:
		return nil
	case <-w.done:
		return ErrClosed
	}
}

// Sync blocks until everything appended so far is durable.
func (w *Writer) Sync() error {
	ack := make(chan error, 1)
	select {
	case w.ch <- writerMsg{sync: ack}:
		return <-ack
	case <-w.done:
		return ErrClosed
	}
}

// Close drains the queue, syncs, and closes the file. The swap file
// stays on disk (crash recovery needs it); call Remove after a
// successful save instead.
func (w *Writer) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	err := w.Sync()
	close(w.done)
	return err
}

// Remove truncates and deletes the swap file after a successful
// save. The writer must be closed first.
func (w *Writer) Remove() error {
	select {
	case <-w.done:
	default:
		return ErrClosed
	}
	// Truncate before unlink so a crash between the two syscalls
	// leaves an empty journal, not a stale one.
	if f, err := os.OpenFile(w.path, os.O_WRONLY, 0o600); err == nil {
		f.Truncate(0)
		f.Sync()
		f.Close()
	}
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// run is the worker loop: write frames as they arrive, fsync on the
// debounce schedule, and answer explicit sync requests.
func (w *Writer) run(f *os.File, cfg WriterConfig) {
	defer f.Close()

	var written, synced uint64 // frame counters; equal means durable
	var inflight chan error    // non-nil while an fsync runs
	var inflightMark uint64    // frames written when it started
	lastFsync := time.Now()
	idle := time.NewTimer(cfg.IdleFlush)
	defer idle.Stop()

	settle := func(err error) {
		inflight = nil
		if err != nil {
			w.log.Errorf("fsync failed: %v", err)
			return
		}
		synced = inflightMark
		lastFsync = time.Now()
	}

	// fsync starts a flush and waits up to the stall budget. On a
	// stall it logs and returns; the flush settles through the main
	// select when it completes.
	fsync := func() {
		if written == synced || inflight != nil {
			return
		}
		inflight = make(chan error, 1)
		inflightMark = written
		go func(c chan error) { c <- f.Sync() }(inflight)
		select {
		case err := <-inflight:
			settle(err)
		case <-time.After(cfg.FsyncTimeout):
			w.log.Warnf("%v after %v", ErrStalled, cfg.FsyncTimeout)
		}
	}

	// blockingFsync is the Sync/shutdown variant: durability is the
	// point, so it waits out any stall.
	blockingFsync := func() error {
		if inflight != nil {
			settle(<-inflight)
		}
		if written == synced {
			return nil
		}
		err := f.Sync()
		if err == nil {
			synced = written
			lastFsync = time.Now()
		}
		return err
	}

	for {
		select {
		case err := <-inflight:
			settle(err)

		case msg := <-w.ch:
			if msg.sync != nil {
				msg.sync <- blockingFsync()
				continue
			}
			if err := WriteFrame(f, msg.frame); err != nil {
				w.log.Errorf("append failed: %v", err)
				continue
			}
			written++
			if time.Since(lastFsync) >= cfg.FsyncInterval {
				fsync()
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(cfg.IdleFlush)

		case <-idle.C:
			fsync()
			idle.Reset(cfg.IdleFlush)

		case <-w.done:
			// Drain anything racing with shutdown, then flush.
			for {
				select {
				case msg := <-w.ch:
					if msg.sync != nil {
						msg.sync <- ErrClosed
						continue
					}
					if err := WriteFrame(f, msg.frame); err != nil {
						w.log.Errorf("append during shutdown failed: %v", err)
					}
					written++
				default:
					if err := blockingFsync(); err != nil {
						w.log.Errorf("final fsync failed: %v", err)
					}
					return
				}
			}
		}
	}
}
