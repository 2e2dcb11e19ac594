package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// StoreWatcher reloads the index when another session process appends to
// the shared store. Events are debounced; SQLite in WAL mode touches the
// database and sidecar files several times per commit.
type StoreWatcher struct {
	index        *Index
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
	log          zerolog.Logger
}

// NewStoreWatcher watches the directory containing the store file. Watching
// the directory rather than the file survives WAL checkpoint renames.
func NewStoreWatcher(index *Index, log zerolog.Logger) (*StoreWatcher, error) {
	if index.store == nil {
		return nil, fmt.Errorf("cannot watch an in-memory index")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(index.store.Path())); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch store directory: %w", err)
	}
	return &StoreWatcher{
		index:        index,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		done:         make(chan struct{}),
		log:          log,
	}, nil
}

// Start begins watching in the background until Stop or ctx cancellation.
func (w *StoreWatcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	go func() {
		defer close(w.done)

		var timer *time.Timer
		var fire <-chan time.Time
		base := filepath.Base(w.index.store.Path())

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				// Only writes to the database itself or its WAL matter.
				name := filepath.Base(ev.Name)
				if name != base && name != base+"-wal" {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(w.debounceTime)
					fire = timer.C
				} else {
					// The timer may have fired while this event was being
					// handled; drain the stale tick before re-arming or it
					// would trigger an immediate, pre-debounce reload.
					if !timer.Stop() {
						<-fire
					}
					timer.Reset(w.debounceTime)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn().Err(err).Msg("store watcher error")
			case <-fire:
				timer = nil
				fire = nil
				if err := w.index.Load(ctx); err != nil {
					w.log.Warn().Err(err).Msg("index reload after external write failed")
				}
			}
		}
	}()
}

// Stop halts the watcher and waits for the background goroutine to exit.
func (w *StoreWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
	<-w.done
}
