package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Index is the keyword-searchable view over the conversation log. All state
// is guarded by a single RWMutex: many concurrent sessions may search while
// exactly one appends. Scoring is keyword overlap with a most-recent-first
// tiebreak; deliberately cheap, no embeddings, no external calls.
type Index struct {
	mu        sync.RWMutex
	entries   []Entry
	byKeyword map[string][]int // keyword -> indexes into entries

	store *Store // nil = volatile, in-memory only
	log   zerolog.Logger
}

// NewIndex builds an index over the given store. A nil store yields a
// purely in-memory index (used by tests and the self-test command).
func NewIndex(store *Store, log zerolog.Logger) *Index {
	return &Index{
		byKeyword: make(map[string][]int),
		store:     store,
		log:       log,
	}
}

// Load replaces the in-memory state with the full contents of the backing
// store. Called once at session start and again when the watcher notices
// another process appending.
func (x *Index) Load(ctx context.Context) error {
	if x.store == nil {
		return nil
	}
	entries, err := x.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = entries
	x.byKeyword = make(map[string][]int)
	for i, e := range entries {
		for _, kw := range e.Keywords {
			x.byKeyword[kw] = append(x.byKeyword[kw], i)
		}
	}
	x.log.Debug().Int("entries", len(entries)).Msg("conversation index loaded")
	return nil
}

// Add appends an entry to the index and to the durable store. The in-memory
// state is updated first and stays consistent even when the durable write
// fails; in that case the returned error is an *IOError and the caller
// decides whether the loss of durability matters.
func (x *Index) Add(ctx context.Context, entry Entry) error {
	if len(entry.Keywords) == 0 {
		entry.Keywords = Tokenize(entry.Sanitized + " " + entry.Answer)
	}

	x.mu.Lock()
	x.entries = append(x.entries, entry)
	i := len(x.entries) - 1
	for _, kw := range entry.Keywords {
		x.byKeyword[kw] = append(x.byKeyword[kw], i)
	}
	x.mu.Unlock()

	if x.store == nil {
		return nil
	}
	if err := x.store.Append(ctx, entry); err != nil {
		x.log.Warn().Err(err).Str("entry", entry.ID).Msg("durable write failed, entry kept in memory")
		return err
	}
	return nil
}

// Search tokenizes queryText exactly like Add, scores every candidate entry
// by overlapping keyword count, and returns up to limit entries with score
// greater than zero, best first. Ties break toward the most recent entry.
// An empty result is normal, not an error.
func (x *Index) Search(queryText string, limit int) []Entry {
	tokens := Tokenize(queryText)
	if len(tokens) == 0 || limit <= 0 {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	scores := make(map[int]int)
	for _, tok := range tokens {
		for _, i := range x.byKeyword[tok] {
			scores[i]++
		}
	}
	if len(scores) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score int
	}
	ranked := make([]scored, 0, len(scores))
	for i, s := range scores {
		ranked = append(ranked, scored{idx: i, score: s})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return ranked[a].idx > ranked[b].idx // later insertion = more recent
	})

	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]Entry, 0, limit)
	for _, r := range ranked[:limit] {
		out = append(out, x.entries[r.idx])
	}
	return out
}

// Len returns the number of entries currently indexed.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close releases the backing store, if any. The in-memory index matches the
// durable store at this point on any normal shutdown path.
func (x *Index) Close() error {
	if x.store == nil {
		return nil
	}
	return x.store.Close()
}
