// Package vector maintains the node embedding index used for semantic search.
//
// The index maps node ids to fixed-length float32 vectors produced by an
// external embedding capability (see pkg/embeddings) and answers
// nearest-neighbor queries by exact cosine similarity over every stored
// vector. The vector set is small (low thousands of nodes), so a brute-force
// scan beats the bookkeeping cost of an approximate structure and is exact by
// construction.
//
// The embedder is opened lazily on first need, so a process that never
// touches semantic search can run without a reachable model server.
package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"gonum.org/v1/gonum/blas/gonum"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/embeddings"
)

// gonumEngine provides BLAS routines with internal SIMD dispatch.
var gonumEngine = gonum.Implementation{}

// ErrNotIndexed is returned by SearchByID when the given id has no stored vector.
var ErrNotIndexed = errors.New("vector: id not indexed")

// Precision selects the on-disk number format for stored vectors.
type Precision string

const (
	// Float32 stores vectors at full precision (default).
	Float32 Precision = "float32"
	// Float16 stores IEEE 754 half-precision bits, halving the file size.
	// Vectors are expanded back to float32 on load.
	Float16 Precision = "float16"
)

// EmbedderOpener yields the embedding client on first use. A failure is
// returned to the caller that needed the embedder and is retried on the
// next need, it is never cached.
type EmbedderOpener func() (embeddings.Embedder, error)

// Options configures a vector Index.
type Options struct {
	// Path is the JSON file backing the embedding table.
	Path string

	// Embedder lazily opens the embedding client. Required.
	Embedder EmbedderOpener

	// Precision selects the storage format (default Float32).
	Precision Precision
}

// Item pairs a node id with the text to embed for it.
type Item struct {
	ID   string
	Text string
}

// Result is a single similarity match.
type Result struct {
	ID    string
	Score float64
}

// Index is the in-memory embedding table plus its durable JSON file.
// All vectors are L2-normalized on insert, so cosine similarity reduces
// to a dot product at query time.
type Index struct {
	mu        sync.RWMutex
	path      string
	precision Precision
	vectors   map[string][]float32
	order     []string // insertion order, used for stable tie-breaks
	model     string   // model id the stored vectors were produced with
	dim       int

	openMu   sync.Mutex
	open     EmbedderOpener
	embedder embeddings.Embedder // cached after the first successful open
}

// Open loads (or initializes) the embedding table at opts.Path.
// The embedding capability is not contacted here.
func Open(opts Options) (*Index, error) {
	if opts.Embedder == nil {
		return nil, errors.New("vector: Options.Embedder is required")
	}
	if opts.Precision == "" {
		opts.Precision = Float32
	}
	if opts.Precision != Float32 && opts.Precision != Float16 {
		return nil, fmt.Errorf("vector: unknown precision %q", opts.Precision)
	}

	ix := &Index{
		path:      opts.Path,
		precision: opts.Precision,
		vectors:   make(map[string][]float32),
		open:      opts.Embedder,
	}
	if err := ix.load(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Len returns the number of stored vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Has reports whether a vector is stored for the given id.
func (ix *Index) Has(id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.vectors[id]
	return ok
}

// ensureEmbedder opens the embedding client on first use. On success the
// client is cached and the stored table is checked against its model id:
// vectors produced by a different model are discarded, they would be
// incomparable with fresh query embeddings.
func (ix *Index) ensureEmbedder() (embeddings.Embedder, error) {
	ix.openMu.Lock()
	defer ix.openMu.Unlock()

	if ix.embedder != nil {
		return ix.embedder, nil
	}

	emb, err := ix.open()
	if err != nil {
		return nil, fmt.Errorf("vector: opening embedder: %w", err)
	}
	ix.embedder = emb

	ix.mu.Lock()
	if ix.model != "" && ix.model != emb.ModelID() && len(ix.vectors) > 0 {
		slog.Warn("Embedding model changed, discarding stored vectors",
			"stored_model", ix.model, "current_model", emb.ModelID(), "discarded", len(ix.vectors))
		ix.vectors = make(map[string][]float32)
		ix.order = nil
		ix.dim = 0
	}
	ix.model = emb.ModelID()
	ix.mu.Unlock()

	return emb, nil
}

// Upsert embeds the given items in one batch call and stores or replaces
// their vectors. Re-upserting an existing id keeps its original position in
// the insertion order. The table is persisted before returning.
func (ix *Index) Upsert(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	emb, err := ix.ensureEmbedder()
	if err != nil {
		return err
	}

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}

	// The embedding call is the slow path, keep it outside the lock.
	vecs, err := emb.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("vector: embedding batch of %d: %w", len(items), err)
	}
	if len(vecs) != len(items) {
		return fmt.Errorf("vector: embedder returned %d vectors for %d items", len(vecs), len(items))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i, it := range items {
		v := vecs[i]
		if ix.dim == 0 {
			ix.dim = len(v)
		} else if len(v) != ix.dim {
			return fmt.Errorf("vector: embedder returned dimension %d, index has %d", len(v), ix.dim)
		}
		normalize(v)
		if _, exists := ix.vectors[it.ID]; !exists {
			ix.order = append(ix.order, it.ID)
		}
		ix.vectors[it.ID] = v
	}

	return ix.saveLocked()
}

// Remove drops the vectors for the given ids. Unknown ids are ignored.
// The table is persisted when anything changed.
func (ix *Index) Remove(ids []string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	changed := false
	for _, id := range ids {
		if _, ok := ix.vectors[id]; !ok {
			continue
		}
		delete(ix.vectors, id)
		changed = true
	}
	if !changed {
		return nil
	}

	kept := ix.order[:0]
	for _, id := range ix.order {
		if _, ok := ix.vectors[id]; ok {
			kept = append(kept, id)
		}
	}
	ix.order = kept

	return ix.saveLocked()
}

// Search embeds the query text and returns stored ids with cosine similarity
// >= threshold, sorted by score descending (ties keep insertion order),
// truncated to limit (limit <= 0 means no truncation). An empty index
// returns an empty list without contacting the embedder.
func (ix *Index) Search(ctx context.Context, text string, limit int, threshold float64) ([]Result, error) {
	if ix.Len() == 0 {
		return []Result{}, nil
	}

	emb, err := ix.ensureEmbedder()
	if err != nil {
		return nil, err
	}
	query, err := emb.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vector: embedding query: %w", err)
	}
	normalize(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.scanLocked(query, "", limit, threshold), nil
}

// SearchByID runs a similarity search using the stored vector of the given
// id as the query, excluding the id itself from the results. Returns
// ErrNotIndexed when no vector is stored for it.
func (ix *Index) SearchByID(id string, limit int, threshold float64) ([]Result, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	query, ok := ix.vectors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, id)
	}
	return ix.scanLocked(query, id, limit, threshold), nil
}

// scanLocked computes the dot product against every stored vector.
// Callers hold at least a read lock. excludeID may be empty.
func (ix *Index) scanLocked(query []float32, excludeID string, limit int, threshold float64) []Result {
	results := make([]Result, 0, len(ix.order))
	for _, id := range ix.order {
		if id == excludeID {
			continue
		}
		v := ix.vectors[id]
		if len(v) != len(query) {
			continue
		}
		score := float64(gonumEngine.Sdot(len(query), query, 1, v, 1))
		if score >= threshold {
			results = append(results, Result{ID: id, Score: score})
		}
	}

	// Stable sort keeps insertion order between equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// normalize scales v to unit length in place. Zero vectors are left as-is.
func normalize(v []float32) {
	norm := gonumEngine.Snrm2(len(v), v, 1)
	if norm == 0 {
		return
	}
	gonumEngine.Sscal(len(v), 1/norm, v, 1)
}
