package retrieval

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(text string) []float64
}

// HashEmbedder is a hashed bag-of-words embedder producing L2-normalised vectors.
type HashEmbedder struct {
	Dims int
}

// Embed implements Embedder.
func (h HashEmbedder) Embed(text string) []float64 {
	dims := h.Dims
	if dims <= 0 {
		dims = 256
	}
	vec := make([]float64, dims)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(tok))
		vec[hasher.Sum32()%uint32(dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

type storedDocument struct {
	doc    Document
	vector []float64
	seq    int
}

// MemoryCorpus is an insertion-ordered in-memory Corpus.
// Distances are squared Euclidean distances between embeddings, so for
// normalised vectors they fall in [0, 4].
type MemoryCorpus struct {
	mu       sync.RWMutex
	embedder Embedder
	docs     map[string]*storedDocument
	nextSeq  int
}

// NewMemoryCorpus creates an empty corpus. A nil embedder selects HashEmbedder.
func NewMemoryCorpus(embedder Embedder) *MemoryCorpus {
	if embedder == nil {
		embedder = HashEmbedder{}
	}
	return &MemoryCorpus{
		embedder: embedder,
		docs:     make(map[string]*storedDocument),
	}
}

// Upsert implements Corpus. Overwriting keeps the original insertion position.
func (c *MemoryCorpus) Upsert(ctx context.Context, doc Document) error {
	vector := c.embedder.Embed(doc.Text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.docs[doc.ID]; ok {
		existing.doc = doc
		existing.vector = vector
		return nil
	}
	c.docs[doc.ID] = &storedDocument{doc: doc, vector: vector, seq: c.nextSeq}
	c.nextSeq++
	return nil
}

// Search implements Corpus.
func (c *MemoryCorpus) Search(ctx context.Context, text string, tenantID *string, k int) ([]Candidate, error) {
	query := c.embedder.Embed(text)

	c.mu.RLock()
	matches := make([]*storedDocument, 0, len(c.docs))
	for _, d := range c.docs {
		if tenantID != nil && d.doc.TenantID != *tenantID {
			continue
		}
		matches = append(matches, d)
	}
	c.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].seq < matches[j].seq })

	candidates := make([]Candidate, len(matches))
	for i, d := range matches {
		candidates[i] = Candidate{Text: d.doc.Text, Distance: squaredDistance(query, d.vector)}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// Get returns the stored document with the given id.
func (c *MemoryCorpus) Get(id string) (Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.docs[id]
	if !ok {
		return Document{}, false
	}
	return d.doc, true
}

// Len returns the number of stored documents.
func (c *MemoryCorpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func squaredDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	for i := n; i < len(a); i++ {
		sum += a[i] * a[i]
	}
	for i := n; i < len(b); i++ {
		sum += b[i] * b[i]
	}
	return sum
}
