package retrievers

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ragbench/internal/core/domain"
)

// DefaultCacheSize is the number of candidate sets kept in memory.
const DefaultCacheSize = 8

// index is an immutable, id-sorted candidate matrix with precomputed norms.
type index struct {
	ids      []string
	chunkIDs []string
	vectors  [][]float32
	norms    []float64
}

func buildIndex(candidates []domain.Candidate) *index {
	sorted := append([]domain.Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EmbeddingID < sorted[j].EmbeddingID })

	idx := &index{
		ids:      make([]string, len(sorted)),
		chunkIDs: make([]string, len(sorted)),
		vectors:  make([][]float32, len(sorted)),
		norms:    make([]float64, len(sorted)),
	}
	for i, c := range sorted {
		idx.ids[i] = c.EmbeddingID
		idx.chunkIDs[i] = c.ChunkID
		idx.vectors[i] = c.Vector
		idx.norms[i] = l2norm(c.Vector)
	}
	return idx
}

// IndexCache keeps recently built indexes keyed by a fingerprint of their
// candidate set. Any change to the set (an added, removed or re-embedded
// vector) changes the fingerprint, so a stale index is never served.
// The cache is private to the process and never authoritative.
type IndexCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*index
	order    []string
	builds   int
}

// NewIndexCache creates a cache holding up to capacity indexes.
func NewIndexCache(capacity int) *IndexCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &IndexCache{
		capacity: capacity,
		entries:  make(map[string]*index),
	}
}

// get returns the index for candidates, building it on a miss.
func (c *IndexCache) get(candidates []domain.Candidate) *index {
	key := Fingerprint(candidates)

	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.entries[key]; ok {
		c.touch(key)
		return idx
	}

	idx := buildIndex(candidates)
	c.builds++
	c.entries[key] = idx
	c.order = append(c.order, key)
	if len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	return idx
}

func (c *IndexCache) touch(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), key)
			return
		}
	}
}

// Builds returns how many indexes have been built since creation.
func (c *IndexCache) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}

// Fingerprint hashes the sorted embedding ids with their chunk ids and
// vector bytes.
func Fingerprint(candidates []domain.Candidate) string {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return candidates[order[a]].EmbeddingID < candidates[order[b]].EmbeddingID
	})

	h := sha256.New()
	var buf [4]byte
	for _, i := range order {
		c := candidates[i]
		h.Write([]byte(c.EmbeddingID))
		h.Write([]byte{0})
		h.Write([]byte(c.ChunkID))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint32(buf[:], uint32(len(c.Vector)))
		h.Write(buf[:])
		for _, v := range c.Vector {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func l2norm(v []float32) float64 {
	sum := 0.0
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
