package memory

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// FakeEmbedder is a deterministic test Embedder.
//
// Texts listed in Vectors get their configured vector; any other text
// gets a unit vector derived from its hash, so distinct texts embed to
// distinct but stable points. Safe for concurrent use.
type FakeEmbedder struct {
	// Vectors maps exact texts to embeddings.
	Vectors map[string][]float32

	// Err, if set, is returned by Embed.
	Err error

	mu    sync.Mutex
	calls int
}

// Embed returns the configured or derived vector for text.
func (f *FakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if vec, ok := f.Vectors[text]; ok {
		return vec, nil
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum64()

	vec := make([]float32, 4)
	var norm float64
	for i := range vec {
		vec[i] = float32((sum>>(i*16))&0xffff) + 1
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// CallCount returns the number of Embed calls.
func (f *FakeEmbedder) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}
