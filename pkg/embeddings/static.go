package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Static is a deterministic, dependency-free embedder for tests and offline
// use. It hashes word tokens into a fixed number of buckets, so texts sharing
// words produce similar vectors and identical texts produce identical ones.
// It is not a substitute for a real embedding model.
type Static struct {
	Dim int
}

func NewStatic(dim int) *Static {
	if dim <= 0 {
		dim = 64
	}
	return &Static{Dim: dim}
}

func (s *Static) ModelID() string {
	return fmt.Sprintf("static/%d", s.Dim)
}

func (s *Static) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, s.Dim)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%s.Dim] += 1.0
	}

	// Unit length, so cosine similarity reduces to a dot product.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func (s *Static) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
