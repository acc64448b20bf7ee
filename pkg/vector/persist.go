package vector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/x448/float16"
)

// storeFile is the durable JSON shape of the embedding table. The vectors
// payload depends on precision: float32 values, or uint16 half-float bits.
type storeFile struct {
	Model     string          `json:"model"`
	Dimension int             `json:"dimension"`
	Precision Precision       `json:"precision"`
	Vectors   json.RawMessage `json:"vectors"`
}

// load reads the backing file into memory. A missing file initializes an
// empty table and persists it, so the file always exists afterwards.
// Parse failures are fatal, a corrupt table must not be masked as empty.
func (ix *Index) load() error {
	data, err := os.ReadFile(ix.path)
	if os.IsNotExist(err) {
		ix.mu.Lock()
		defer ix.mu.Unlock()
		return ix.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("vector: reading %s: %w", ix.path, err)
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("vector: parsing %s: %w", ix.path, err)
	}

	vectors := make(map[string][]float32)
	switch f.Precision {
	case Float16:
		var raw map[string][]uint16
		if err := json.Unmarshal(f.Vectors, &raw); err != nil {
			return fmt.Errorf("vector: parsing float16 vectors in %s: %w", ix.path, err)
		}
		for id, bits := range raw {
			v := make([]float32, len(bits))
			for i, b := range bits {
				v[i] = float16.Frombits(b).Float32()
			}
			vectors[id] = v
		}
	case Float32, "":
		if len(f.Vectors) > 0 {
			if err := json.Unmarshal(f.Vectors, &vectors); err != nil {
				return fmt.Errorf("vector: parsing vectors in %s: %w", ix.path, err)
			}
		}
	default:
		return fmt.Errorf("vector: %s has unknown precision %q", ix.path, f.Precision)
	}

	for id, v := range vectors {
		if f.Dimension > 0 && len(v) != f.Dimension {
			return fmt.Errorf("vector: %s: vector for %q has dimension %d, header says %d", ix.path, id, len(v), f.Dimension)
		}
	}

	// Insertion order is not persisted; a deterministic id order replaces it
	// after a restart.
	order := make([]string, 0, len(vectors))
	for id := range vectors {
		order = append(order, id)
	}
	sort.Strings(order)

	ix.mu.Lock()
	ix.vectors = vectors
	ix.order = order
	ix.model = f.Model
	ix.dim = f.Dimension
	ix.mu.Unlock()
	return nil
}

// saveLocked writes the full table to disk via a temp file and rename.
// Callers hold the write lock.
func (ix *Index) saveLocked() error {
	var payload any
	switch ix.precision {
	case Float16:
		raw := make(map[string][]uint16, len(ix.vectors))
		for id, v := range ix.vectors {
			bits := make([]uint16, len(v))
			for i, x := range v {
				bits[i] = float16.Fromfloat32(x).Bits()
			}
			raw[id] = bits
		}
		payload = raw
	default:
		payload = ix.vectors
	}

	rawVectors, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("vector: encoding vectors: %w", err)
	}
	data, err := json.MarshalIndent(storeFile{
		Model:     ix.model,
		Dimension: ix.dim,
		Precision: ix.precision,
		Vectors:   rawVectors,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("vector: encoding store: %w", err)
	}

	if dir := filepath.Dir(ix.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("vector: creating %s: %w", dir, err)
		}
	}

	tmp := ix.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("vector: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, ix.path); err != nil {
		return fmt.Errorf("vector: replacing %s: %w", ix.path, err)
	}
	return nil
}
