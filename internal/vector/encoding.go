package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidEmbedding is returned for embeddings that cannot be stored or were stored corrupt.
var ErrInvalidEmbedding = errors.New("invalid embedding")

// EncodeEmbedding serializes an embedding as a JSON array of numbers, the format of the
// embedding_json column. Empty vectors and non-finite values are rejected.
func EncodeEmbedding(vec []float32) (string, error) {
	if err := validate(vec); err != nil {
		return "", err
	}
	b, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEmbedding, err)
	}
	return string(b), nil
}

// DecodeEmbedding parses a value produced by EncodeEmbedding.
func DecodeEmbedding(s string) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(s), &vec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmbedding, err)
	}
	if err := validate(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func validate(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidEmbedding)
	}
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidEmbedding, i)
		}
	}
	return nil
}
