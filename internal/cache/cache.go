// Package cache stores computed embeddings so index rebuilds do not re-embed
// unchanged evidence. Keys bind the embedding model to the evidence text, so
// switching models or editing a source invalidates naturally.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// EmbeddingKey generates a cache key for one evidence unit's embedding.
// The text hash guards against an id being reused for different bytes.
func EmbeddingKey(embedModel, evidenceID, rawText string) string {
	hash := sha256.Sum256([]byte(embedModel + "\x00" + rawText))
	return "anamnesis:emb:v1:" + evidenceID + ":" + hex.EncodeToString(hash[:8])
}
