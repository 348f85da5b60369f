package mcp

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/gohmmer/internal/hmm"
	"github.com/dshills/gohmmer/pkg/types"
)

type modelKey struct {
	path string
	hash [32]byte
}

// modelCache keeps parsed model files. An entry is keyed by path and content
// hash, so editing a file on disk invalidates it. Cached models are shared
// between concurrent searches and must not be modified.
type modelCache struct {
	cache *lru.Cache[modelKey, []*hmm.Model]
}

func newModelCache(size int) (*modelCache, error) {
	cache, err := lru.New[modelKey, []*hmm.Model](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create model cache: %w", err)
	}
	return &modelCache{cache: cache}, nil
}

// Load returns every model in the file at path
func (c *modelCache) Load(path string) ([]*hmm.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrOpenFailed, path, err)
	}
	key := modelKey{path: path, hash: sha256.Sum256(data)}
	if models, ok := c.cache.Get(key); ok {
		return models, nil
	}

	models, err := hmm.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.cache.Add(key, models)
	return models, nil
}

// Len returns the number of cached files
func (c *modelCache) Len() int {
	return c.cache.Len()
}
