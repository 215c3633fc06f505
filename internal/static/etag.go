package static

import (
	"encoding/hex"
	"io"
	"io/fs"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

type etagEntry struct {
	size    int64
	modTime time.Time
	tag     string
}

// etagCache memoizes content hashes per asset path. An entry is reused
// while the file's size and modification time are unchanged.
type etagCache struct {
	mu      sync.Mutex
	entries map[string]etagEntry
}

func newETagCache() *etagCache {
	return &etagCache{entries: make(map[string]etagEntry)}
}

// get returns the strong ETag for the file, hashing it when the cached entry
// is stale. The reader is rewound before returning.
func (c *etagCache) get(name string, info fs.FileInfo, r io.ReadSeeker) (string, error) {
	c.mu.Lock()
	e, ok := c.entries[name]
	c.mu.Unlock()
	if ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.tag, nil
	}

	tag, err := hashContent(r)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[name] = etagEntry{size: info.Size(), modTime: info.ModTime(), tag: tag}
	c.mu.Unlock()
	return tag, nil
}

func hashContent(r io.ReadSeeker) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	sum := h.Sum(nil)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, nil
}
