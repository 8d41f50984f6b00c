package service

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/ludo-technologies/pytree/domain"
)

// cachedParse is a parsed file together with the digest of the content it was parsed from
type cachedParse struct {
	digest [sha256.Size]byte
	file   *domain.ParsedFile
}

// ParseCache remembers the last parse of every file, keyed by path and
// validated against a digest of the file content. It is safe for concurrent use.
type ParseCache struct {
	mu      sync.Mutex
	results map[string]cachedParse
}

// NewParseCache creates a new empty ParseCache.
func NewParseCache() *ParseCache {
	return &ParseCache{
		results: make(map[string]cachedParse),
	}
}

// Put stores the parse of filePath for content with the given digest.
func (c *ParseCache) Put(filePath string, digest [sha256.Size]byte, file *domain.ParsedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[filePath] = cachedParse{digest: digest, file: file}
}

// Get returns the cached parse of filePath when it was made from content with
// the same digest.
func (c *ParseCache) Get(filePath string, digest [sha256.Size]byte) (*domain.ParsedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[filePath]
	if !ok || r.digest != digest {
		return nil, false
	}
	return r.file, true
}

// Invalidate drops the entry of filePath.
func (c *ParseCache) Invalidate(filePath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, filePath)
}

// size returns the number of entries in the cache.
func (c *ParseCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// CachedParseService skips re-parsing files whose content did not change.
// Editors often write a file several times per save, which the watch loop
// would otherwise parse once per write.
type CachedParseService struct {
	reader domain.FileReader
	parser *ParseServiceImpl
	cache  *ParseCache
}

// NewCachedParseService creates a caching parse service. A nil cache creates a fresh one.
func NewCachedParseService(reader domain.FileReader, cache *ParseCache) *CachedParseService {
	if reader == nil {
		reader = NewFileReader()
	}
	if cache == nil {
		cache = NewParseCache()
	}
	return &CachedParseService{
		reader: reader,
		parser: NewParseService(reader),
		cache:  cache,
	}
}

// ParseFile implements domain.ParseService. Failed parses are never cached.
func (s *CachedParseService) ParseFile(ctx context.Context, path string) (*domain.ParsedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewParseError(path, err)
	}

	content, err := s.reader.ReadFile(path)
	if err != nil {
		s.cache.Invalidate(path)
		return nil, domain.NewParseError(path, err)
	}

	digest := sha256.Sum256(content)
	if file, ok := s.cache.Get(path, digest); ok {
		return file, nil
	}

	file, err := s.parser.ParseSource(ctx, path, content)
	if err != nil {
		s.cache.Invalidate(path)
		return nil, err
	}
	s.cache.Put(path, digest, file)
	return file, nil
}
