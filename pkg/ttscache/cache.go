package ttscache

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/metrics"
)

// ErrMiss is returned by Get when no entry exists for the key.
var ErrMiss = errors.New("ttscache: miss")

const entrySuffix = ".tts"

// Entry is a cached synthesis result.
type Entry struct {
	Data        []byte
	ContentType string
}

// Stats summarises the on-disk state.
type Stats struct {
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
}

// Options bound the cache. Zero values disable the corresponding limit.
type Options struct {
	Dir        string
	MaxEntries int
	MaxBytes   int64
}

// Cache stores synthesized audio on local disk, one file per key. Each file
// holds the content type on its first line followed by the raw audio.
type Cache struct {
	dir        string
	maxEntries int
	maxBytes   int64
	logger     *zap.Logger

	mu sync.Mutex
}

// Key derives the cache key for a synthesis request.
func Key(text, dialect, voice string, rate, pitch float64, format string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join([]string{
		text,
		dialect,
		voice,
		strconv.FormatFloat(rate, 'f', -1, 64),
		strconv.FormatFloat(pitch, 'f', -1, 64),
		format,
	}, "|")))
	return hex.EncodeToString(h.Sum(nil))
}

// New creates the cache directory if needed.
func New(opts Options, logger *zap.Logger) (*Cache, error) {
	if opts.Dir == "" {
		opts.Dir = "/data/tts-cache"
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		dir:        opts.Dir,
		maxEntries: opts.MaxEntries,
		maxBytes:   opts.MaxBytes,
		logger:     logger,
	}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+entrySuffix)
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// Get returns the entry for key. A hit refreshes the entry's modification
// time so eviction drops the least recently used entries first.
func (c *Cache) Get(key string) (*Entry, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("invalid cache key %q", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		metrics.RecordCacheLookup(false)
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	entry, err := decode(raw)
	if err != nil {
		c.logger.Warn("Dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		_ = os.Remove(c.path(key))
		metrics.RecordCacheLookup(false)
		return nil, ErrMiss
	}

	now := time.Now()
	if err := os.Chtimes(c.path(key), now, now); err != nil {
		c.logger.Debug("Failed to touch cache entry", zap.String("key", key), zap.Error(err))
	}

	metrics.RecordCacheLookup(true)
	return entry, nil
}

// Put writes the entry atomically and then enforces the size limits.
func (c *Cache) Put(key string, entry *Entry) error {
	if !validKey(key) {
		return fmt.Errorf("invalid cache key %q", key)
	}
	if entry == nil || len(entry.Data) == 0 {
		return fmt.Errorf("refusing to cache empty audio")
	}
	if strings.ContainsAny(entry.ContentType, "\r\n") {
		return fmt.Errorf("invalid content type %q", entry.ContentType)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	_, _ = w.WriteString(entry.ContentType)
	_ = w.WriteByte('\n')
	_, _ = w.Write(entry.Data)
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache entry: %w", err)
	}
	if err := os.Rename(tmpName, c.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}

	evicted, err := c.cleanup()
	if err != nil {
		c.logger.Warn("Cache cleanup failed", zap.Error(err))
	}
	if evicted > 0 {
		metrics.RecordCacheEvictions(evicted)
		c.logger.Debug("Evicted cache entries", zap.Int("count", evicted))
	}
	return nil
}

type fileInfo struct {
	path    string
	size    int64
	modTime time.Time
}

func (c *Cache) scan() ([]fileInfo, int64, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, 0, err
	}
	var (
		files []fileInfo
		total int64
	)
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), entrySuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{
			path:    filepath.Join(c.dir, de.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}
	return files, total, nil
}

// cleanup deletes the oldest entries until both limits hold. Caller holds mu.
func (c *Cache) cleanup() (int, error) {
	if c.maxEntries <= 0 && c.maxBytes <= 0 {
		return 0, nil
	}
	files, total, err := c.scan()
	if err != nil {
		return 0, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	evicted := 0
	count := len(files)
	for _, f := range files {
		overEntries := c.maxEntries > 0 && count > c.maxEntries
		overBytes := c.maxBytes > 0 && total > c.maxBytes
		if !overEntries && !overBytes {
			break
		}
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return evicted, err
		}
		count--
		total -= f.size
		evicted++
	}
	return evicted, nil
}

// Stats reports the number of entries and their total size.
func (c *Cache) Stats() (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	files, total, err := c.scan()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Entries: len(files), Bytes: total}, nil
}

func decode(raw []byte) (*Entry, error) {
	i := bytes.IndexByte(raw, '\n')
	if i < 0 {
		return nil, fmt.Errorf("missing header")
	}
	data := raw[i+1:]
	if len(data) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	return &Entry{ContentType: string(raw[:i]), Data: data}, nil
}
