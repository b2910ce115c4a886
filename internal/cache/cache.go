package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTTL is how long an entry stays fresh when the caller does not
// choose a TTL.
const DefaultTTL = 24 * time.Hour

// maxKeyLen keeps generated file names under common NAME_MAX limits.
const maxKeyLen = 180

// Store is a file-per-key JSON cache. Freshness is the file's mtime
// checked lazily on read; stale files stay on disk until overwritten.
//
// A Store whose directory cannot be created is disabled rather than
// broken: every Load misses and every Save drops, so callers never
// branch on cache health.
type Store struct {
	dir      string
	ttl      time.Duration
	disabled bool
}

// New opens (and if needed creates) a cache directory. A non-positive ttl
// means DefaultTTL. Directory creation failure disables the store and is
// logged once here.
func New(dir string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{dir: dir, ttl: ttl}
	if dir == "" {
		s.disabled = true
		return s
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("cache directory unavailable, caching disabled")
		s.disabled = true
	}
	return s
}

// Disabled reports whether the store drops all reads and writes.
func (s *Store) Disabled() bool { return s == nil || s.disabled }

// TTL returns the freshness window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Load returns the bytes stored under key when present and fresh. Stale,
// missing, and unreadable entries all report a miss.
func (s *Store) Load(key string) ([]byte, bool) {
	if s.Disabled() || key == "" {
		return nil, false
	}
	p := s.pathFor(key)
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) >= s.ttl {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		return nil, false
	}
	return b, true
}

// Save writes data under key atomically, resetting its freshness clock.
// It reports whether the entry landed; failures are logged, not raised.
func (s *Store) Save(key string, data []byte) bool {
	if s.Disabled() || key == "" {
		return false
	}
	p := s.pathFor(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		return false
	}
	if err := os.Rename(tmp, p); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache rename failed")
		_ = os.Remove(tmp)
		return false
	}
	return true
}

// Clear removes every entry and recreates an empty cache directory. It is
// an operator action, not part of normal expiry.
func (s *Store) Clear() error {
	if s.Disabled() {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return err
	}
	return os.MkdirAll(s.dir, 0o755)
}

func (s *Store) pathFor(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Key builds a filesystem-safe cache key from parts. Every byte outside
// [A-Za-z0-9._-] becomes '_'; oversized keys are truncated with a digest
// suffix so distinct inputs stay distinct.
func Key(parts ...string) string {
	joined := strings.Join(parts, "_")
	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	key := b.String()
	if len(key) > maxKeyLen {
		h := sha256.Sum256([]byte(joined))
		key = key[:maxKeyLen] + "-" + hex.EncodeToString(h[:8])
	}
	return key
}
