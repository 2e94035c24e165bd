// Package cache memoizes guide discovery keyed by a hash of the tracked
// directories.
package cache

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
	"strings"
	"time"

	"github.com/ppiankov/specguard/internal/guide"
)

// RelPath is the cache file location relative to the project root.
const RelPath = ".specify/.cache/guides_cache.txt"

// DefaultTTL is how long a saved discovery stays valid.
const DefaultTTL = time.Hour

// Manager owns the guide discovery cache file of one project.
type Manager struct {
	root string
	ttl  time.Duration
	now  func() time.Time
}

// NewManager returns a cache manager for projectRoot. A non-positive ttl
// selects DefaultTTL.
func NewManager(projectRoot string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{root: projectRoot, ttl: ttl, now: time.Now}
}

// Path returns the cache file path.
func (m *Manager) Path() string {
	return filepath.Join(m.root, filepath.FromSlash(RelPath))
}

// Guides returns the cached guide paths. ok is false when the cache file is
// missing or unreadable, older than the TTL, or was saved for a different
// project hash.
func (m *Manager) Guides() (guides []string, ok bool) {
	path := m.Path()
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if m.now().Sub(info.ModTime()) > m.ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	stored, rels := decode(data)
	if stored == "" {
		return nil, false
	}
	current, err := ProjectHash(m.root)
	if err != nil || current != stored {
		return nil, false
	}

	guides = make([]string, len(rels))
	for i, rel := range rels {
		guides[i] = filepath.Join(m.root, filepath.FromSlash(rel))
	}
	return guides, true
}

// Save records guides under the current project hash. Paths are stored
// relative to the project root. Writes are atomic.
func (m *Manager) Save(guides []string) error {
	hash, err := ProjectHash(m.root)
	if err != nil {
		return fmt.Errorf("hash project: %w", err)
	}

	var b strings.Builder
	b.WriteString(hash + "\n")
	for _, g := range guides {
		rel, err := filepath.Rel(m.root, g)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", g, err)
		}
		b.WriteString(filepath.ToSlash(rel) + "\n")
	}

	path := m.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	return os.Rename(tmp, path)
}

// Clear removes the cache file. A missing file is not an error.
func (m *Manager) Clear() error {
	err := os.Remove(m.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ProjectHash folds "relpath:mtime" of every markdown file under the tracked
// directories into one SHA-256 digest. Any add, remove or modification
// changes the hash.
func ProjectHash(projectRoot string) (string, error) {
	var entries []string
	for _, dir := range guide.TrackedDirs() {
		base := filepath.Join(projectRoot, dir)
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return guide.SkipUnreadable(d)
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				// Removed between listing and stat.
				return nil
			}
			rel, err := filepath.Rel(projectRoot, path)
			if err != nil {
				return err
			}
			entries = append(entries, fmt.Sprintf("%s:%d", filepath.ToSlash(rel), info.ModTime().UnixNano()))
			return nil
		})
		if err != nil {
			return "", err
		}
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func decode(data []byte) (hash string, paths []string) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			hash = line
			first = false
			continue
		}
		if line != "" {
			paths = append(paths, line)
		}
	}
	return hash, paths
}
