package waiver

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/specguard/internal/lockfile"
)

// RelPath is the waiver log location relative to the project root.
const RelPath = ".specify/waivers.md"

// Store reads and appends the waiver log of one project. The log is re-read
// on every query.
type Store struct {
	path string
	now  func() time.Time
	log  *slog.Logger
}

// NewStore returns a store for the waiver log under projectRoot.
func NewStore(projectRoot string) *Store {
	return &Store{
		path: filepath.Join(projectRoot, filepath.FromSlash(RelPath)),
		now:  time.Now,
		log:  slog.Default(),
	}
}

// Path returns the waiver log path.
func (s *Store) Path() string { return s.path }

func (s *Store) lockPath() string {
	return filepath.Join(filepath.Dir(s.path), "waivers.lock")
}

// Create validates the inputs, assigns the next id, stamps the current UTC
// time and appends the waiver to the log. Nothing is written when
// validation fails.
func (s *Store) Create(reason string, relatedRules []string, createdBy string) (*Waiver, error) {
	reason, rules, createdBy, err := normalize(reason, relatedRules, createdBy)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create waiver directory: %w", err)
	}
	lock, err := lockfile.TryAcquire(s.lockPath())
	if errors.Is(err, lockfile.ErrAlreadyLocked) {
		s.log.Info("waiting for another waiver to be recorded", "lock", s.lockPath())
		lock, err = lockfile.Acquire(s.lockPath())
	}
	if err != nil {
		return nil, fmt.Errorf("lock waiver log: %w", err)
	}
	defer lock.Release()

	existing, err := s.List()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(existing))
	for i, w := range existing {
		ids[i] = w.ID
	}

	w := &Waiver{
		ID:           NextID(ids),
		Reason:       reason,
		Timestamp:    s.now().UTC().Format(TimestampFormat),
		RelatedRules: rules,
		CreatedBy:    createdBy,
	}
	if err := s.Append(*w); err != nil {
		return nil, err
	}
	return w, nil
}

// Append writes one entry to the end of the log, writing the header first
// when the log is new or empty. The caller assigns the id.
func (s *Store) Append(w Waiver) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create waiver directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open waiver log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat waiver log: %w", err)
	}
	entry := FormatEntry(w)
	if info.Size() == 0 {
		entry = Header + entry
	}
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append waiver %s: %w", w.ID, err)
	}
	return f.Sync()
}

// List returns every waiver in append order. A missing log yields an empty list.
func (s *Store) List() ([]Waiver, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read waiver log: %w", err)
	}
	ws, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse waiver log: %w", err)
	}
	return ws, nil
}

// Get returns the waiver with the given id, or (nil, nil) when absent.
func (s *Store) Get(id string) (*Waiver, error) {
	ws, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range ws {
		if ws[i].ID == id {
			return &ws[i], nil
		}
	}
	return nil, nil
}

// ByRule maps each rule id to the last waiver in the log that names it.
func ByRule(ws []Waiver) map[string]Waiver {
	m := make(map[string]Waiver)
	for _, w := range ws {
		for _, r := range w.RelatedRules {
			m[r] = w
		}
	}
	return m
}
