package guide

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReferencesDir holds shared implementation guides (non-recursive).
var ReferencesDir = filepath.Join("context", "references")

// SpecsDir holds feature specs, searched recursively.
const SpecsDir = "specs"

// TrackedDirs are the project-relative directories guides are discovered in.
func TrackedDirs() []string {
	return []string{ReferencesDir, SpecsDir}
}

// Discover returns guide paths under projectRoot: context/references/*.md
// followed by specs/**/*.md, each group sorted. Missing directories are skipped.
func Discover(projectRoot string) ([]string, error) {
	refs, err := filepath.Glob(filepath.Join(projectRoot, ReferencesDir, "*.md"))
	if err != nil {
		return nil, err
	}
	guides := make([]string, 0, len(refs))
	for _, p := range refs {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			guides = append(guides, p)
		}
	}
	sort.Strings(guides)

	specs, err := walkMarkdown(filepath.Join(projectRoot, SpecsDir))
	if err != nil {
		return nil, err
	}
	return append(guides, specs...), nil
}

// walkMarkdown returns every .md file under dir, sorted. A missing dir yields
// nil; unreadable subdirectories are skipped.
func walkMarkdown(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("skipping unreadable path", "path", path, "error", err)
			}
			return SkipUnreadable(d)
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// SkipUnreadable is the WalkDir callback result for a path that could not be
// read: the directory is skipped and the walk goes on.
func SkipUnreadable(d fs.DirEntry) error {
	if d == nil || d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}
