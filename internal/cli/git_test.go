package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGitBranch(t *testing.T) {
	tests := []struct {
		name string
		head string
		want string
	}{
		{"branch", "ref: refs/heads/feature/login\n", "feature/login"},
		{"detached", "3f1c2a9d8e7b6a5f4e3d2c1b0a9f8e7d6c5b4a39\n", "3f1c2a9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, ".git/HEAD", tt.head)
			if got := gitBranch(root); got != tt.want {
				t.Errorf("gitBranch = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGitBranch_Worktree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gitdir/HEAD", "ref: refs/heads/release\n")
	writeFile(t, root, ".git", "gitdir: gitdir\n")

	if got := gitBranch(root); got != "release" {
		t.Errorf("gitBranch = %q, want release", got)
	}
}

func TestGitBranch_NotRepo(t *testing.T) {
	if got := gitBranch(t.TempDir()); got != "" {
		t.Errorf("gitBranch = %q, want empty", got)
	}
}

func TestPainter_NotTerminal(t *testing.T) {
	p := newPainter(&bytes.Buffer{})
	if got := p.red("x"); got != "x" {
		t.Errorf("buffer output colored: %q", got)
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if newPainter(f).enabled {
		t.Error("regular file treated as terminal")
	}
}
