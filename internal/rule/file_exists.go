package rule

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileExists passes when Path exists under the project root. Directories
// satisfy the rule too; only existence is checked.
type FileExists struct {
	Base
	Path string `json:"path"`
}

func (FileExists) Kind() Kind       { return KindFileExists }
func (r FileExists) Target() string { return r.Path }
func (FileExists) isRule()          {}

func (r FileExists) Evaluate(projectRoot string) Outcome {
	full := filepath.Join(projectRoot, r.Path)
	details := fmt.Sprintf("Checked path: %s", full)

	if _, err := os.Stat(full); err != nil {
		return fail(fmt.Sprintf("File not found at %s", r.Path), details)
	}
	return pass(fmt.Sprintf("File exists at %s", r.Path), details)
}
