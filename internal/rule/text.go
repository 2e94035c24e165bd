package rule

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TextIncludes passes when File contains Text. Comparison is case-sensitive
// unless CaseSensitive is false.
type TextIncludes struct {
	Base
	File          string `json:"file"`
	Text          string `json:"text"`
	CaseSensitive bool   `json:"case_sensitive"`
}

func (TextIncludes) Kind() Kind       { return KindTextIncludes }
func (r TextIncludes) Target() string { return r.File }
func (TextIncludes) isRule()          {}

func (r TextIncludes) Evaluate(projectRoot string) Outcome {
	full := filepath.Join(projectRoot, r.File)

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(
				fmt.Sprintf("File not found: %s", r.File),
				fmt.Sprintf("Expected file at: %s", full),
			)
		}
		return fail(
			fmt.Sprintf("Could not read file: %s", r.File),
			fmt.Sprintf("Error: %v", err),
		)
	}

	content, needle := string(data), r.Text
	if !r.CaseSensitive {
		content, needle = strings.ToLower(content), strings.ToLower(needle)
	}

	n := strings.Count(content, needle)
	if n == 0 {
		sensitivity := "sensitive"
		if !r.CaseSensitive {
			sensitivity = "insensitive"
		}
		return fail(
			fmt.Sprintf("Pattern not found in %s", r.File),
			fmt.Sprintf("Searched for: '%s' (case %s)", r.Text, sensitivity),
		)
	}

	plural := "s"
	if n == 1 {
		plural = ""
	}
	return pass(
		fmt.Sprintf("Pattern found in %s", r.File),
		fmt.Sprintf("Pattern '%s' found (%d occurrence%s)", r.Text, n, plural),
	)
}
