package rule

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DependencyPresent passes when the manifest File mentions Package. Version is
// advisory: it is located heuristically and never compared semantically.
type DependencyPresent struct {
	Base
	File    string `json:"file"`
	Package string `json:"package"`
	Version string `json:"version,omitempty"`
}

func (DependencyPresent) Kind() Kind       { return KindDependencyPresent }
func (r DependencyPresent) Target() string { return r.File }
func (DependencyPresent) isRule()          {}

func (r DependencyPresent) Evaluate(projectRoot string) Outcome {
	manifest := filepath.Join(projectRoot, r.File)

	data, err := os.ReadFile(manifest)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail(
				fmt.Sprintf("Manifest file not found: %s", r.File),
				fmt.Sprintf("Expected manifest at: %s", manifest),
			)
		}
		return fail(
			fmt.Sprintf("Could not read manifest file: %s", r.File),
			fmt.Sprintf("Error: %v", err),
		)
	}
	content := string(data)

	if !strings.Contains(content, r.Package) {
		return fail(
			fmt.Sprintf("Package '%s' not declared in %s", r.Package, r.File),
			fmt.Sprintf("Searched in: %s", manifest),
		)
	}

	if r.Version == "" {
		return pass(
			fmt.Sprintf("Package '%s' declared in %s", r.Package, r.File),
			fmt.Sprintf("Found in: %s", manifest),
		)
	}

	if versionMentioned(content, r.Package, r.Version) {
		return pass(
			fmt.Sprintf("Package '%s' declared with version constraint in %s", r.Package, r.File),
			fmt.Sprintf("Version requirement: %s", r.Version),
		)
	}
	return pass(
		fmt.Sprintf("Package '%s' declared in %s", r.Package, r.File),
		fmt.Sprintf("Note: Version constraint '%s' not explicitly validated (semantic versioning deferred)", r.Version),
	)
}

// versionOperators are stripped from a constraint before it is searched for.
var versionOperators = strings.NewReplacer(">=", "", "~", "", ">", "", "<", "", "=", "")

// versionMentioned looks for the package name followed, on the same line, by
// the bare version token.
func versionMentioned(content, pkg, constraint string) bool {
	token := strings.TrimSpace(versionOperators.Replace(constraint))
	pattern := "(?i)" + regexp.QuoteMeta(pkg) + `[^\n]*` + regexp.QuoteMeta(token)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(content)
}
