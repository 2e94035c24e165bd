package waiver

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// Header opens a new waiver log.
const Header = "# Compliance Waivers\n\nFormal exceptions to compliance requirements.\nAll entries are immutable and timestamped for audit trail purposes.\n"

var (
	sectionLine = regexp.MustCompile(`^## Waiver: (W-\d+)\s*$`)
	fieldLine   = regexp.MustCompile(`^- \*\*([A-Za-z ]+)\*\*: ?(.*)$`)
)

const (
	fieldReason    = "Reason"
	fieldTimestamp = "Timestamp"
	fieldCreatedBy = "Created By"
	fieldRules     = "Related Rules"
)

// Backslashes and line breaks are escaped so multi-line values stay on one
// field line and read back unchanged.
var (
	escaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)
	unescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r")
)

// FormatEntry renders one waiver section, including its leading blank line.
func FormatEntry(w Waiver) string {
	var b strings.Builder
	b.WriteString("\n## Waiver: " + w.ID + "\n")
	b.WriteString("- **" + fieldReason + "**: " + escaper.Replace(w.Reason) + "\n")
	b.WriteString("- **" + fieldTimestamp + "**: " + w.Timestamp + "\n")
	if w.CreatedBy != "" {
		b.WriteString("- **" + fieldCreatedBy + "**: " + escaper.Replace(w.CreatedBy) + "\n")
	}
	if len(w.RelatedRules) > 0 {
		b.WriteString("- **" + fieldRules + "**: [" + strings.Join(w.RelatedRules, ", ") + "]\n")
	}
	return b.String()
}

// Parse reads waiver sections in file order. Sections without both a
// reason and a timestamp are skipped, as are unrecognised lines.
func Parse(data []byte) ([]Waiver, error) {
	var (
		out []Waiver
		cur *section
	)
	flush := func() {
		if cur != nil {
			if w, ok := cur.waiver(); ok {
				out = append(out, w)
			}
		}
		cur = nil
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if m := sectionLine.FindStringSubmatch(line); m != nil {
			flush()
			cur = &section{id: m[1], fields: map[string]string{}}
			continue
		}
		if cur == nil {
			continue
		}
		if m := fieldLine.FindStringSubmatch(line); m != nil {
			name := m[1]
			if _, dup := cur.fields[name]; !dup {
				cur.fields[name] = m[2]
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}

type section struct {
	id     string
	fields map[string]string
}

func (s *section) waiver() (Waiver, bool) {
	reason, okR := s.fields[fieldReason]
	ts, okT := s.fields[fieldTimestamp]
	if !okR || !okT {
		return Waiver{}, false
	}
	w := Waiver{
		ID:        s.id,
		Reason:    unescaper.Replace(reason),
		Timestamp: strings.TrimSpace(ts),
	}
	if by, ok := s.fields[fieldCreatedBy]; ok {
		w.CreatedBy = unescaper.Replace(by)
	}
	if rules, ok := s.fields[fieldRules]; ok {
		w.RelatedRules = parseRuleList(rules)
	}
	return w, true
}

func parseRuleList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
