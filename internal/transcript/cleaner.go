// Package transcript applies user-defined substitutions to recognized speech
// before it reaches the session controllers ("java script => JavaScript").
package transcript

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

type substitution struct {
	re          *regexp.Regexp
	replacement string
}

// Cleaner rewrites transcripts using literal rules loaded from a file. A
// missing or empty path yields a pass-through cleaner.
type Cleaner struct {
	rules []substitution
}

// NewCleaner loads "from => to" rules, one per line. Blank lines and lines
// starting with # are skipped. Matching is case-insensitive.
func NewCleaner(path string) (*Cleaner, error) {
	if strings.TrimSpace(path) == "" {
		return &Cleaner{}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Cleaner{}, nil
		}
		return nil, fmt.Errorf("failed to read transcript rules %q: %w", path, err)
	}

	rules, err := parseSubstitutions(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcript rules %q: %w", path, err)
	}
	return &Cleaner{rules: rules}, nil
}

// Clean applies every rule once, in file order.
func (c *Cleaner) Clean(text string) string {
	for _, rule := range c.rules {
		text = rule.re.ReplaceAllString(text, rule.replacement)
	}
	return text
}

func parseSubstitutions(contents string) ([]substitution, error) {
	var rules []substitution
	for index, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=>", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected \"from => to\"", index+1)
		}
		from := strings.TrimSpace(parts[0])
		to := strings.TrimSpace(parts[1])
		if from == "" {
			return nil, fmt.Errorf("line %d: rule source cannot be empty", index+1)
		}

		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(from))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		rules = append(rules, substitution{re: re, replacement: to})
	}
	return rules, nil
}
