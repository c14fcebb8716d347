package parse

import (
	"regexp"
	"strings"
)

// DefaultDomain is used when a response never self-identifies its topic.
const DefaultDomain = "General Programming"

var domainRe = regexp.MustCompile(`(?i)(?:domain|topic|area|field|subject|category)\s*:\s*([A-Za-z0-9 +#-]+)`)

// DetectDomain scans a response line by line for a self-identified technical
// domain ("Domain: SQL", "## Topic: System Design", ...) and returns the first
// match, or DefaultDomain when nothing matches.
func DetectDomain(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if m := domainRe.FindStringSubmatch(line); m != nil {
			label := strings.TrimSpace(m[1])
			if label != "" {
				return label
			}
		}
	}
	return DefaultDomain
}
