// Package similarity implements the four scoring signals a suspect site is
// judged by: lexical distance of its host, visual distance of its
// screenshot, structural and textual distance of its DOM, and the synthetic
// classifier confidence derived from the composite.
package similarity

import (
	"net/url"
	"strings"

	"github.com/agnivade/levenshtein"
)

// URLScore returns the lexical similarity (0-100) between the host of a
// suspect URL and the target domain, based on normalized edit distance.
func URLScore(rawURL, targetDomain string) float64 {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return hostScore(host, targetDomain)
}

func hostScore(host, targetDomain string) float64 {
	host = strings.ToLower(host)
	targetDomain = strings.ToLower(targetDomain)

	maxLen := len([]rune(host))
	if n := len([]rune(targetDomain)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}

	distance := levenshtein.ComputeDistance(host, targetDomain)
	return (1 - float64(distance)/float64(maxLen)) * 100
}
