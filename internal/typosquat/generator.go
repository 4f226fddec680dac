// Package typosquat generates the candidate domain universe a scan walks:
// every plausible misspelling, homograph, suffix swap and trust-prefix
// decoration of the protected domain.
package typosquat

import (
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789-"

var tldVariants = []string{".com", ".org", ".net", ".co", ".info", ".site", ".xyz"}

var trustPrefixes = []string{"secure", "login", "portal", "my", "account", "signin", "service"}

// Generator produces typosquatting variations of a domain. It is a pure
// function of its input and the injected homograph table.
type Generator struct {
	homographs map[rune][]rune
}

func New(homographs map[rune][]rune) *Generator {
	return &Generator{homographs: homographs}
}

// Generate returns the deduplicated set of candidate domains for the given
// domain, sorted for stable output. Variations are applied to the
// registrable-name portion only; the public suffix is preserved except by
// the TLD-variation rule.
func (g *Generator) Generate(domain string) []string {
	base, suffix := splitRegistrable(domain)
	if base == "" {
		return nil
	}

	seen := make(map[string]struct{})
	add := func(name string) {
		seen[name] = struct{}{}
	}

	runes := []rune(base)

	// Substitution and insertion at every position.
	for i := range runes {
		for _, c := range alphabet {
			if c != runes[i] {
				add(string(runes[:i]) + string(c) + string(runes[i+1:]) + suffix)
			}
			add(string(runes[:i]) + string(c) + string(runes[i:]) + suffix)
		}
	}

	// Single-character deletion.
	for i := range runes {
		add(string(runes[:i]) + string(runes[i+1:]) + suffix)
	}

	// Adjacent transposition.
	for i := 0; i < len(runes)-1; i++ {
		swapped := make([]rune, len(runes))
		copy(swapped, runes)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
		add(string(swapped) + suffix)
	}

	// Common TLD swaps, excluding the original suffix.
	for _, tld := range tldVariants {
		if tld != suffix {
			add(base + tld)
		}
	}

	// Homograph substitution, one position at a time.
	for i, r := range runes {
		for _, h := range g.homographs[r] {
			add(string(runes[:i]) + string(h) + string(runes[i+1:]) + suffix)
		}
	}

	// Trust-signaling prefixes, hyphenated and not.
	for _, prefix := range trustPrefixes {
		add(prefix + "-" + base + suffix)
		add(prefix + base + suffix)
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// splitRegistrable splits a host into its registrable name and dotted
// public suffix, e.g. "www.tamm.abudhabi" -> ("tamm", ".abudhabi").
func splitRegistrable(domain string) (base, suffix string) {
	host := strings.ToLower(strings.TrimSuffix(domain, "."))
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Not enough labels to carry a suffix; mutate the whole name.
		return host, ""
	}
	ps, _ := publicsuffix.PublicSuffix(host)
	base = strings.TrimSuffix(etld1, "."+ps)
	return base, "." + ps
}
