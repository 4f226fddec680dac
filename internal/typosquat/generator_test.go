package typosquat

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fruzzinn/phishwatch/internal/target"
)

func newGenerator() *Generator {
	return New(target.Homographs())
}

func TestGenerateDeterministic(t *testing.T) {
	g := newGenerator()
	first := g.Generate("example.com")
	second := g.Generate("example.com")
	assert.Equal(t, first, second)
}

func TestGenerateDeletions(t *testing.T) {
	g := newGenerator()
	got := toSet(g.Generate("example.com"))

	base := "example"
	for i := range base {
		want := base[:i] + base[i+1:] + ".com"
		assert.Contains(t, got, want, "missing deletion variant at position %d", i)
	}
	assert.Contains(t, got, "exampl.com")
}

func TestGenerateTranspositions(t *testing.T) {
	g := newGenerator()
	got := toSet(g.Generate("example.com"))

	base := []byte("example")
	for i := 0; i < len(base)-1; i++ {
		swapped := append([]byte(nil), base...)
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
		assert.Contains(t, got, string(swapped)+".com",
			"missing transposition variant at position %d", i)
	}
	assert.Contains(t, got, "exmaple.com")
}

func TestGenerateTLDVariants(t *testing.T) {
	g := newGenerator()
	got := toSet(g.Generate("example.com"))

	assert.Contains(t, got, "example.org")
	assert.Contains(t, got, "example.net")
	assert.Contains(t, got, "example.xyz")
	// The original suffix is excluded from the swap rule; "example.com"
	// itself must not appear via TLD variation.
	assert.NotContains(t, got, "example.com")
}

func TestGeneratePrefixDecorations(t *testing.T) {
	g := newGenerator()
	got := toSet(g.Generate("example.com"))

	for _, prefix := range trustPrefixes {
		assert.Contains(t, got, prefix+"-example.com")
		assert.Contains(t, got, prefix+"example.com")
	}
	assert.Contains(t, got, "secure-example.com")
}

func TestGenerateHomographs(t *testing.T) {
	g := newGenerator()
	got := toSet(g.Generate("example.com"))

	// Cyrillic е substituted at the first position.
	assert.Contains(t, got, "еxample.com")
	// Diacritic variant in the middle.
	assert.Contains(t, got, "exàmple.com")
}

func TestGenerateStripsSubdomain(t *testing.T) {
	g := newGenerator()
	got := toSet(g.Generate("www.tamm.abudhabi"))

	// Variations apply to the registrable name, not the www label.
	assert.Contains(t, got, "tam.abudhabi")
	assert.Contains(t, got, "tmam.abudhabi")
	assert.Contains(t, got, "secure-tamm.abudhabi")
	for name := range got {
		assert.False(t, strings.HasPrefix(name, "www."), "variant %q kept subdomain", name)
	}
}

func TestGenerateSubstitutionsAndInsertions(t *testing.T) {
	g := newGenerator()
	got := toSet(g.Generate("ab.com"))

	// Every substitution differing from the original character.
	for _, c := range alphabet {
		if c != 'a' {
			assert.Contains(t, got, string(c)+"b.com")
		}
		if c != 'b' {
			assert.Contains(t, got, "a"+string(c)+".com")
		}
	}
	// Insertions at the front and between the two characters.
	assert.Contains(t, got, "xab.com")
	assert.Contains(t, got, "a-b.com")
}

func TestGeneratePropertyRandomDomains(t *testing.T) {
	g := newGenerator()
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 3 + rng.Intn(8)
		b := make([]byte, n)
		for i := range b {
			b[i] = byte('a' + rng.Intn(26))
		}
		base := string(b)
		domain := base + ".com"

		variants := g.Generate(domain)
		got := toSet(variants)

		// Deduplicated.
		require.Len(t, got, len(variants), "duplicates for %s", domain)

		// Deterministic.
		require.Equal(t, variants, g.Generate(domain))

		// Every deletion and adjacent transposition is present.
		for i := 0; i < n; i++ {
			require.Contains(t, got, base[:i]+base[i+1:]+".com")
		}
		for i := 0; i < n-1; i++ {
			swapped := []byte(base)
			swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
			require.Contains(t, got, string(swapped)+".com")
		}

		// Suffix preserved everywhere except the TLD-variation rule.
		for name := range got {
			if !strings.HasSuffix(name, ".com") {
				require.Equal(t, base, name[:strings.LastIndex(name, ".")],
					"non-.com variant %q must come from the TLD rule", name)
			}
		}
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
