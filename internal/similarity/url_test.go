package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLScoreIdentity(t *testing.T) {
	score := URLScore("https://www.tamm.abudhabi/en/login", "www.tamm.abudhabi")
	assert.InDelta(t, 100, score, 1e-9)
}

func TestURLScoreCaseInsensitive(t *testing.T) {
	upper := URLScore("https://WWW.TAMM.ABUDHABI", "www.tamm.abudhabi")
	lower := URLScore("https://www.tamm.abudhabi", "www.tamm.abudhabi")
	assert.Equal(t, lower, upper)
	assert.InDelta(t, 100, upper, 1e-9)
}

func TestURLScoreEmptyGuard(t *testing.T) {
	assert.Zero(t, URLScore("", ""))
}

func TestURLScoreTyposquat(t *testing.T) {
	// One substitution against a 17-character target.
	score := URLScore("https://www.tamn.abudhabi", "www.tamm.abudhabi")
	assert.InDelta(t, (1-1.0/17)*100, score, 1e-9)

	// A completely different host scores low.
	far := URLScore("https://zzzzz.example", "www.tamm.abudhabi")
	assert.Less(t, far, 40.0)
}

func TestURLScoreBareHost(t *testing.T) {
	// Inputs without a scheme are treated as hosts directly.
	score := URLScore("www.tamm.abudhabi", "www.tamm.abudhabi")
	assert.InDelta(t, 100, score, 1e-9)
}
