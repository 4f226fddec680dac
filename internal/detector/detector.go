// Package detector runs the full per-site analysis: artifact acquisition
// through the injected capabilities, the four similarity signals, and the
// weighted composite classification.
package detector

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fruzzinn/phishwatch/internal/capability"
	"github.com/fruzzinn/phishwatch/internal/domain"
	"github.com/fruzzinn/phishwatch/internal/monitoring"
	"github.com/fruzzinn/phishwatch/internal/similarity"
	"github.com/fruzzinn/phishwatch/internal/target"
)

// Composite score weights. The composite is always this fixed combination
// of the three component scores.
const (
	urlWeight     = 0.3
	contentWeight = 0.4
	visualWeight  = 0.3
)

// DefaultActiveThreshold is the composite score above which a site is
// classified active rather than monitoring. The boundary is strict.
const DefaultActiveThreshold = 65.0

// Detector analyzes one suspect URL at a time against the target profile.
// It has no database access; persistence is the caller's concern.
type Detector struct {
	profile         *target.Profile
	capturer        capability.ScreenshotCapturer
	resolver        capability.DomainResolver
	fetcher         capability.HTMLFetcher
	confidence      similarity.ConfidenceScorer
	metrics         *monitoring.Metrics
	logger          *zap.Logger
	screenshotDir   string
	activeThreshold float64
}

func New(
	profile *target.Profile,
	capturer capability.ScreenshotCapturer,
	resolver capability.DomainResolver,
	fetcher capability.HTMLFetcher,
	confidence similarity.ConfidenceScorer,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
	screenshotDir string,
	activeThreshold float64,
) *Detector {
	return &Detector{
		profile:         profile,
		capturer:        capturer,
		resolver:        resolver,
		fetcher:         fetcher,
		confidence:      confidence,
		metrics:         metrics,
		logger:          logger,
		screenshotDir:   screenshotDir,
		activeThreshold: activeThreshold,
	}
}

// Composite combines the three component scores with the fixed weights.
func Composite(urlScore, contentScore, visualScore float64) float64 {
	return urlScore*urlWeight + contentScore*contentWeight + visualScore*visualWeight
}

// Classify maps a composite score to a site status.
func (d *Detector) Classify(composite float64) string {
	if composite > d.activeThreshold {
		return domain.StatusActive
	}
	return domain.StatusMonitoring
}

// CheckSite performs the full analysis of a suspect URL against the given
// logical target page. Capability failures degrade the affected score to
// its neutral value; only an unusable URL is an error.
func (d *Detector) CheckSite(ctx context.Context, rawURL, targetPage string) (*domain.SiteAnalysisResult, error) {
	started := time.Now()
	defer func() {
		d.metrics.ObserveCheckDuration(time.Since(started).Seconds())
	}()
	d.metrics.IncSitesChecked()

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("unusable url %q", rawURL)
	}
	host := parsed.Host

	siteID := "ps-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	shotPath := filepath.Join(d.screenshotDir,
		fmt.Sprintf("%s_%d.png", strings.ReplaceAll(host, ".", "_"), time.Now().Unix()))
	screenshotOK := true
	if err := d.capturer.Capture(ctx, rawURL, shotPath); err != nil {
		d.logger.Warn("screenshot capture failed", zap.String("url", rawURL), zap.Error(err))
		d.metrics.IncErrorsTotal("screenshot_failed")
		screenshotOK = false
	}

	info, err := d.resolver.Resolve(ctx, host)
	if err != nil {
		d.logger.Warn("domain resolution incomplete", zap.String("host", host), zap.Error(err))
		d.metrics.IncErrorsTotal("resolve_failed")
	}

	htmlContent, err := d.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		d.logger.Warn("html fetch failed", zap.String("url", rawURL), zap.Error(err))
		d.metrics.IncErrorsTotal("fetch_failed")
		htmlContent = ""
	}

	urlScore := similarity.URLScore(rawURL, d.profile.Domain)
	content := d.analyzeContent(ctx, htmlContent, targetPage)

	visualScore := 0.0
	if screenshotOK {
		d.ensureReferenceScreenshot(ctx, targetPage)
		visualScore = similarity.VisualScore(shotPath, d.profile.ScreenshotPath(targetPage))
	}

	composite := Composite(urlScore, content.Score, visualScore)

	result := &domain.SiteAnalysisResult{
		ID:                siteID,
		URL:               rawURL,
		Domain:            host,
		TargetPage:        targetPage,
		Status:            d.Classify(composite),
		SimilarityScore:   composite,
		URLSimilarity:     urlScore,
		ContentSimilarity: content.Score,
		VisualSimilarity:  visualScore,
		MLConfidence:      d.confidence.Confidence(composite),
		FeaturesDetected:  content.Features,
		HasLoginForm:      content.HasLoginForm,
		HasTammLogo:       content.HasLogo,
		FormTargets:       content.FormTargets,
		HTMLContent:       htmlContent,
		DomainInfo:        info,
	}
	if screenshotOK {
		result.ScreenshotPath = shotPath
	}
	return result, nil
}

// analyzeContent fetches the reference page HTML and runs the structural
// and textual comparison. A reference fetch failure zeroes the content
// score rather than failing the check.
func (d *Detector) analyzeContent(ctx context.Context, candidateHTML, targetPage string) similarity.ContentAnalysis {
	if candidateHTML == "" {
		return similarity.AnalyzeContent("", "", d.profile)
	}
	referenceHTML, err := d.fetcher.Fetch(ctx, d.profile.PageURL(targetPage))
	if err != nil {
		d.logger.Warn("reference page fetch failed",
			zap.String("page", targetPage), zap.Error(err))
		d.metrics.IncErrorsTotal("reference_fetch_failed")
		referenceHTML = ""
	}
	return similarity.AnalyzeContent(candidateHTML, referenceHTML, d.profile)
}

// ensureReferenceScreenshot lazily captures the reference screenshot for a
// page the first time it is needed. Capture is idempotent and the write is
// atomic, so a concurrent first use of the same page is harmless.
func (d *Detector) ensureReferenceScreenshot(ctx context.Context, targetPage string) {
	path := d.profile.ScreenshotPath(targetPage)
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := d.capturer.Capture(ctx, d.profile.PageURL(targetPage), path); err != nil {
		d.logger.Warn("reference screenshot capture failed",
			zap.String("page", targetPage), zap.Error(err))
		d.metrics.IncErrorsTotal("reference_screenshot_failed")
	}
}
