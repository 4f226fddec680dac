package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fruzzinn/phishwatch/internal/domain"
	"github.com/fruzzinn/phishwatch/internal/monitoring"
	"github.com/fruzzinn/phishwatch/internal/typosquat"
)

// DefaultPersistThreshold is the composite score a site must exceed
// (strictly) to be persisted by a scan.
const DefaultPersistThreshold = 50.0

// SiteChecker is the detector surface the orchestrator drives.
type SiteChecker interface {
	CheckSite(ctx context.Context, url, targetPage string) (*domain.SiteAnalysisResult, error)
}

// SiteStore is the persistence surface the orchestrator writes through.
// FindByURL returns (nil, nil) when the URL has no record.
type SiteStore interface {
	Persist(ctx context.Context, record *domain.SiteRecord) error
	FindByURL(ctx context.Context, url string) (*domain.SiteRecord, error)
	TouchLastChecked(ctx context.Context, id string) error
}

// RecheckCache short-circuits URLs checked within the TTL so a scan does
// not hit the database for every typosquat candidate on every pass.
type RecheckCache interface {
	MarkChecked(ctx context.Context, url string, ttl time.Duration) error
	IsRecentlyChecked(ctx context.Context, url string) (bool, error)
}

// Orchestrator assembles scan worklists and runs them sequentially in the
// background. The loop is deliberately single-threaded with a fixed pause
// between checks: scanned hosts are adversarial and quick to rate-limit or
// cloak when probed aggressively.
type Orchestrator struct {
	checker          SiteChecker
	store            SiteStore
	cache            RecheckCache
	registry         Registry
	generator        *typosquat.Generator
	metrics          *monitoring.Metrics
	logger           *zap.Logger
	targetDomain     string
	checkInterval    time.Duration
	recheckTTL       time.Duration
	persistThreshold float64
}

func NewOrchestrator(
	checker SiteChecker,
	store SiteStore,
	cache RecheckCache,
	registry Registry,
	generator *typosquat.Generator,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
	targetDomain string,
	checkInterval time.Duration,
	recheckTTL time.Duration,
	persistThreshold float64,
) *Orchestrator {
	return &Orchestrator{
		checker:          checker,
		store:            store,
		cache:            cache,
		registry:         registry,
		generator:        generator,
		metrics:          metrics,
		logger:           logger,
		targetDomain:     targetDomain,
		checkInterval:    checkInterval,
		recheckTTL:       recheckTTL,
		persistThreshold: persistThreshold,
	}
}

// GenerateTyposquats exposes the candidate-domain generator.
func (o *Orchestrator) GenerateTyposquats(host string) []string {
	return o.generator.Generate(host)
}

// Start assembles the worklist, registers the scan and launches the
// background task. The returned state is the scan's initial snapshot.
func (o *Orchestrator) Start(ctx context.Context, req domain.ScanRequest) (string, domain.ScanState) {
	scanID := "scan-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	worklist := append([]string{}, req.URLs...)
	if req.CheckTyposquatting == nil || *req.CheckTyposquatting {
		for _, candidate := range o.generator.Generate(o.targetDomain) {
			worklist = append(worklist, "http://"+candidate, "https://"+candidate)
		}
	}

	now := time.Now().UTC()
	state := &domain.ScanState{
		ScanID:              scanID,
		Status:              domain.ScanStarting,
		Progress:            0,
		SitesFound:          0,
		StartedAt:           now,
		EstimatedCompletion: now.Add(time.Duration(len(worklist)/10+1) * time.Minute),
		Worklist:            worklist,
	}
	o.registry.Create(state)
	o.metrics.IncScansStarted()
	o.logger.Info("scan started",
		zap.String("scan_id", scanID), zap.Int("worklist", len(worklist)))

	// Snapshot before the scan task starts mutating the registry entry; any
	// later read must go through the registry lock.
	initial := *state
	go o.run(ctx, scanID, worklist)

	return scanID, initial
}

// Poll returns a snapshot of a scan's state.
func (o *Orchestrator) Poll(scanID string) (domain.ScanState, bool) {
	return o.registry.Get(scanID)
}

// run is the owning task for one scan: it is the only writer of the scan's
// registry entry. Per-URL failures are logged and skipped; only an
// orchestration-level failure moves the scan to the error state.
func (o *Orchestrator) run(ctx context.Context, scanID string, worklist []string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("scan failed", zap.String("scan_id", scanID), zap.Any("panic", r))
			o.registry.Update(scanID, func(s *domain.ScanState) {
				s.Status = domain.ScanError
				s.Error = fmt.Sprint(r)
			})
		}
	}()

	o.registry.Update(scanID, func(s *domain.ScanState) {
		s.Status = domain.ScanRunning
	})

	limiter := rate.NewLimiter(rate.Every(o.checkInterval), 1)
	total := len(worklist)

	for i, url := range worklist {
		if err := limiter.Wait(ctx); err != nil {
			o.logger.Error("scan interrupted", zap.String("scan_id", scanID), zap.Error(err))
			o.registry.Update(scanID, func(s *domain.ScanState) {
				s.Status = domain.ScanError
				s.Error = err.Error()
			})
			return
		}

		o.registry.Update(scanID, func(s *domain.ScanState) {
			s.Progress = float64(i) / float64(total)
		})

		if err := o.checkOne(ctx, scanID, url); err != nil {
			o.logger.Warn("site check failed, continuing scan",
				zap.String("scan_id", scanID), zap.String("url", url), zap.Error(err))
			o.metrics.IncErrorsTotal("site_check_failed")
		}
	}

	o.registry.Update(scanID, func(s *domain.ScanState) {
		s.Status = domain.ScanCompleted
		s.Progress = 1.0
	})
	o.logger.Info("scan completed", zap.String("scan_id", scanID))
}

func (o *Orchestrator) checkOne(ctx context.Context, scanID, url string) error {
	if o.cache != nil {
		if recent, err := o.cache.IsRecentlyChecked(ctx, url); err != nil {
			o.logger.Debug("recheck cache lookup failed", zap.String("url", url), zap.Error(err))
		} else if recent {
			return nil
		}
	}

	existing, err := o.store.FindByURL(ctx, url)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", url, err)
	}
	if existing != nil {
		// Known site: refresh the check timestamp only.
		if err := o.store.TouchLastChecked(ctx, existing.ID); err != nil {
			return fmt.Errorf("touch %s: %w", existing.ID, err)
		}
		o.markChecked(ctx, url)
		return nil
	}

	result, err := o.checker.CheckSite(ctx, url, InferTargetPage(url))
	if err != nil {
		return err
	}

	if result.SimilarityScore > o.persistThreshold {
		now := time.Now().UTC()
		record := &domain.SiteRecord{
			SiteAnalysisResult: *result,
			FirstDetected:      now,
			LastChecked:        now,
		}
		if err := o.store.Persist(ctx, record); err != nil {
			o.metrics.IncErrorsTotal("db_save_failed")
			return fmt.Errorf("persist %s: %w", url, err)
		}
		o.metrics.IncSitesDetected()
		o.registry.Update(scanID, func(s *domain.ScanState) {
			s.SitesFound++
		})
	}

	o.markChecked(ctx, url)
	return nil
}

func (o *Orchestrator) markChecked(ctx context.Context, url string) {
	if o.cache == nil {
		return
	}
	if err := o.cache.MarkChecked(ctx, url, o.recheckTTL); err != nil {
		o.logger.Debug("recheck cache mark failed", zap.String("url", url), zap.Error(err))
	}
}

// InferTargetPage guesses which logical page of the target a suspect URL
// imitates from keywords in the URL itself.
func InferTargetPage(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "login"):
		return "login"
	case strings.Contains(lower, "business"):
		return "business-services"
	case strings.Contains(lower, "payment"):
		return "payments"
	default:
		return "main"
	}
}
