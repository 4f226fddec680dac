package domain

import "time"

// Site lifecycle statuses.
const (
	StatusActive     = "active"
	StatusMonitoring = "monitoring"
	StatusTakenDown  = "taken-down"
)

// Scan lifecycle statuses.
const (
	ScanStarting  = "starting"
	ScanRunning   = "running"
	ScanCompleted = "completed"
	ScanError     = "error"
)

// Feature tags emitted by the content analyzer. Additive, not mutually exclusive.
const (
	FeatureFakeLogin      = "fake-login"
	FeatureLogoClone      = "logo-clone"
	FeatureSSLEmphasis    = "ssl-emphasis"
	FeatureSimilarLayout  = "similar-layout"
	FeatureDataHarvesting = "data-harvesting"
	FeaturePaymentForm    = "payment-form"
	FeatureDocumentUpload = "document-upload"
	FeatureSSLValid       = "ssl-valid"
	FeatureSSLMissing     = "ssl-missing"
)

// FormTarget records where a form on a suspect page submits its data.
// Action is "self" when the form has no action attribute.
type FormTarget struct {
	Action string `json:"action"`
	Method string `json:"method"`
}

// DomainInfo holds network and registration metadata for a suspect host.
// Any field may be empty when the corresponding lookup failed.
type DomainInfo struct {
	Domain          string     `json:"domain"`
	IPAddress       string     `json:"ip_address,omitempty"`
	CountryCode     string     `json:"country_code,omitempty"`
	HostingProvider string     `json:"hosting_provider,omitempty"`
	Registrar       string     `json:"registrar,omitempty"`
	CreationDate    *time.Time `json:"creation_date,omitempty"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`
}

// SiteAnalysisResult is the outcome of a single suspect-URL check.
// SimilarityScore is always the fixed weighted combination of the three
// component scores and is never mutated independently of them.
type SiteAnalysisResult struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Domain     string `json:"domain"`
	TargetPage string `json:"target_page"`
	Status     string `json:"status"`

	SimilarityScore   float64 `json:"similarity_score"`
	URLSimilarity     float64 `json:"url_similarity"`
	ContentSimilarity float64 `json:"content_similarity"`
	VisualSimilarity  float64 `json:"visual_similarity"`
	MLConfidence      float64 `json:"ml_confidence"`

	FeaturesDetected []string     `json:"features_detected"`
	HasLoginForm     bool         `json:"has_login_form"`
	HasTammLogo      bool         `json:"has_tamm_logo"`
	FormTargets      []FormTarget `json:"form_targets"`

	HTMLContent    string `json:"html_content,omitempty"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`

	DomainInfo DomainInfo `json:"domain_info"`
}

// SiteRecord is the persisted form of an analysis result plus the
// operator-maintained mitigation fields. The detection core writes a record
// once at insert; everything under the operator section is updated only
// through the API.
type SiteRecord struct {
	SiteAnalysisResult

	FirstDetected time.Time `json:"first_detected"`
	LastChecked   time.Time `json:"last_checked"`

	IsReported        bool              `json:"is_reported"`
	ReportDetails     map[string]string `json:"report_details,omitempty"`
	Blocked           bool              `json:"blocked"`
	Notes             string            `json:"notes,omitempty"`
	TakedownRequested *time.Time        `json:"takedown_requested,omitempty"`
	TakenDownDate     *time.Time        `json:"taken_down_date,omitempty"`
}

// ScanRequest is the payload for starting a scan. CheckTyposquatting left
// unset means true: a bare request sweeps the full typosquat universe.
type ScanRequest struct {
	URLs               []string `json:"urls"`
	CheckTyposquatting *bool    `json:"check_typosquatting"`
	Depth              int      `json:"depth"`
}

// ScanState tracks the progress of one background scan. It is created when
// the scan is requested, mutated only by the owning scan task, and read by
// status pollers until the retention window evicts it.
type ScanState struct {
	ScanID              string    `json:"scan_id"`
	Status              string    `json:"status"`
	Progress            float64   `json:"progress"`
	SitesFound          int       `json:"sites_found"`
	StartedAt           time.Time `json:"started_at"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
	Error               string    `json:"error,omitempty"`

	Worklist []string `json:"-"`
}

// SiteFilter narrows and pages the persisted-site listing.
type SiteFilter struct {
	Status        string
	TargetPage    string
	MinSimilarity float64
	Days          int
	Search        string
	SortBy        string
	SortOrder     string
	Page          int
	PageSize      int
}

// SiteUpdate carries the operator-editable fields. Nil means unchanged.
type SiteUpdate struct {
	Status     *string `json:"status"`
	IsReported *bool   `json:"is_reported"`
	Blocked    *bool   `json:"blocked"`
	Notes      *string `json:"notes"`
}

// Stats aggregates the persisted records for the dashboard.
type Stats struct {
	TotalSites        int            `json:"total_sites"`
	ActiveSites       int            `json:"active_sites"`
	TakenDownSites    int            `json:"taken_down_sites"`
	AverageSimilarity float64        `json:"average_similarity"`
	ByTargetPage      map[string]int `json:"by_target_page"`
	ByCountry         map[string]int `json:"by_country"`
	ByStatus          map[string]int `json:"by_status"`
	DetectionTrend    map[string]int `json:"detection_trend"`
}
