// Package capability defines the external capabilities the detection core
// depends on and their production adapters. The core only sees these
// interfaces, so tests run against deterministic fakes with no browser,
// network or WHOIS dependency.
package capability

import (
	"context"

	"github.com/fruzzinn/phishwatch/internal/domain"
)

// ScreenshotCapturer renders a URL and writes a raster screenshot to
// outPath. The write must be atomic (write-then-rename) so concurrent
// capture of the same reference page cannot leave a torn file.
type ScreenshotCapturer interface {
	Capture(ctx context.Context, url, outPath string) error
}

// DomainResolver gathers network and registration metadata for a host.
// Partial results are valid: any lookup that fails leaves its fields empty.
type DomainResolver interface {
	Resolve(ctx context.Context, host string) (domain.DomainInfo, error)
}

// HTMLFetcher retrieves the raw HTML of a URL. Implementations accept
// invalid TLS, since the hosts being fetched are adversarial.
type HTMLFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
