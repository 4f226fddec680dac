// Package target holds the static description of the protected site that
// every similarity scorer compares against.
package target

import (
	"encoding/json"
	"fmt"
	"os"
)

// Profile describes the protected site: one canonical URL and reference
// screenshot per logical page, plus the brand fingerprints the content
// scorer looks for. Loaded once at startup and immutable afterwards.
type Profile struct {
	Domain           string            `json:"domain"`
	URL              string            `json:"url"`
	Pages            map[string]string `json:"pages"`
	Screenshots      map[string]string `json:"screenshots"`
	LogoHashes       []string          `json:"logo_hashes"`
	TextFingerprints []string          `json:"text_fingerprints"`
	BrandTerms       []string          `json:"brand_terms"`
}

// PageURL returns the canonical URL for a logical page, falling back to the
// main page for unknown names.
func (p *Profile) PageURL(page string) string {
	if u, ok := p.Pages[page]; ok {
		return u
	}
	return p.Pages["main"]
}

// ScreenshotPath returns the reference screenshot location for a logical
// page, falling back to the main page for unknown names.
func (p *Profile) ScreenshotPath(page string) string {
	if s, ok := p.Screenshots[page]; ok {
		return s
	}
	return p.Screenshots["main"]
}

// Default returns the built-in profile for the Tamm Abu Dhabi portal.
func Default() *Profile {
	return &Profile{
		Domain: "www.tamm.abudhabi",
		URL:    "https://www.tamm.abudhabi/",
		Pages: map[string]string{
			"main":              "https://www.tamm.abudhabi/",
			"login":             "https://www.tamm.abudhabi/en/login",
			"business-services": "https://www.tamm.abudhabi/en/business-services",
			"payments":          "https://www.tamm.abudhabi/en/payments",
		},
		Screenshots: map[string]string{
			"main":              "screenshots/tamm_main.png",
			"login":             "screenshots/tamm_login.png",
			"business-services": "screenshots/tamm_business.png",
			"payments":          "screenshots/tamm_payments.png",
		},
		LogoHashes: []string{
			"a1b2c3d4e5f6",
			"f6e5d4c3b2a1",
		},
		TextFingerprints: []string{
			"Abu Dhabi Government Services",
			"Tamm",
			"Smart Abu Dhabi",
			"Digital Government",
		},
		BrandTerms: []string{"tamm", "abu dhabi", "abudhabi"},
	}
}

// Load reads a profile from a JSON file. An empty path returns the default.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read target profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse target profile: %w", err)
	}
	if p.Domain == "" || len(p.Pages) == 0 {
		return nil, fmt.Errorf("target profile %s missing domain or pages", path)
	}
	return &p, nil
}
