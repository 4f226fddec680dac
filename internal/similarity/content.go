package similarity

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fruzzinn/phishwatch/internal/domain"
	"github.com/fruzzinn/phishwatch/internal/target"
)

// Texts longer than this are truncated before the sequence-ratio DP. Keeps
// the worst case bounded while template chrome still dominates the prefix.
const maxSequenceRunes = 4000

const (
	textWeight        = 0.4
	structureWeight   = 0.3
	fingerprintWeight = 0.3
	fingerprintPoints = 25
)

// ContentAnalysis is the structural/textual comparison of a suspect page
// against the reference page, plus the phishing indicators found in it.
type ContentAnalysis struct {
	Score        float64
	HasLogo      bool
	Features     []string
	HasLoginForm bool
	FormTargets  []domain.FormTarget
}

// AnalyzeContent compares a suspect page's HTML to the reference page and
// extracts phishing indicators. Empty or unparseable input degrades to a
// zeroed analysis rather than an error.
func AnalyzeContent(candidateHTML, referenceHTML string, profile *target.Profile) ContentAnalysis {
	if candidateHTML == "" || referenceHTML == "" {
		return ContentAnalysis{Features: []string{}, FormTargets: []domain.FormTarget{}}
	}

	candidate, err := goquery.NewDocumentFromReader(strings.NewReader(candidateHTML))
	if err != nil {
		return ContentAnalysis{Features: []string{}, FormTargets: []domain.FormTarget{}}
	}
	reference, err := goquery.NewDocumentFromReader(strings.NewReader(referenceHTML))
	if err != nil {
		return ContentAnalysis{Features: []string{}, FormTargets: []domain.FormTarget{}}
	}

	candidateText := visibleText(candidate)
	referenceText := visibleText(reference)

	textScore := sequenceRatio(candidateText, referenceText) * 100
	structureScore := tagSimilarity(tagCounts(candidate), tagCounts(reference))
	brandScore := fingerprintScore(candidateText, profile.TextFingerprints)

	score := textScore*textWeight + structureScore*structureWeight + brandScore*fingerprintWeight

	features := DetectFeatures(candidate, candidateHTML, profile.BrandTerms)

	return ContentAnalysis{
		Score:        math.Max(0, math.Min(100, score)),
		HasLogo:      hasLogo(candidate, profile.BrandTerms),
		Features:     features,
		HasLoginForm: contains(features, domain.FeatureFakeLogin),
		FormTargets:  FormTargets(candidate),
	}
}

// visibleText returns the lower-cased rendered text of a document with
// script and style content stripped.
func visibleText(doc *goquery.Document) string {
	doc.Find("script, style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
	return strings.ToLower(strings.TrimSpace(doc.Text()))
}

// sequenceRatio returns the character-level longest-common-subsequence
// similarity of two strings in [0,1]: 2*LCS / (len(a)+len(b)).
func sequenceRatio(a, b string) float64 {
	ra := truncateRunes(a, maxSequenceRunes)
	rb := truncateRunes(b, maxSequenceRunes)
	if len(ra)+len(rb) == 0 {
		return 0
	}

	// Two-row DP over the shorter string to bound allocation.
	if len(rb) > len(ra) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

func truncateRunes(s string, n int) []rune {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return r
}

func tagCounts(doc *goquery.Document) map[string]int {
	counts := make(map[string]int)
	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) > 0 {
			counts[s.Nodes[0].Data]++
		}
	})
	return counts
}

// tagSimilarity compares two tag-count distributions: for every tag in
// either document, 1 - |c1-c2|/max(c1,c2), averaged over the union.
func tagSimilarity(a, b map[string]int) float64 {
	union := make(map[string]struct{}, len(a)+len(b))
	for tag := range a {
		union[tag] = struct{}{}
	}
	for tag := range b {
		union[tag] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}

	var sum float64
	for tag := range union {
		ca, cb := a[tag], b[tag]
		max := ca
		if cb > max {
			max = cb
		}
		if max > 0 {
			sum += 1 - math.Abs(float64(ca-cb))/float64(max)
		}
	}
	return sum / float64(len(union)) * 100
}

// fingerprintScore awards a fixed number of points per matched brand
// phrase, capped at 100. Input text must already be lower-cased.
func fingerprintScore(text string, fingerprints []string) float64 {
	var score float64
	for _, fp := range fingerprints {
		if strings.Contains(text, strings.ToLower(fp)) {
			score += fingerprintPoints
		}
	}
	return math.Min(100, score)
}

// hasLogo reports whether the page appears to carry the target's logo,
// using image src/alt, wrapping links, and common logo class/id selectors.
func hasLogo(doc *goquery.Document, brandTerms []string) bool {
	found := false
	doc.Find("img").EachWithBreak(func(i int, img *goquery.Selection) bool {
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		if containsAnyTerm(strings.ToLower(src), brandTerms) || containsAnyTerm(strings.ToLower(alt), brandTerms) {
			found = true
			return false
		}
		if parent := img.Parent(); parent.Is("a") {
			href, _ := parent.Attr("href")
			if containsAnyTerm(strings.ToLower(href), brandTerms) {
				found = true
				return false
			}
		}
		return true
	})
	if found {
		return true
	}

	doc.Find(".logo, #logo, .brand-logo, .site-logo").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if containsAnyTerm(strings.ToLower(s.Text()), brandTerms) {
			found = true
			return false
		}
		return true
	})
	return found
}

// DetectFeatures scans a page for phishing indicators and returns the
// matching feature tags.
func DetectFeatures(doc *goquery.Document, rawHTML string, brandTerms []string) []string {
	features := []string{}
	lower := strings.ToLower(rawHTML)

	if doc.Find("form input[type=password]").Length() > 0 {
		features = append(features, domain.FeatureFakeLogin)
	}
	if hasLogo(doc, brandTerms) {
		features = append(features, domain.FeatureLogoClone)
	}
	if strings.Contains(lower, "secure") || strings.Contains(lower, "ssl") {
		features = append(features, domain.FeatureSSLEmphasis)
	}
	if containsAnyTerm(lower, brandTerms) {
		features = append(features, domain.FeatureSimilarLayout)
	}
	if strings.Contains(lower, "email") &&
		(strings.Contains(lower, "password") || strings.Contains(lower, "login")) {
		features = append(features, domain.FeatureDataHarvesting)
	}
	paymentTerms := []string{"payment", "credit card", "debit card", "card number", "expiry", "cvv"}
	if containsAnyTerm(lower, paymentTerms) {
		features = append(features, domain.FeaturePaymentForm)
	}
	if strings.Contains(lower, "upload") || strings.Contains(lower, "file") ||
		strings.Contains(lower, "document") {
		features = append(features, domain.FeatureDocumentUpload)
	}
	if strings.Contains(rawHTML, "https://") {
		features = append(features, domain.FeatureSSLValid)
	} else {
		features = append(features, domain.FeatureSSLMissing)
	}
	return features
}

// FormTargets extracts where each form on the page submits its data.
func FormTargets(doc *goquery.Document) []domain.FormTarget {
	targets := []domain.FormTarget{}
	doc.Find("form").Each(func(i int, form *goquery.Selection) {
		action, _ := form.Attr("action")
		if action == "" {
			action = "self"
		}
		method, ok := form.Attr("method")
		if !ok || method == "" {
			method = "get"
		}
		targets = append(targets, domain.FormTarget{
			Action: action,
			Method: strings.ToUpper(method),
		})
	})
	return targets
}

func containsAnyTerm(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
