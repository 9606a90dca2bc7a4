package service

import (
	"log"
	"strings"

	"github.com/fadilmartias/job-agent/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var remoteIndicators = []string{
	"remote", "work from home", "wfh", "telecommute", "distributed",
	"anywhere", "worldwide", "global", "virtual",
}

// countryPattern maps a canonical country name to the spellings that show
// up in scraped location strings. Order matters: the first pattern hit wins.
type countryPattern struct {
	country  string
	patterns []string
}

var countryPatterns = []countryPattern{
	{"united states", []string{"united states", "usa", "us", "america"}},
	{"united kingdom", []string{"united kingdom", "uk", "britain", "england", "scotland", "wales"}},
	{"canada", []string{"canada", "canadian"}},
	{"australia", []string{"australia", "australian"}},
	{"germany", []string{"germany", "german", "deutschland"}},
	{"netherlands", []string{"netherlands", "holland", "dutch"}},
	{"france", []string{"france", "french"}},
	{"singapore", []string{"singapore"}},
	{"ireland", []string{"ireland", "irish"}},
	{"new zealand", []string{"new zealand"}},
	{"switzerland", []string{"switzerland", "swiss"}},
	{"sweden", []string{"sweden", "swedish"}},
	{"norway", []string{"norway", "norwegian"}},
	{"denmark", []string{"denmark", "danish"}},
	{"nigeria", []string{"nigeria", "nigerian"}},
}

// titleCase normalizes a country/city spelling for display. A fresh caser
// per call because cases.Caser is not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// WorkPermitAnalyzer decides whether a posting's location and work-permit
// language are compatible with the applicant. This is a fixed decision
// table over configured phrase lists, not a legal determination.
type WorkPermitAnalyzer struct {
	restrictiveTerms     []string
	positiveTerms        []string
	sponsorshipCountries []string
	applicantCountry     string
}

func NewWorkPermitAnalyzer(restrictive, positive, sponsorshipCountries []string, applicantCountry string) *WorkPermitAnalyzer {
	return &WorkPermitAnalyzer{
		restrictiveTerms:     lowerAll(restrictive),
		positiveTerms:        lowerAll(positive),
		sponsorshipCountries: lowerAll(sponsorshipCountries),
		applicantCountry:     strings.ToLower(applicantCountry),
	}
}

// Evaluate produces the compatibility verdict for one posting. Any single
// positive signal (same country, remote, sponsorship) overrides restrictive
// language — the precedence order is a business-policy choice and must not
// be reordered.
func (a *WorkPermitAnalyzer) Evaluate(location, description string) model.CompatibilityVerdict {
	locationInfo := a.ExtractLocationInfo(location, description)

	restrictive := findIndicators(description, a.restrictiveTerms)
	positive := findIndicators(description, a.positiveTerms)

	requiredLocalPermit := len(restrictive) > 0
	sponsorshipOffered := len(positive) > 0

	isSameCountry := strings.ToLower(locationInfo.Country) == a.applicantCountry
	isSponsorshipCountry := a.isSponsorshipFriendly(locationInfo.Country)

	compatible := isSameCountry ||
		locationInfo.IsRemote ||
		(isSponsorshipCountry && sponsorshipOffered) ||
		(!requiredLocalPermit && isSponsorshipCountry)

	analysis := model.VisaAnalysis{
		RequiredLocalPermit:   requiredLocalPermit,
		SponsorshipOffered:    sponsorshipOffered,
		LocationCompatible:    compatible,
		RestrictiveIndicators: restrictive,
		PositiveIndicators:    positive,
		IsSameCountry:         isSameCountry,
		IsRemoteFriendly:      locationInfo.IsRemote,
		IsSponsorshipCountry:  isSponsorshipCountry,
		ApplicantCountry:      titleCase(a.applicantCountry),
		JobCountry:            locationInfo.Country,
	}

	verdict := model.CompatibilityVerdict{
		Location: locationInfo,
		Analysis: analysis,
	}
	if !compatible {
		verdict.ShouldStop = true
		if requiredLocalPermit && !sponsorshipOffered {
			verdict.Reason = model.ReasonWorkPermitOnly
		} else {
			verdict.Reason = model.ReasonLocationIncompatible
		}
		log.Printf("Location filter rejecting posting in %q: %s", location, verdict.Reason)
	}
	return verdict
}

// ExtractLocationInfo parses the free-text location field. Remote
// indicators are scanned in both the location and the description.
func (a *WorkPermitAnalyzer) ExtractLocationInfo(location, description string) model.LocationInfo {
	locationLower := strings.ToLower(location)

	isRemote := containsAny(locationLower, remoteIndicators)
	if !isRemote && description != "" {
		isRemote = containsAny(strings.ToLower(description), remoteIndicators)
	}

	return model.LocationInfo{
		Country:  extractCountry(location),
		City:     extractCity(location),
		Region:   extractRegion(location),
		IsRemote: isRemote,
	}
}

func (a *WorkPermitAnalyzer) isSponsorshipFriendly(country string) bool {
	lower := strings.ToLower(country)
	for _, c := range a.sponsorshipCountries {
		if c == lower {
			return true
		}
	}
	return false
}

// extractCountry matches the pattern table first, then falls back to the
// substring after the last comma.
func extractCountry(location string) string {
	locationLower := strings.ToLower(location)

	for _, cp := range countryPatterns {
		if containsAny(locationLower, cp.patterns) {
			return titleCase(cp.country)
		}
	}

	parts := strings.Split(location, ",")
	if len(parts) >= 2 {
		return titleCase(strings.TrimSpace(parts[len(parts)-1]))
	}
	return "Unknown"
}

func extractCity(location string) string {
	parts := strings.Split(location, ",")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		return titleCase(strings.TrimSpace(parts[0]))
	}
	return "Unknown"
}

func extractRegion(location string) string {
	parts := strings.Split(location, ",")
	if len(parts) >= 2 {
		return titleCase(strings.TrimSpace(parts[1]))
	}
	return ""
}

// findIndicators returns every configured phrase present in the text, not
// just the first hit — the decision is precedence-based but the evidence is
// recorded in full.
func findIndicators(text string, terms []string) []string {
	textLower := strings.ToLower(text)
	var found []string
	for _, term := range terms {
		if strings.Contains(textLower, term) {
			found = append(found, term)
		}
	}
	return found
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, strings.ToLower(t))
	}
	return out
}
