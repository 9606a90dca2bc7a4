package model

// LocationInfo is the structured read of a posting's location field.
type LocationInfo struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Region   string `json:"region"`
	IsRemote bool   `json:"is_remote"`
}

// VisaAnalysis collects every signal the permit analyzer found. All
// matched phrases are recorded, not just presence.
type VisaAnalysis struct {
	RequiredLocalPermit   bool     `json:"required_local_permit"`
	SponsorshipOffered    bool     `json:"sponsorship_offered"`
	LocationCompatible    bool     `json:"location_compatible"`
	RestrictiveIndicators []string `json:"restrictive_indicators"`
	PositiveIndicators    []string `json:"positive_indicators"`
	IsSameCountry         bool     `json:"is_same_country"`
	IsRemoteFriendly      bool     `json:"is_remote_friendly"`
	IsSponsorshipCountry  bool     `json:"is_sponsorship_friendly_country"`
	ApplicantCountry      string   `json:"applicant_country"`
	JobCountry            string   `json:"job_country"`
}

// CompatibilityVerdict is the permit analyzer's decision for one posting.
// Reason is empty when the posting is compatible, otherwise one of
// ReasonWorkPermitOnly or ReasonLocationIncompatible.
type CompatibilityVerdict struct {
	ShouldStop bool         `json:"should_stop"`
	Reason     string       `json:"reason"`
	Location   LocationInfo `json:"location_info"`
	Analysis   VisaAnalysis `json:"visa_analysis"`
}
