// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Preferences holds a user's 1-5 importance rating per factor. Fractional
// ratings are allowed; the ranker clamps to [1,5] and reads 0 as unset.
type Preferences struct {
	Safety          float64 `json:"safety" yaml:"safety" validate:"required,gte=1,lte=5"`
	Walkability     float64 `json:"walkability" yaml:"walkability" validate:"required,gte=1,lte=5"`
	Healthcare      float64 `json:"healthcare" yaml:"healthcare" validate:"required,gte=1,lte=5"`
	FastInternet    float64 `json:"fastInternet" yaml:"fastInternet" validate:"required,gte=1,lte=5"`
	Affordability   float64 `json:"affordability" yaml:"affordability" validate:"required,gte=1,lte=5"`
	Restaurants     float64 `json:"restaurants" yaml:"restaurants" validate:"required,gte=1,lte=5"`
	PublicTransport float64 `json:"publicTransport" yaml:"publicTransport" validate:"required,gte=1,lte=5"`
	ParksGreenery   float64 `json:"parksGreenery" yaml:"parksGreenery" validate:"required,gte=1,lte=5"`
}

// Get returns the rating for f.
func (p Preferences) Get(f Factor) float64 {
	switch f {
	case FactorSafety:
		return p.Safety
	case FactorWalkability:
		return p.Walkability
	case FactorHealthcare:
		return p.Healthcare
	case FactorFastInternet:
		return p.FastInternet
	case FactorAffordability:
		return p.Affordability
	case FactorRestaurants:
		return p.Restaurants
	case FactorPublicTransport:
		return p.PublicTransport
	case FactorParksGreenery:
		return p.ParksGreenery
	}
	return 0
}

// Set assigns the rating for f. It reports false for an unknown factor.
func (p *Preferences) Set(f Factor, v float64) bool {
	switch f {
	case FactorSafety:
		p.Safety = v
	case FactorWalkability:
		p.Walkability = v
	case FactorHealthcare:
		p.Healthcare = v
	case FactorFastInternet:
		p.FastInternet = v
	case FactorAffordability:
		p.Affordability = v
	case FactorRestaurants:
		p.Restaurants = v
	case FactorPublicTransport:
		p.PublicTransport = v
	case FactorParksGreenery:
		p.ParksGreenery = v
	default:
		return false
	}
	return true
}

// Contribution explains one factor's share of a similarity score. User and
// Candidate are the weighted values, so User*Candidate == Product.
type Contribution struct {
	Factor    Factor  `json:"factor"`
	User      float64 `json:"user"`
	Candidate float64 `json:"neighborhood"`
	Product   float64 `json:"product"`
}

// DataQuality summarizes how many sources delivered live data for a candidate.
type DataQuality struct {
	Score     float64  `json:"score"`
	Available int      `json:"availableSources"`
	Total     int      `json:"totalSources"`
	Sources   []string `json:"sources"`
}

// MatchResult is one ranked candidate.
type MatchResult struct {
	Candidate     Candidate      `json:"neighborhood"`
	Features      FeatureVector  `json:"features"`
	Similarity    float64        `json:"similarity"`
	Contributions []Contribution `json:"contributions"`
	UsedDefaults  bool           `json:"usedDefaults"`
	DataSources   []string       `json:"dataSources,omitempty"`
	DataQuality   *DataQuality   `json:"dataQuality,omitempty"`
}

// Data source labels reported with a match.
const (
	DataSourceStatic   = "static"
	DataSourceRealtime = "realtime"
)

// Algorithm is the ranking algorithm name reported with every match.
const Algorithm = "weighted-cosine-similarity"

// MatchOutput is the orchestrator's answer to one match request.
type MatchOutput struct {
	Results []MatchResult `json:"topMatches"`
	// EnrichmentWarning is set when every returned candidate fell back to
	// baseline features.
	EnrichmentWarning bool `json:"enrichmentWarning"`
	// PoolSize is the number of candidates considered before capping.
	PoolSize int `json:"totalNeighborhoods"`
	// Enriched is the number of candidates scored after capping.
	Enriched   int     `json:"scoredNeighborhoods"`
	DataSource string  `json:"dataSource"`
	Algorithm  string  `json:"algorithm"`
	Weights    Weights `json:"weights"`
}
