package search

// Dynamic-limit defaults.
const (
	DefaultMaxResults    = 10
	DefaultMinScore      = 0.3
	DefaultDropThreshold = 0.30
)

// DynamicLimit reduces a score-descending result list to its leading
// "plateau": it returns fewer results when the best matches are clearly
// separated from mediocre ones, and more when they are near-tied.
type DynamicLimit struct {
	MaxResults    int     `yaml:"maxResults"`
	MinScore      float64 `yaml:"minScore"`
	DropThreshold float64 `yaml:"dropThreshold"`
}

// DefaultDynamicLimit returns the standard selector settings.
func DefaultDynamicLimit() DynamicLimit {
	return DynamicLimit{
		MaxResults:    DefaultMaxResults,
		MinScore:      DefaultMinScore,
		DropThreshold: DefaultDropThreshold,
	}
}

// normalized fills zero values from the defaults so a partially-specified
// config block behaves sanely.
func (d DynamicLimit) normalized() DynamicLimit {
	if d.MaxResults <= 0 {
		d.MaxResults = DefaultMaxResults
	}
	if d.MinScore <= 0 {
		d.MinScore = DefaultMinScore
	}
	if d.DropThreshold <= 0 {
		d.DropThreshold = DefaultDropThreshold
	}
	return d
}

// Cut walks the score-descending list and returns how many leading results
// to keep. Acceptance stops at the hard cap, at the first score below the
// absolute floor, or at the first relative drop above the threshold.
func (d DynamicLimit) Cut(scores []float64) int {
	cfg := d.normalized()
	accepted := 0
	for i, s := range scores {
		if accepted == cfg.MaxResults {
			break
		}
		if s < cfg.MinScore {
			break
		}
		if i > 0 {
			prev := scores[i-1]
			if prev > 0 && (prev-s)/prev > cfg.DropThreshold {
				break
			}
		}
		accepted++
	}
	return accepted
}
