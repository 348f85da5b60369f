package types

import (
	"errors"
	"math"
)

// ModelInfo identifies the query model of a search
type ModelInfo struct {
	Name        string `json:"name"`
	Accession   string `json:"accession,omitempty"`   // Empty when the model has no ACC line
	Description string `json:"description,omitempty"` // Empty when the model has no DESC line
	Length      int    `json:"length"`                // Number of match states (M)
}

// HitRecord is a flattened, storage- and transport-friendly copy of a reported hit
type HitRecord struct {
	// Identification
	Rank        int    `json:"rank"` // Position in the sorted hit list (1-based)
	Name        string `json:"name"`
	Accession   string `json:"accession,omitempty"`
	Description string `json:"description,omitempty"`

	// Scoring
	Score    float64 `json:"score"`   // Bit score
	LnP      float64 `json:"ln_p"`    // Natural log of the P-value
	EValue   float64 `json:"e_value"` // exp(LnP) * Z at the time the record was taken
	Reported bool    `json:"reported"`
	Included bool    `json:"included"`

	Domains []DomainRecord `json:"domains"`
}

// DomainRecord is a flattened copy of one domain of a hit
type DomainRecord struct {
	Index    int     `json:"index"` // 1-based position within the hit
	BitScore float64 `json:"bit_score"`
	LnP      float64 `json:"ln_p"`
	EValue   float64 `json:"e_value"`

	// Sequence coordinates (1-based, inclusive)
	EnvFrom int `json:"env_from"`
	EnvTo   int `json:"env_to"`
	AliFrom int `json:"ali_from"`
	AliTo   int `json:"ali_to"`

	// Model coordinates (1-based, inclusive)
	HMMFrom int `json:"hmm_from"`
	HMMTo   int `json:"hmm_to"`

	Reported bool `json:"reported"`
	Included bool `json:"included"`
}

// Record validation errors
var (
	ErrInvalidRank  = errors.New("rank must be >= 1")
	ErrMissingName  = errors.New("hit name is required")
	ErrNoDomains    = errors.New("hit must have at least one domain")
	ErrInvalidScore = errors.New("score must be a finite number")
)

// Validate checks if the hit record is well formed
func (h *HitRecord) Validate() error {
	if h.Rank < 1 {
		return ErrInvalidRank
	}

	if h.Name == "" {
		return ErrMissingName
	}

	if math.IsNaN(h.Score) || math.IsInf(h.Score, 0) {
		return ErrInvalidScore
	}

	if len(h.Domains) == 0 {
		return ErrNoDomains
	}

	return nil
}
