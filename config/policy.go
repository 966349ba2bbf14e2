package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ScoringPolicy holds the tunable numbers of anomaly detection and vendor ranking.
type ScoringPolicy struct {
	Anomaly AnomalyThresholds        `yaml:"anomaly"`
	Weights map[string]FactorWeights `yaml:"weights"`
	Reasons ReasonThresholds         `yaml:"reasons"`
}

// AnomalyThresholds are lower bounds (inclusive) on deviation for each severity.
type AnomalyThresholds struct {
	High          float64 `yaml:"high"`
	ExtremelyHigh float64 `yaml:"extremely_high"`
}

// FactorWeights weight the four ranking factors for one urgency. They sum to 1.
type FactorWeights struct {
	Coverage float64 `yaml:"coverage"`
	Price    float64 `yaml:"price"`
	Delivery float64 `yaml:"delivery"`
	Trust    float64 `yaml:"trust"`
}

// ReasonThresholds are the factor values at which a reason string is emitted.
type ReasonThresholds struct {
	Coverage float64 `yaml:"coverage"`
	Price    float64 `yaml:"price"`
	Delivery float64 `yaml:"delivery"`
	Trust    float64 `yaml:"trust"`
}

var urgencies = []string{"low", "medium", "high"}

func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Anomaly: AnomalyThresholds{High: 0.15, ExtremelyHigh: 0.40},
		Weights: map[string]FactorWeights{
			"low":    {Coverage: 0.35, Price: 0.35, Delivery: 0.10, Trust: 0.20},
			"medium": {Coverage: 0.30, Price: 0.30, Delivery: 0.20, Trust: 0.20},
			"high":   {Coverage: 0.25, Price: 0.20, Delivery: 0.40, Trust: 0.15},
		},
		Reasons: ReasonThresholds{Coverage: 0.5, Price: 0.8, Delivery: 0.7, Trust: 0.8},
	}
}

// LoadScoringPolicy reads a YAML policy file. Keys absent from the file keep their defaults.
func LoadScoringPolicy(path string) (ScoringPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ScoringPolicy{}, fmt.Errorf("read scoring policy %s: %w", path, err)
	}
	return ParseScoringPolicy(data)
}

func ParseScoringPolicy(data []byte) (ScoringPolicy, error) {
	// Decoding onto the defaults only touches keys present in the file. A weights
	// row is replaced as a whole.
	policy := DefaultScoringPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return ScoringPolicy{}, fmt.Errorf("parse scoring policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return ScoringPolicy{}, err
	}
	return policy, nil
}

// Validate checks that thresholds are ordered and every weight row sums to 1.
func (p ScoringPolicy) Validate() error {
	if p.Anomaly.High <= 0 || p.Anomaly.ExtremelyHigh <= p.Anomaly.High {
		return fmt.Errorf("anomaly thresholds must satisfy 0 < high < extremely_high, got high=%v extremely_high=%v",
			p.Anomaly.High, p.Anomaly.ExtremelyHigh)
	}
	for _, urgency := range urgencies {
		w, ok := p.Weights[urgency]
		if !ok {
			return fmt.Errorf("weights for urgency %q are missing", urgency)
		}
		for _, v := range []float64{w.Coverage, w.Price, w.Delivery, w.Trust} {
			if v < 0 {
				return fmt.Errorf("weights for urgency %q must not be negative", urgency)
			}
		}
		if sum := w.Coverage + w.Price + w.Delivery + w.Trust; math.Abs(sum-1) > 1e-9 {
			return fmt.Errorf("weights for urgency %q sum to %v, want 1", urgency, sum)
		}
	}
	for _, v := range []float64{p.Reasons.Coverage, p.Reasons.Price, p.Reasons.Delivery, p.Reasons.Trust} {
		if v < 0 || v > 1 {
			return fmt.Errorf("reason thresholds must be within [0,1], got %v", v)
		}
	}
	return nil
}
