package graphstore

import (
	"fmt"
	"math"
	"math/rand"
)

// DistType names a distribution family.
type DistType string

const (
	DistConst  DistType = "const"
	DistNormal DistType = "normal"
	DistBeta   DistType = "beta"
)

// Distribution is a closed tagged variant describing how much energy flows
// across an edge when its source is reviewed. Param1/Param2 mean:
//
//	const:  value, -
//	normal: mean, stddev
//	beta:   alpha, beta
type Distribution struct {
	Type   DistType `json:"type"`
	Param1 float64  `json:"param1"`
	Param2 float64  `json:"param2,omitempty"`
}

// Const builds a fixed-magnitude distribution.
func Const(value float64) Distribution {
	return Distribution{Type: DistConst, Param1: value}
}

// Normal builds a normally distributed magnitude.
func Normal(mean, stddev float64) Distribution {
	return Distribution{Type: DistNormal, Param1: mean, Param2: stddev}
}

// Beta builds a beta-distributed magnitude.
func Beta(alpha, beta float64) Distribution {
	return Distribution{Type: DistBeta, Param1: alpha, Param2: beta}
}

// String renders the distribution in snapshot notation.
func (d Distribution) String() string {
	switch d.Type {
	case DistConst:
		return fmt.Sprintf("const(%g)", d.Param1)
	case DistNormal:
		return fmt.Sprintf("normal(%g, %g)", d.Param1, d.Param2)
	case DistBeta:
		return fmt.Sprintf("beta(%g, %g)", d.Param1, d.Param2)
	}
	return string(d.Type)
}

// Validate checks the parameters against the family's constraints.
func (d Distribution) Validate() error {
	switch d.Type {
	case DistConst:
		return nil
	case DistNormal:
		if d.Param2 < 0 {
			return fmt.Errorf("normal distribution stddev %f must be non-negative", d.Param2)
		}
		return nil
	case DistBeta:
		if d.Param1 <= 0 || d.Param2 <= 0 {
			return fmt.Errorf("beta distribution parameters (%f, %f) must be positive", d.Param1, d.Param2)
		}
		return nil
	default:
		return fmt.Errorf("unknown distribution type %q", d.Type)
	}
}

// Sample draws a magnitude from the distribution, clamped to [0, 1].
// Const always returns its value exactly (clamped).
func (d Distribution) Sample(rng *rand.Rand) float64 {
	switch d.Type {
	case DistConst:
		return clamp01(d.Param1)
	case DistNormal:
		return clamp01(rng.NormFloat64()*d.Param2 + d.Param1)
	case DistBeta:
		x := sampleGamma(rng, d.Param1)
		y := sampleGamma(rng, d.Param2)
		if x+y == 0 {
			return 0
		}
		return clamp01(x / (x + y))
	default:
		return 0
	}
}

// sampleGamma draws from Gamma(shape, 1) using the Marsaglia-Tsang method.
// Shapes below 1 are boosted and corrected with a uniform power factor.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
