package review

import "recall/engine/internal/memorymodel"

// EnergyPolicy maps a review grade onto the reviewed node's own energy.
// Success pulls energy toward 1 asymptotically, failure decays it
// multiplicatively. The mapping is a tunable policy, kept in one place so
// it can be swapped or tested in isolation.
type EnergyPolicy struct {
	Gain  float64 // fraction of the remaining headroom gained on success
	Decay float64 // multiplier applied on failure
}

// DefaultEnergyPolicy returns the reference tuning.
func DefaultEnergyPolicy() EnergyPolicy {
	return EnergyPolicy{Gain: 0.35, Decay: 0.5}
}

// gradeWeight scales the gain by how confident the recall was.
var gradeWeight = map[memorymodel.Grade]float64{
	memorymodel.Hard: 0.5,
	memorymodel.Good: 1.0,
	memorymodel.Easy: 1.25,
}

// Apply returns the post-review energy for a node currently at energy.
func (p EnergyPolicy) Apply(energy float64, grade memorymodel.Grade) float64 {
	if !grade.Success() {
		return clamp01(energy * p.Decay)
	}
	return clamp01(energy + (1-energy)*p.Gain*gradeWeight[grade])
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
