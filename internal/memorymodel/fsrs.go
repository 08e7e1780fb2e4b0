package memorymodel

import (
	"math"
	"time"
)

// FSRS is the default Model: an FSRS-style forgetting-curve scheduler with
// named parameters. It is deliberately stateless per call; construct once
// and share.
type FSRS struct {
	params Params
	decay  float64 // -DecayExponent
	factor float64 // 0.9^(1/decay) - 1
}

// Params holds the tunable weights of the FSRS curve.
type Params struct {
	// InitStability maps a first-review grade (Again..Easy) to S₀.
	InitStability [4]float64
	// InitDifficultyBase and InitDifficultyScale shape D₀(G) = base - e^(scale*(G-1)) + 1.
	InitDifficultyBase  float64
	InitDifficultyScale float64
	// DifficultyDelta scales per-review difficulty drift; MeanReversion
	// pulls difficulty back toward D₀(Easy).
	DifficultyDelta float64
	MeanReversion   float64
	// Recall stability growth.
	RecallScale    float64
	RecallSPower   float64
	RecallRBoost   float64
	HardPenalty    float64
	EasyBonus      float64
	// Forget stability collapse.
	ForgetScale  float64
	ForgetDPower float64
	ForgetSPower float64
	ForgetRBoost float64
	// DecayExponent drives the retrievability curve R(t,S).
	DecayExponent float64
	// DesiredRetention is the retention rate the interval targets.
	DesiredRetention float64
	// MaxIntervalDays caps the computed interval.
	MaxIntervalDays int
}

// DefaultParams are derived from the published FSRS v6 defaults.
func DefaultParams() Params {
	return Params{
		InitStability:       [4]float64{0.212, 1.2931, 2.3065, 8.2956},
		InitDifficultyBase:  6.4133,
		InitDifficultyScale: 0.8334,
		DifficultyDelta:     3.0194,
		MeanReversion:       0.001,
		RecallScale:         1.8722,
		RecallSPower:        0.1666,
		RecallRBoost:        0.796,
		HardPenalty:         0.6014,
		EasyBonus:           1.8729,
		ForgetScale:         1.4835,
		ForgetDPower:        0.0614,
		ForgetSPower:        0.2629,
		ForgetRBoost:        1.6483,
		DecayExponent:       0.1542,
		DesiredRetention:    0.9,
		MaxIntervalDays:     36500,
	}
}

// NewFSRS builds the default model. A zero Params value selects defaults.
func NewFSRS(params Params) *FSRS {
	if params == (Params{}) {
		params = DefaultParams()
	}
	decay := -params.DecayExponent
	return &FSRS{
		params: params,
		decay:  decay,
		factor: math.Pow(0.9, 1.0/decay) - 1.0,
	}
}

// Schedule implements Model.
func (f *FSRS) Schedule(prior Prior, grade Grade, now time.Time) Scheduled {
	if !grade.IsValid() {
		grade = Good
	}

	var stability, difficulty float64
	if prior.ReviewCount == 0 {
		stability = clampStability(f.params.InitStability[grade-1])
		difficulty = f.initDifficulty(grade, true)
	} else {
		elapsedDays := 0.0
		if prior.LastReviewedAt != nil {
			elapsedDays = now.Sub(*prior.LastReviewedAt).Hours() / 24.0
		}
		r := f.retrievability(elapsedDays, prior.Stability)
		stability = f.nextStability(prior.Difficulty, prior.Stability, r, grade)
		difficulty = f.nextDifficulty(prior.Difficulty, grade)
	}

	days := f.intervalDays(stability)
	return Scheduled{
		Stability:  stability,
		Difficulty: difficulty,
		DueAt:      now.Add(time.Duration(days) * 24 * time.Hour),
	}
}

// retrievability is R(t, S) = (1 + factor*t/S)^decay.
func (f *FSRS) retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 0
	}
	return math.Pow(1+f.factor*elapsedDays/stability, f.decay)
}

func (f *FSRS) initDifficulty(grade Grade, clamp bool) float64 {
	d := f.params.InitDifficultyBase - math.Exp(f.params.InitDifficultyScale*float64(grade-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

func (f *FSRS) nextDifficulty(difficulty float64, grade Grade) float64 {
	delta := -f.params.DifficultyDelta * (float64(grade) - 3)
	drifted := difficulty + (10-difficulty)*delta/9
	target := f.initDifficulty(Easy, false)
	return clampDifficulty(f.params.MeanReversion*target + (1-f.params.MeanReversion)*drifted)
}

func (f *FSRS) nextStability(d, s, r float64, grade Grade) float64 {
	if grade == Again {
		return clampStability(f.forgetStability(d, s, r))
	}
	return clampStability(f.recallStability(d, s, r, grade))
}

func (f *FSRS) recallStability(d, s, r float64, grade Grade) float64 {
	penalty := 1.0
	if grade == Hard {
		penalty = f.params.HardPenalty
	}
	bonus := 1.0
	if grade == Easy {
		bonus = f.params.EasyBonus
	}
	growth := math.Exp(f.params.RecallScale) *
		(11 - d) *
		math.Pow(s, -f.params.RecallSPower) *
		(math.Exp((1-r)*f.params.RecallRBoost) - 1) *
		penalty * bonus
	return s * (1 + growth)
}

func (f *FSRS) forgetStability(d, s, r float64) float64 {
	collapsed := f.params.ForgetScale *
		math.Pow(d, -f.params.ForgetDPower) *
		(math.Pow(s+1, f.params.ForgetSPower) - 1) *
		math.Exp((1-r)*f.params.ForgetRBoost)
	return math.Min(collapsed, s)
}

// intervalDays is I(S) = (S/factor) * (retention^(1/decay) - 1), rounded and
// clamped to [1, MaxIntervalDays].
func (f *FSRS) intervalDays(stability float64) int {
	ivl := stability / f.factor * (math.Pow(f.params.DesiredRetention, 1.0/f.decay) - 1)
	days := int(math.Round(ivl))
	if days < 1 {
		days = 1
	}
	if days > f.params.MaxIntervalDays {
		days = f.params.MaxIntervalDays
	}
	return days
}

func clampStability(s float64) float64 {
	return math.Max(s, 0.001)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
