package models

import "fmt"

// TransitionKind is one of the three canonical clip transitions.
type TransitionKind string

const (
	TransitionCut       TransitionKind = "cut"
	TransitionCrossfade TransitionKind = "crossfade"
	TransitionFade      TransitionKind = "fade"
)

// Transition score buckets. Ties go to the upper bucket.
const (
	crossfadeThreshold = 85
	cutThreshold       = 70
)

// Transition durations in seconds.
const (
	CutDuration       = 0.0
	CrossfadeDuration = 0.5
	FadeDuration      = 0.8
)

// TransitionForScore maps a pairwise transition score to a TransitionKind.
// The mapping is total and deterministic:
//
//	score >= 85        -> crossfade
//	70 <= score < 85   -> cut
//	score < 70         -> fade
func TransitionForScore(score int) TransitionKind {
	switch {
	case score >= crossfadeThreshold:
		return TransitionCrossfade
	case score >= cutThreshold:
		return TransitionCut
	default:
		return TransitionFade
	}
}

// Duration returns the transition's overlap/fade duration in seconds.
func (k TransitionKind) Duration() float64 {
	switch k {
	case TransitionCrossfade:
		return CrossfadeDuration
	case TransitionFade:
		return FadeDuration
	default:
		return CutDuration
	}
}

// PlanTransitions derives the transition kinds for the scenes that
// survived synthesis, in order. surviving holds the original scene
// numbers of the clips being stitched, ascending.
//
// For each adjacent surviving pair (a, b), the transition comes from the
// report's original pair ending at b — i.e. pair (b-1, b) — never an
// averaged or invented score. With no failures this degenerates to the
// report's own pair (a, a+1).
func PlanTransitions(report *CohesionReport, surviving []int) ([]TransitionKind, error) {
	if len(surviving) == 0 {
		return nil, fmt.Errorf("no surviving scenes")
	}

	byToScene := make(map[int]PairwiseTransition, len(report.Pairwise))
	for _, p := range report.Pairwise {
		byToScene[p.ToScene] = p
	}

	kinds := make([]TransitionKind, 0, len(surviving)-1)
	for i := 1; i < len(surviving); i++ {
		b := surviving[i]
		pair, ok := byToScene[b]
		if !ok {
			return nil, fmt.Errorf("cohesion report has no pair ending at scene %d", b)
		}
		kinds = append(kinds, TransitionForScore(pair.TransitionScore))
	}
	return kinds, nil
}
