package room

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// neutralScore stands in for motion or lighting signals that were not reported.
	neutralScore = 0.6

	minConfidencePoints  = 3
	fullConfidencePoints = 12

	// motionStdScale is the motion standard deviation that halves the score.
	motionStdScale = 0.5
)

// ComputeConfidence folds the quality signals into one advisory score in
// [0, 1], rounded to three decimals. Missing signals fall back to neutral
// defaults rather than failing.
func ComputeConfidence(in ConfidenceInputs, w ConfidenceWeights) float64 {
	score := w.Tracking*trackingScore(in) +
		w.Motion*motionScore(in) +
		w.Points*pointsScore(in.NumPoints) +
		w.Lighting*lightingScore(in)
	return round(clamp01(score), 3)
}

func pointsScore(n int) float64 {
	if n < minConfidencePoints {
		return 0
	}
	return clamp01(float64(n-minConfidencePoints) / float64(fullConfidencePoints-minConfidencePoints))
}

func motionScore(in ConfidenceInputs) float64 {
	if in.MotionStability != nil && isFinite(*in.MotionStability) {
		return clamp01(*in.MotionStability)
	}
	if len(in.MotionSamples) >= 2 {
		std := stat.StdDev(in.MotionSamples, nil)
		if isFinite(std) {
			return clamp01(1 / (1 + std/motionStdScale))
		}
	}
	return neutralScore
}

func lightingScore(in ConfidenceInputs) float64 {
	if in.LightingScore != nil && isFinite(*in.LightingScore) {
		return clamp01(*in.LightingScore)
	}
	if in.AmbientLux != nil && isFinite(*in.AmbientLux) {
		return luxScore(*in.AmbientLux)
	}
	return neutralScore
}

// luxScore maps ambient light to a score: 0-10 lux → 0-0.1, 10-100 → 0.1-0.4,
// 100-300 → 0.4-0.8, above 300 rising to 1.0 at 1000 lux.
func luxScore(lux float64) float64 {
	switch {
	case lux <= 0:
		return 0
	case lux <= 10:
		return lux / 10 * 0.1
	case lux <= 100:
		return 0.1 + (lux-10)/90*0.3
	case lux <= 300:
		return 0.4 + (lux-100)/200*0.4
	default:
		return math.Min(1, 0.8+(lux-300)/700*0.2)
	}
}

func trackingScore(in ConfidenceInputs) float64 {
	switch in.TrackingState {
	case TrackingNormal, TrackingTracking:
		return 1
	case TrackingLimited:
		return 0.5
	case TrackingNotAvailable:
		return 0
	}
	if in.TrackingCode != nil && isFinite(*in.TrackingCode) {
		return clamp01(*in.TrackingCode / 2)
	}
	return 0
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
