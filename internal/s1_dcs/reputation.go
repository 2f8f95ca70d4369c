package s1_dcs

import (
	"math"

	"github.com/wonny/georepute/backend/internal/contracts"
)

const (
	maxRating     = 5.0
	neutralRating = 50.0
)

// reputation pulls the rating score toward neutral when reviews are few
func (e *Engine) reputation(b *contracts.SignalBundle) layerScore {
	mr := b.MapReviews
	if mr == nil || (mr.ReviewCount <= 0 && mr.Rating <= 0) {
		return notMeasured
	}

	ratingScore := clamp(mr.Rating/maxRating*100, 0, 100)
	count := math.Max(0, float64(mr.ReviewCount))
	confidence := math.Min(1, math.Log(count+1)/math.Log(e.cfg.ReviewConfidence))

	return layerScore{
		score: neutralRating + (ratingScore-neutralRating)*confidence,
		components: map[string]float64{
			"rating":     round2(ratingScore),
			"confidence": round2(confidence * 100),
		},
		measured: true,
	}
}
