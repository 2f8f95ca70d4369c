package s1_dcs

import (
	"math"

	"github.com/wonny/georepute/backend/internal/contracts"
)

// organicSearch scores the Search Console summary.
// Rows are aggregated when the summary is missing or empty.
func (e *Engine) organicSearch(b *contracts.SignalBundle) layerScore {
	summary, ok := b.SearchConsole()
	if !ok {
		return notMeasured
	}

	o := e.cfg.Organic

	position := summary.AvgPosition
	if position <= 0 {
		position = o.PositionFloor
	}
	positionScore := 100 * (o.PositionFloor - position) / (o.PositionFloor - 1)

	ctrScore := 100 * summary.AvgCTR / o.CTRCeiling

	clicks := math.Max(0, float64(summary.TotalClicks))
	clicksScore := 100 * math.Log10(clicks+1) / math.Log10(o.ClicksCeiling+1)

	return blend(
		part{"position", o.PositionShare, positionScore, true},
		part{"ctr", o.CTRShare, ctrScore, true},
		part{"clicks", o.ClicksShare, clicksScore, true},
	)
}
