package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭, 에러 태그에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → {S2, S3} → S4 → S5 → S6
//   Signals  DCS  Threat/Revenue  Recommendation  Pricing  Quote

// Stage represents a pipeline stage
type Stage string

const (
	// StageSignals S0: 프로젝트 시그널 번들 수집
	// 책임: DB/캐시/웹사이트 분석에서 SignalBundle 조립
	// 위치: internal/s0_signals/
	StageSignals Stage = "S0_SIGNALS"

	// StageDCS S1: Domain Competitiveness Score
	// 책임: 5개 레이어 점수, 가중 합산, 안전/지배 구간 거리, 경쟁사 비교
	// 위치: internal/s1_dcs/
	StageDCS Stage = "S1_DCS"

	// StageThreat S2: Competitive Pressure Index
	// 책임: 경쟁 압력 시그널 가중 합산, 가속도 판정
	// 위치: internal/s2_threat/
	StageThreat Stage = "S2_THREAT"

	// StageRevenue S3: Revenue Exposure Window
	// 책임: 검색 수요 × CTR × 전환율 × 객단가 × 티어별 점유율
	// 위치: internal/s3_revenue/
	StageRevenue Stage = "S3_REVENUE"

	// StageRecommendation S4: 참여 모드 추천
	// 위치: internal/s4_recommend/
	StageRecommendation Stage = "S4_RECOMMENDATION"

	// StagePricing S5: 견적 가격 산출
	// 위치: internal/s5_pricing/
	StagePricing Stage = "S5_PRICING"

	// StageQuote S6: 견적 조립/저장/라이프사이클
	// 위치: internal/quote/
	StageQuote Stage = "S6_QUOTE"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageSignals:
		return "S0"
	case StageDCS:
		return "S1"
	case StageThreat:
		return "S2"
	case StageRevenue:
		return "S3"
	case StageRecommendation:
		return "S4"
	case StagePricing:
		return "S5"
	case StageQuote:
		return "S6"
	default:
		return "UNKNOWN"
	}
}

// Label returns the lower-case name used in error payloads and metric labels
func (s Stage) Label() string {
	switch s {
	case StageSignals:
		return "signals"
	case StageDCS:
		return "dcs"
	case StageThreat:
		return "threat"
	case StageRevenue:
		return "revenue"
	case StageRecommendation:
		return "recommendation"
	case StagePricing:
		return "pricing"
	case StageQuote:
		return "quote"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageSignals,
		StageDCS,
		StageThreat,
		StageRevenue,
		StageRecommendation,
		StagePricing,
		StageQuote,
	}
}

// StageByLabel resolves a Label() back to its Stage
func StageByLabel(label string) (Stage, bool) {
	for _, stage := range AllStages() {
		if stage.Label() == label {
			return stage, true
		}
	}
	return "", false
}
