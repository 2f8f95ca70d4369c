package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/quote"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// EngineHandler runs a single engine on a posted payload
type EngineHandler struct {
	pipeline *quote.Pipeline
	logger   *logger.Logger
}

// NewEngineHandler creates a new engine preview handler
func NewEngineHandler(pipeline *quote.Pipeline, log *logger.Logger) *EngineHandler {
	return &EngineHandler{
		pipeline: pipeline,
		logger:   log.Component("api_engines"),
	}
}

// RevenuePreviewRequest takes explicit inputs, a bundle, or both.
// Explicit values win over what the bundle yields.
type RevenuePreviewRequest struct {
	Bundle         *contracts.SignalBundle `json:"bundle,omitempty"`
	SearchDemand   *float64                `json:"search_demand,omitempty"`
	CTRBenchmark   *float64                `json:"ctr_benchmark,omitempty"`
	ConversionRate *float64                `json:"conversion_rate,omitempty"`
	AvgDealValue   *float64                `json:"avg_deal_value,omitempty"`
}

// Preview dispatches on the stage path variable
// POST /api/engines/{stage}
func (h *EngineHandler) Preview(w http.ResponseWriter, r *http.Request) {
	stage := mux.Vars(r)["stage"]

	var (
		result interface{}
		err    error
	)
	switch stage {
	case "dcs":
		result, err = h.dcs(w, r)
	case "threat":
		result, err = h.threat(w, r)
	case "revenue":
		result, err = h.revenue(w, r)
	case "recommendation":
		result, err = h.recommendation(w, r)
	case "pricing":
		result, err = h.pricing(w, r)
	default:
		respondError(w, http.StatusNotFound, "not_found", "unknown engine: "+stage)
		return
	}
	if err != nil {
		respondErr(w, err)
		return
	}

	h.logger.WithField("stage", stage).Debug("Engine preview computed")
	respondJSON(w, http.StatusOK, result)
}

func (h *EngineHandler) dcs(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	var b contracts.SignalBundle
	if err := decodeJSON(w, r, &b); err != nil {
		return nil, err
	}
	return h.pipeline.DCS().Compute(&b), nil
}

func (h *EngineHandler) threat(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	var b contracts.SignalBundle
	if err := decodeJSON(w, r, &b); err != nil {
		return nil, err
	}
	return h.pipeline.Threat().Compute(&b), nil
}

func (h *EngineHandler) revenue(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	var req RevenuePreviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}

	engine := h.pipeline.Revenue()
	in := engine.InputsFromBundle(req.Bundle)
	if req.SearchDemand != nil {
		in.SearchDemand = *req.SearchDemand
	}
	if req.CTRBenchmark != nil {
		in.CTRBenchmark = *req.CTRBenchmark
	}
	if req.ConversionRate != nil {
		in.ConversionRate = *req.ConversionRate
	}

	switch {
	case in.SearchDemand < 0:
		return nil, contracts.NewValidationError("search_demand", "must be >= 0")
	case in.CTRBenchmark < 0 || in.CTRBenchmark > 1:
		return nil, contracts.NewValidationError("ctr_benchmark", "must be within [0,1]")
	case in.ConversionRate < 0 || in.ConversionRate > 1:
		return nil, contracts.NewValidationError("conversion_rate", "must be within [0,1]")
	case req.AvgDealValue != nil && *req.AvgDealValue < 0:
		return nil, contracts.NewValidationError("avg_deal_value", "must be >= 0")
	}

	return engine.Compute(in.SearchDemand, in.CTRBenchmark, in.ConversionRate, req.AvgDealValue), nil
}

func (h *EngineHandler) recommendation(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	var in contracts.RecommendationInput
	if err := decodeJSON(w, r, &in); err != nil {
		return nil, err
	}
	if in.PreviousMode != "" && !in.PreviousMode.IsValid() {
		return nil, contracts.NewValidationError("previous_mode", "unknown engagement mode")
	}
	return h.pipeline.Recommendation().Recommend(in), nil
}

func (h *EngineHandler) pricing(w http.ResponseWriter, r *http.Request) (interface{}, error) {
	var in contracts.PricingInput
	if err := decodeJSON(w, r, &in); err != nil {
		return nil, err
	}
	if in.MonitoringDepth != "" && !in.MonitoringDepth.IsValid() {
		return nil, contracts.NewValidationError("monitoring_depth", "must be basic, standard or deep")
	}
	return h.pipeline.Pricing().Compute(in), nil
}
