package s0_signals

import (
	"context"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// Auditor runs a live on-page audit
type Auditor interface {
	Analyze(ctx context.Context, url string) (*contracts.WebsiteAnalysis, error)
}

// WebsiteAugmentor fills in a live website audit when the project has a URL
// but no stored analysis. An audit failure leaves the signal missing.
type WebsiteAugmentor struct {
	next    contracts.SignalSource
	auditor Auditor
	logger  *logger.Logger
}

// NewWebsiteAugmentor wraps next with live auditing
func NewWebsiteAugmentor(next contracts.SignalSource, auditor Auditor, log *logger.Logger) *WebsiteAugmentor {
	return &WebsiteAugmentor{next: next, auditor: auditor, logger: log.Component("s0_signals")}
}

// Load delegates to the wrapped source, then audits if needed
func (a *WebsiteAugmentor) Load(ctx context.Context, project *contracts.Project) (*contracts.SignalBundle, error) {
	bundle, err := a.next.Load(ctx, project)
	if err != nil {
		return nil, err
	}

	if bundle.WebsiteURL == "" || len(bundle.WebsiteAnalyses) > 0 {
		return bundle, nil
	}

	analysis, err := a.auditor.Analyze(ctx, bundle.WebsiteURL)
	if err != nil {
		a.logger.WithError(err).WithFields(map[string]interface{}{
			"project_id": project.ID,
			"url":        bundle.WebsiteURL,
		}).Warn("Live website audit failed, continuing without it")
		return bundle, nil
	}

	bundle.WebsiteAnalyses = append(bundle.WebsiteAnalyses, *analysis)
	return bundle, nil
}
