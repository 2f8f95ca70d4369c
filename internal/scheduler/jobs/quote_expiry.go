package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/georepute/backend/pkg/logger"
)

// QuoteExpirer is satisfied by *quote.Service
type QuoteExpirer interface {
	ExpireDue(ctx context.Context, batchSize int) (int, error)
}

const defaultExpiryBatch = 200

// QuoteExpiryJob moves draft and sent quotes past valid_until to expired
type QuoteExpiryJob struct {
	expirer   QuoteExpirer
	schedule  string
	batchSize int
	logger    *logger.Logger
}

// NewQuoteExpiryJob creates a new quote expiry job. An empty schedule means every 10 minutes.
func NewQuoteExpiryJob(expirer QuoteExpirer, schedule string, log *logger.Logger) *QuoteExpiryJob {
	if schedule == "" {
		schedule = "0 */10 * * * *"
	}
	return &QuoteExpiryJob{
		expirer:   expirer,
		schedule:  schedule,
		batchSize: defaultExpiryBatch,
		logger:    log.Component("job_quote_expiry"),
	}
}

// Name returns the job name
func (j *QuoteExpiryJob) Name() string {
	return "quote_expiry"
}

// Schedule returns the cron schedule
func (j *QuoteExpiryJob) Schedule() string {
	return j.schedule
}

// Run expires due quotes in batches until a batch comes back short
func (j *QuoteExpiryJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled quote expiry")

	total := 0
	for {
		n, err := j.expirer.ExpireDue(ctx, j.batchSize)
		total += n
		if err != nil {
			return fmt.Errorf("expire quotes (after %d): %w", total, err)
		}
		if n < j.batchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if total > 0 {
		j.logger.WithField("expired", total).Info("Quote expiry completed")
	}

	return nil
}
