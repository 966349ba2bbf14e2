package services

import (
	"context"
	"fmt"
	"log"
	"procurement/models"
	"procurement/storage"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

const digestTimeout = 10 * time.Minute

// DigestMailer delivers the per-company summary of open anomalies.
type DigestMailer interface {
	SendDigest(ctx context.Context, companyID string, anomalies []models.Anomaly) error
}

// AnomalyDigest mails every company a list of its unacknowledged HIGH and
// EXTREMELY_HIGH anomalies.
type AnomalyDigest struct {
	store   storage.Store
	mailer  DigestMailer
	running int32
}

func NewAnomalyDigest(store storage.Store, mailer DigestMailer) *AnomalyDigest {
	return &AnomalyDigest{store: store, mailer: mailer}
}

var digestSeverities = []models.Severity{models.SeverityHigh, models.SeverityExtremelyHigh}

// Schedule registers the digest on c. Overlapping runs are skipped.
func (j *AnomalyDigest) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			log.Printf("anomaly digest: %v", err)
		}
	})
}

// Run sends one digest per company with open anomalies and returns how many were sent.
// A failure for one company does not stop the others.
func (j *AnomalyDigest) Run(ctx context.Context) (int, error) {
	if !atomic.CompareAndSwapInt32(&j.running, 0, 1) {
		log.Println("Previous anomaly digest still running. Skipping this run.")
		return 0, nil
	}
	defer atomic.StoreInt32(&j.running, 0)

	companies, err := j.store.CompaniesWithOpenAnomalies(ctx, digestSeverities)
	if err != nil {
		return 0, fmt.Errorf("list companies: %w", err)
	}

	unacknowledged := false
	sent, failed := 0, 0
	for _, companyID := range companies {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		anomalies, err := j.store.ListAnomalies(ctx, companyID, models.AnomalyFilter{
			Severities:   digestSeverities,
			Acknowledged: &unacknowledged,
			Limit:        500,
		})
		if err != nil {
			failed++
			log.Printf("anomaly digest: list anomalies for company %s: %v", companyID, err)
			continue
		}
		if err := j.mailer.SendDigest(ctx, companyID, anomalies); err != nil {
			failed++
			log.Printf("anomaly digest: send for company %s: %v", companyID, err)
			continue
		}
		sent++
	}

	log.Printf("anomaly digest finished: %d sent, %d failed", sent, failed)
	if failed > 0 {
		return sent, fmt.Errorf("%d of %d digests failed", failed, len(companies))
	}
	return sent, nil
}
