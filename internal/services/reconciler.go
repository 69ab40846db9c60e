package services

import (
	"context"

	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/pkg/logger"
)

// CounterRecounter is implemented by stores that can rebuild a user's
// counters from the edge documents.
type CounterRecounter interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	RecountUser(ctx context.Context, userID string) (stored, actual models.Counters, err error)
}

// Drift is one user whose stored counters disagreed with the edges.
type Drift struct {
	UserID string
	Stored models.Counters
	Actual models.Counters
}

type ReconcileReport struct {
	Checked int
	Drifts  []Drift
}

// Reconciler repairs counters that drifted from the edges, e.g. after
// manual edits or a restore from partial backups. Each user is repaired in
// its own transaction.
type Reconciler struct {
	store CounterRecounter
}

func NewReconciler(store CounterRecounter) *Reconciler {
	return &Reconciler{store: store}
}

func (r *Reconciler) Run(ctx context.Context) (*ReconcileReport, error) {
	ids, err := r.store.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		stored, actual, err := r.store.RecountUser(ctx, id)
		if err != nil {
			logger.Error("Counter recount failed", "user_id", id, "error", err)
			return report, err
		}
		report.Checked++
		if stored != actual {
			report.Drifts = append(report.Drifts, Drift{UserID: id, Stored: stored, Actual: actual})
			logger.Warn("Counter drift repaired", "user_id", id, "stored", stored, "actual", actual)
		}
	}

	logger.Info("Counter reconciliation finished", "checked", report.Checked, "drifted", len(report.Drifts))
	return report, nil
}
