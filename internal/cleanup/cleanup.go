package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/sulthanfragrance/storefront/internal/repo"
)

// Service removes orders stuck in pending or failed payment state so
// abandoned checkouts do not accumulate. Carts behind them are marked
// abandoned, not deleted.
type Service struct {
	Repo *repo.GormRepo
	Log  *slog.Logger
}

type Result struct {
	Examined int
	Deleted  int64
}

func (s *Service) Run(ctx context.Context, olderThan time.Duration, dryRun bool) (Result, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	orders, err := s.Repo.StaleOrders(ctx, cutoff)
	if err != nil {
		return Result{}, err
	}
	res := Result{Examined: len(orders)}

	if dryRun {
		for i := range orders {
			s.Log.Info("would delete stale order",
				"order_number", orders[i].OrderNumber,
				"payment_status", orders[i].PaymentStatus,
				"created_at", orders[i].CreatedAt)
		}
		return res, nil
	}

	deleted, err := s.Repo.DeleteStaleOrders(ctx, orders)
	if err != nil {
		return Result{}, err
	}
	res.Deleted = deleted

	s.Log.Info("stale order cleanup finished", "examined", res.Examined, "deleted", res.Deleted)
	return res, nil
}
