package workers

import (
	"context"
	"log"
	"time"

	"asl-holdem/models"

	"gorm.io/gorm"
)

// SummaryReconciler periodically re-derives every user/tournament summary row
// from the tickets table. The request path already recounts after each
// mutation; this worker is the backstop that repairs drift left by crashes or
// out-of-band writes.
type SummaryReconciler struct {
	DB        *gorm.DB
	BatchSize int
}

func NewSummaryReconciler(db *gorm.DB) *SummaryReconciler {
	return &SummaryReconciler{DB: db, BatchSize: 200}
}

// ReconcileOnce walks the summary table in batches and rewrites any row whose
// counts disagree with the tickets table. Returns the number of rows fixed.
func (r *SummaryReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	fixed := 0
	offset := 0

	for {
		select {
		case <-ctx.Done():
			return fixed, ctx.Err()
		default:
		}

		var summaries []models.UserTicketSummary
		if err := r.DB.WithContext(ctx).
			Order("id").
			Limit(r.BatchSize).
			Offset(offset).
			Find(&summaries).Error; err != nil {
			return fixed, err
		}
		if len(summaries) == 0 {
			return fixed, nil
		}

		for i := range summaries {
			sum := &summaries[i]

			var active, used, total int64
			base := r.DB.WithContext(ctx).Model(&models.SeatTicket{}).
				Where("user_id = ? AND tournament_id = ?", sum.UserID, sum.TournamentID)
			if err := base.Session(&gorm.Session{}).
				Where("status = ?", models.TicketActive).Count(&active).Error; err != nil {
				return fixed, err
			}
			if err := base.Session(&gorm.Session{}).
				Where("status = ?", models.TicketUsed).Count(&used).Error; err != nil {
				return fixed, err
			}
			if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
				return fixed, err
			}

			if sum.ActiveTickets == int(active) && sum.UsedTickets == int(used) && sum.TotalTickets == int(total) {
				continue
			}

			log.Printf("[Reconciler] drift on user=%s tournament=%s: summary(%d/%d/%d) actual(%d/%d/%d)",
				sum.UserID, sum.TournamentID,
				sum.ActiveTickets, sum.UsedTickets, sum.TotalTickets,
				active, used, total)

			sum.ActiveTickets = int(active)
			sum.UsedTickets = int(used)
			sum.TotalTickets = int(total)
			if err := r.DB.WithContext(ctx).Save(sum).Error; err != nil {
				return fixed, err
			}
			fixed++
		}

		offset += len(summaries)
	}
}

// PollSummaries runs ReconcileOnce on a fixed interval until ctx is done.
func PollSummaries(ctx context.Context, reconciler *SummaryReconciler, pollInterval time.Duration) {
	log.Println("Starting summary reconcile worker...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Summary reconcile worker stopped.")
			return
		case <-ticker.C:
			fixed, err := reconciler.ReconcileOnce(ctx)
			if err != nil {
				log.Printf("[Reconciler] pass failed: %v", err)
				continue
			}
			if fixed > 0 {
				log.Printf("[Reconciler] repaired %d summary row(s)", fixed)
			}
		}
	}
}
