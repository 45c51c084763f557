// services/scheduler.go
package services

import (
	"log"
	"time"

	"asl-holdem/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SweepExpiredTickets flips every ACTIVE ticket past its expiry to EXPIRED,
// writes the EXPIRE ledger row and recounts the affected summaries. Reads
// never mutate ticket state; this sweep is the only place expiry is applied.
func SweepExpiredTickets(db *gorm.DB) (int, error) {
	return sweepExpiredTickets(db, time.Now())
}

func sweepExpiredTickets(db *gorm.DB, now time.Time) (int, error) {
	swept := 0

	err := db.Transaction(func(tx *gorm.DB) error {
		// Strictly before now: a ticket expiring at this exact instant is
		// still valid per IsCurrentlyValid, so the sweep must not take it.
		var expired []models.SeatTicket
		if err := forUpdate(tx).
			Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?",
				models.TicketActive, now).
			Find(&expired).Error; err != nil {
			return err
		}

		type summaryKey struct{ userID, tournamentID string }
		touched := map[summaryKey]struct{}{}

		for i := range expired {
			t := &expired[i]
			t.Status = models.TicketExpired
			if err := tx.Save(t).Error; err != nil {
				return err
			}
			ledger := models.SeatTicketTransaction{
				ID:           uuid.NewString(),
				SeatTicketID: t.ID,
				Type:         models.TxExpire,
				Quantity:     1,
				Reason:       "ticket expired",
			}
			if err := tx.Create(&ledger).Error; err != nil {
				return err
			}
			touched[summaryKey{t.UserID, t.TournamentID}] = struct{}{}
			swept++
		}

		for key := range touched {
			if _, err := recountSummary(tx, key.userID, key.tournamentID); err != nil {
				return err
			}
		}
		return nil
	})
	return swept, err
}

// syncTournamentStatuses moves tournaments along UPCOMING -> ONGOING ->
// COMPLETED from their start/end times. Manually cancelled rows are left
// alone.
func syncTournamentStatuses(db *gorm.DB) error {
	now := time.Now()

	if err := db.Model(&models.Tournament{}).
		Where("status = ? AND start_time <= ?", models.TournamentStatusUpcoming, now).
		Update("status", models.TournamentStatusOngoing).Error; err != nil {
		return err
	}
	return db.Model(&models.Tournament{}).
		Where("status = ? AND end_time IS NOT NULL AND end_time <= ?",
			models.TournamentStatusOngoing, now).
		Update("status", models.TournamentStatusCompleted).Error
}

// StartTicketScheduler runs the expiry sweep every minute and the tournament
// status sync every five.
func (s *TicketService) StartTicketScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			swept, err := SweepExpiredTickets(s.DB)
			if err != nil {
				log.Printf("[Scheduler] expiry sweep failed: %v", err)
				return
			}
			if swept > 0 {
				log.Printf("[Scheduler] expired %d seat ticket(s)", swept)
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			if err := syncTournamentStatuses(s.DB); err != nil {
				log.Printf("[Scheduler] tournament status sync failed: %v", err)
			}
		}),
	)
}
