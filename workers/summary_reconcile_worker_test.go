package workers

import (
	"context"
	"fmt"
	"testing"

	"asl-holdem/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tournament{},
		&models.SeatTicket{},
		&models.UserTicketSummary{},
	))
	return db
}

func TestReconcileOnceRepairsDrift(t *testing.T) {
	db := testDB(t)

	for i, status := range []models.TicketStatus{
		models.TicketActive, models.TicketActive, models.TicketUsed,
	} {
		require.NoError(t, db.Create(&models.SeatTicket{
			ID:           fmt.Sprintf("t%d", i),
			TournamentID: "tour-1",
			UserID:       "user-1",
			Status:       status,
		}).Error)
	}

	// Summary row with wrong counts, as if a recount was lost.
	require.NoError(t, db.Create(&models.UserTicketSummary{
		ID:            "sum-1",
		UserID:        "user-1",
		TournamentID:  "tour-1",
		ActiveTickets: 9,
		UsedTickets:   0,
		TotalTickets:  9,
	}).Error)

	// A consistent row that must be left alone.
	require.NoError(t, db.Create(&models.SeatTicket{
		ID: "t-other", TournamentID: "tour-2", UserID: "user-2", Status: models.TicketActive,
	}).Error)
	require.NoError(t, db.Create(&models.UserTicketSummary{
		ID:            "sum-2",
		UserID:        "user-2",
		TournamentID:  "tour-2",
		ActiveTickets: 1,
		UsedTickets:   0,
		TotalTickets:  1,
	}).Error)

	reconciler := NewSummaryReconciler(db)
	fixed, err := reconciler.ReconcileOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fixed)

	var summary models.UserTicketSummary
	require.NoError(t, db.First(&summary, "id = ?", "sum-1").Error)
	require.Equal(t, 2, summary.ActiveTickets)
	require.Equal(t, 1, summary.UsedTickets)
	require.Equal(t, 3, summary.TotalTickets)

	// Second pass is a no-op.
	fixed, err = reconciler.ReconcileOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, fixed)
}
