package services

import (
	"net/http"
	"testing"
	"time"

	"asl-holdem/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRegistrationApp(db *gorm.DB, actor *models.User) *fiber.App {
	svc := NewRegistrationService(db)
	app := fiber.New()
	app.Use(asUser(actor))
	app.Post("/tournaments/:id/players", svc.RegisterPlayer)
	app.Get("/tournaments/:id/players", svc.ListPlayers)
	app.Post("/tournaments/:id/players/:player_id/cancel", svc.CancelRegistration)
	return app
}

func grantActive(t *testing.T, db *gorm.DB, user *models.User, tournament *models.Tournament, n int, at time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		ticket := models.SeatTicket{
			ID:           uuidLike(t, user.ID, at, i),
			TournamentID: tournament.ID,
			UserID:       user.ID,
			Status:       models.TicketActive,
			Source:       models.SourceGift,
			CreatedAt:    at,
		}
		require.NoError(t, db.Create(&ticket).Error)
	}
}

func uuidLike(t *testing.T, userID string, at time.Time, i int) string {
	t.Helper()
	return userID[:8] + "-" + at.Format("150405") + "-" + string(rune('a'+i))
}

func TestRegisterConsumesBuyInOldestFirst(t *testing.T) {
	db := testDB(t)
	player := seedUser(t, db, models.RoleUser)
	tournament := seedTournament(t, db, 2, 100)
	app := newRegistrationApp(db, player)

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-1 * time.Hour)
	grantActive(t, db, player, tournament, 2, old)
	grantActive(t, db, player, tournament, 1, recent)

	w := httpDo(t, app, "POST", "/tournaments/"+tournament.ID+"/players", fiber.Map{
		"user_id": player.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The two oldest tickets were consumed; the recent one survives.
	var remaining []models.SeatTicket
	require.NoError(t, db.Where("user_id = ? AND status = ?", player.ID, models.TicketActive).
		Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.True(t, remaining[0].CreatedAt.After(old.Add(time.Hour)))

	// USE ledger rows per consumed ticket.
	var useRows int64
	db.Model(&models.SeatTicketTransaction{}).Where("type = ?", models.TxUse).Count(&useRows)
	require.EqualValues(t, 2, useRows)

	var summary models.UserTicketSummary
	require.NoError(t, db.Where("user_id = ? AND tournament_id = ?", player.ID, tournament.ID).
		First(&summary).Error)
	require.Equal(t, 1, summary.ActiveTickets)
	require.Equal(t, 2, summary.UsedTickets)
}

func TestRegisterReportsShortfall(t *testing.T) {
	db := testDB(t)
	player := seedUser(t, db, models.RoleUser)
	tournament := seedTournament(t, db, 3, 100)
	app := newRegistrationApp(db, player)

	grantActive(t, db, player, tournament, 1, time.Now().Add(-time.Hour))

	// An expired ticket must not count toward availability.
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Create(&models.SeatTicket{
		ID: "reg-expired", TournamentID: tournament.ID, UserID: player.ID,
		Status: models.TicketActive, ExpiresAt: &past,
	}).Error)

	w := httpDo(t, app, "POST", "/tournaments/"+tournament.ID+"/players", fiber.Map{
		"user_id": player.ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Required  int `json:"required"`
		Available int `json:"available"`
	}
	decodeJSON(t, w, &resp)
	require.Equal(t, 3, resp.Required)
	require.Equal(t, 1, resp.Available)

	// Nothing was consumed and no registration row was written.
	var active int64
	db.Model(&models.SeatTicket{}).
		Where("user_id = ? AND status = ?", player.ID, models.TicketActive).
		Count(&active)
	require.EqualValues(t, 2, active)
	var players int64
	db.Model(&models.TournamentPlayer{}).Where("user_id = ?", player.ID).Count(&players)
	require.EqualValues(t, 0, players)
}

func TestReRegisterSupersedesPreviousEntry(t *testing.T) {
	db := testDB(t)
	player := seedUser(t, db, models.RoleUser)
	tournament := seedTournament(t, db, 1, 100)
	app := newRegistrationApp(db, player)

	grantActive(t, db, player, tournament, 2, time.Now().Add(-time.Hour))

	w := httpDo(t, app, "POST", "/tournaments/"+tournament.ID+"/players", fiber.Map{
		"user_id": player.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = httpDo(t, app, "POST", "/tournaments/"+tournament.ID+"/players", fiber.Map{
		"user_id": player.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var active, used int64
	db.Model(&models.TournamentPlayer{}).
		Where("user_id = ? AND status = ?", player.ID, models.PlayerStatusActive).
		Count(&active)
	db.Model(&models.TournamentPlayer{}).
		Where("user_id = ? AND status = ?", player.ID, models.PlayerStatusUsed).
		Count(&used)
	require.EqualValues(t, 1, active)
	require.EqualValues(t, 1, used)
}

func TestCancelRegistrationRefundsBuyIn(t *testing.T) {
	db := testDB(t)
	admin := seedUser(t, db, models.RoleAdmin)
	player := seedUser(t, db, models.RoleUser)
	tournament := seedTournament(t, db, 2, 100)
	app := newRegistrationApp(db, admin)

	grantActive(t, db, player, tournament, 2, time.Now().Add(-time.Hour))
	w := httpDo(t, app, "POST", "/tournaments/"+tournament.ID+"/players", fiber.Map{
		"user_id": player.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Player models.TournamentPlayer `json:"player"`
	}
	decodeJSON(t, w, &resp)

	w = httpDo(t, app, "POST",
		"/tournaments/"+tournament.ID+"/players/"+resp.Player.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var player2 models.TournamentPlayer
	require.NoError(t, db.First(&player2, "id = ?", resp.Player.ID).Error)
	require.Equal(t, models.PlayerStatusCancelled, player2.Status)

	// Buy-in came back as fresh ACTIVE tickets with REFUND ledger rows.
	var active, refunds int64
	db.Model(&models.SeatTicket{}).
		Where("user_id = ? AND status = ?", player.ID, models.TicketActive).
		Count(&active)
	db.Model(&models.SeatTicketTransaction{}).Where("type = ?", models.TxRefund).Count(&refunds)
	require.EqualValues(t, 2, active)
	require.EqualValues(t, 2, refunds)
}
