package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"asl-holdem/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a per-test in-memory database to avoid cross-test interference.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.Banner{},
		&models.Tournament{},
		&models.TournamentPlayer{},
		&models.SeatTicket{},
		&models.SeatTicketTransaction{},
		&models.UserTicketSummary{},
		&models.TicketDistribution{},
		&models.Notice{},
	))
	return db
}

// asUser fakes the auth middleware so handlers see an authenticated identity.
func asUser(user *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		c.Locals("user_role", string(user.Role))
		return c.Next()
	}
}

func httpDo(t *testing.T, app *fiber.App, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	w := httptest.NewRecorder()
	w.Code = resp.StatusCode
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_, _ = w.Body.Write(raw)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), "body: %s", w.Body.String())
}

func seedUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.NewString(),
		Phone:        fmt.Sprintf("010%08d", time.Now().UnixNano()%100000000),
		Nickname:     "tester",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		QRCodeUUID:   uuid.NewString(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTournament(t *testing.T, db *gorm.DB, buyIn, ticketQuantity int) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{
		ID:             uuid.NewString(),
		Name:           "Weekly Main Event",
		StartTime:      time.Now().Add(24 * time.Hour),
		BuyIn:          buyIn,
		TicketQuantity: ticketQuantity,
		Status:         models.TournamentStatusUpcoming,
	}
	require.NoError(t, db.Create(tournament).Error)
	return tournament
}

func seedStore(t *testing.T, db *gorm.DB, owner *models.User) *models.Store {
	t.Helper()
	store := &models.Store{
		ID:      uuid.NewString(),
		Name:    "Gangnam Branch",
		Slug:    "gangnam-branch-" + uuid.NewString()[:8],
		OwnerID: owner.ID,
		Status:  models.StoreStatusActive,
	}
	require.NoError(t, db.Create(store).Error)
	return store
}
