package services

import (
	"net/http"
	"testing"

	"asl-holdem/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDistributionApp(db *gorm.DB, actor *models.User) *fiber.App {
	svc := NewDistributionService(db, NewPolicy())
	app := fiber.New()
	app.Use(asUser(actor))
	app.Post("/seats/distributions", svc.CreateDistribution)
	app.Put("/seats/distributions/:id", svc.UpdateDistribution)
	app.Get("/seats/distributions", svc.ListDistributions)
	app.Post("/seats/distributions/bulk_create", svc.BulkCreateDistributions)
	app.Post("/seats/distributions/auto_distribute", svc.AutoDistribute)
	app.Get("/seats/distributions/summary_by_tournament", svc.SummaryByTournament)
	app.Post("/seats/distributions/:id/distribute_tickets", svc.DistributeTickets)
	app.Post("/seats/distributions/:id/return_tickets", svc.ReturnTickets)
	app.Post("/seats/distributions/:id/distribute_to_user", svc.DistributeToUser)
	return app
}

func TestCreateDistributionEnforcesTournamentCap(t *testing.T) {
	db := testDB(t)
	admin := seedUser(t, db, models.RoleAdmin)
	owner := seedUser(t, db, models.RoleStoreOwner)
	storeA := seedStore(t, db, owner)
	storeB := seedStore(t, db, owner)
	tournament := seedTournament(t, db, 1, 100)
	app := newDistributionApp(db, admin)

	w := httpDo(t, app, "POST", "/seats/distributions", fiber.Map{
		"tournament_id":      tournament.ID,
		"store_id":           storeA.ID,
		"allocated_quantity": 70,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var dist models.TicketDistribution
	decodeJSON(t, w, &dist)
	require.Equal(t, 70, dist.AllocatedQuantity)
	require.Equal(t, 70, dist.RemainingQuantity)
	require.Equal(t, 0, dist.DistributedQuantity)

	// 70 + 40 > 100: rejected.
	w = httpDo(t, app, "POST", "/seats/distributions", fiber.Map{
		"tournament_id":      tournament.ID,
		"store_id":           storeB.ID,
		"allocated_quantity": 40,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 70 + 30 == 100: exactly at the cap is allowed.
	w = httpDo(t, app, "POST", "/seats/distributions", fiber.Map{
		"tournament_id":      tournament.ID,
		"store_id":           storeB.ID,
		"allocated_quantity": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// One allocation per (tournament, store).
	w = httpDo(t, app, "POST", "/seats/distributions", fiber.Map{
		"tournament_id":      tournament.ID,
		"store_id":           storeA.ID,
		"allocated_quantity": 5,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDistributeAndReturnRoundTrip(t *testing.T) {
	db := testDB(t)
	admin := seedUser(t, db, models.RoleAdmin)
	owner := seedUser(t, db, models.RoleStoreOwner)
	store := seedStore(t, db, owner)
	tournament := seedTournament(t, db, 1, 100)
	app := newDistributionApp(db, admin)

	dist := models.TicketDistribution{
		ID: "d1", TournamentID: tournament.ID, StoreID: store.ID,
		AllocatedQuantity: 50, RemainingQuantity: 50,
	}
	require.NoError(t, db.Create(&dist).Error)

	w := httpDo(t, app, "POST", "/seats/distributions/d1/distribute_tickets", fiber.Map{
		"quantity": 20,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var after models.TicketDistribution
	require.NoError(t, db.First(&after, "id = ?", "d1").Error)
	require.Equal(t, 30, after.RemainingQuantity)
	require.Equal(t, 20, after.DistributedQuantity)
	require.NoError(t, after.Validate())

	// Exceeding the remaining pool is a 400 with no state change.
	w = httpDo(t, app, "POST", "/seats/distributions/d1/distribute_tickets", fiber.Map{
		"quantity": 31,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, db.First(&after, "id = ?", "d1").Error)
	require.Equal(t, 30, after.RemainingQuantity)
	require.Equal(t, 20, after.DistributedQuantity)

	// Returning everything restores the original partition.
	w = httpDo(t, app, "POST", "/seats/distributions/d1/return_tickets", fiber.Map{
		"quantity": 20,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, db.First(&after, "id = ?", "d1").Error)
	require.Equal(t, 50, after.RemainingQuantity)
	require.Equal(t, 0, after.DistributedQuantity)

	// Returning more than distributed is rejected.
	w = httpDo(t, app, "POST", "/seats/distributions/d1/return_tickets", fiber.Map{
		"quantity": 1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDistributeToUserCreatesTickets(t *testing.T) {
	db := testDB(t)
	admin := seedUser(t, db, models.RoleAdmin)
	owner := seedUser(t, db, models.RoleStoreOwner)
	player := seedUser(t, db, models.RoleUser)
	store := seedStore(t, db, owner)
	tournament := seedTournament(t, db, 1, 100)
	app := newDistributionApp(db, admin)

	dist := models.TicketDistribution{
		ID: "d2", TournamentID: tournament.ID, StoreID: store.ID,
		AllocatedQuantity: 10, RemainingQuantity: 10,
	}
	require.NoError(t, db.Create(&dist).Error)

	w := httpDo(t, app, "POST", "/seats/distributions/d2/distribute_to_user", fiber.Map{
		"user_id":  player.ID,
		"quantity": 4,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var after models.TicketDistribution
	require.NoError(t, db.First(&after, "id = ?", "d2").Error)
	require.Equal(t, 6, after.RemainingQuantity)
	require.Equal(t, 4, after.DistributedQuantity)

	var tickets []models.SeatTicket
	require.NoError(t, db.Where("user_id = ? AND tournament_id = ?", player.ID, tournament.ID).
		Find(&tickets).Error)
	require.Len(t, tickets, 4)
	for _, ticket := range tickets {
		require.Equal(t, models.TicketActive, ticket.Status)
		require.NotNil(t, ticket.StoreID)
		require.Equal(t, store.ID, *ticket.StoreID)
	}

	var summary models.UserTicketSummary
	require.NoError(t, db.Where("user_id = ? AND tournament_id = ?", player.ID, tournament.ID).
		First(&summary).Error)
	require.Equal(t, 4, summary.ActiveTickets)

	// Pool shortfall rolls the whole thing back.
	w = httpDo(t, app, "POST", "/seats/distributions/d2/distribute_to_user", fiber.Map{
		"user_id":  player.ID,
		"quantity": 7,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var count int64
	db.Model(&models.SeatTicket{}).Where("user_id = ?", player.ID).Count(&count)
	require.EqualValues(t, 4, count)
}

func TestBulkCreateIsAtomic(t *testing.T) {
	db := testDB(t)
	admin := seedUser(t, db, models.RoleAdmin)
	owner := seedUser(t, db, models.RoleStoreOwner)
	storeA := seedStore(t, db, owner)
	storeB := seedStore(t, db, owner)
	tournament := seedTournament(t, db, 1, 100)
	app := newDistributionApp(db, admin)

	// Second allocation blows the cap, so the first must roll back too.
	w := httpDo(t, app, "POST", "/seats/distributions/bulk_create", fiber.Map{
		"tournament_id": tournament.ID,
		"allocations": []fiber.Map{
			{"store_id": storeA.ID, "quantity": 60},
			{"store_id": storeB.ID, "quantity": 60},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&models.TicketDistribution{}).Where("tournament_id = ?", tournament.ID).Count(&count)
	require.EqualValues(t, 0, count)

	// Within the cap both rows land.
	w = httpDo(t, app, "POST", "/seats/distributions/bulk_create", fiber.Map{
		"tournament_id": tournament.ID,
		"allocations": []fiber.Map{
			{"store_id": storeA.ID, "quantity": 60},
			{"store_id": storeB.ID, "quantity": 40},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	db.Model(&models.TicketDistribution{}).Where("tournament_id = ?", tournament.ID).Count(&count)
	require.EqualValues(t, 2, count)
}

func TestAutoDistributeSplitsPoolByWeight(t *testing.T) {
	db := testDB(t)
	admin := seedUser(t, db, models.RoleAdmin)
	owner := seedUser(t, db, models.RoleStoreOwner)
	storeA := seedStore(t, db, owner)
	storeB := seedStore(t, db, owner)
	tournament := seedTournament(t, db, 1, 90)
	app := newDistributionApp(db, admin)

	w := httpDo(t, app, "POST", "/seats/distributions/auto_distribute", fiber.Map{
		"tournament_id": tournament.ID,
		"stores": []fiber.Map{
			{"store_id": storeA.ID, "weight": 2},
			{"store_id": storeB.ID, "weight": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var distA, distB models.TicketDistribution
	require.NoError(t, db.Where("tournament_id = ? AND store_id = ?", tournament.ID, storeA.ID).
		First(&distA).Error)
	require.NoError(t, db.Where("tournament_id = ? AND store_id = ?", tournament.ID, storeB.ID).
		First(&distB).Error)
	require.Equal(t, 60, distA.AllocatedQuantity)
	require.Equal(t, 30, distB.AllocatedQuantity)

	// Pool is now exhausted.
	w = httpDo(t, app, "POST", "/seats/distributions/auto_distribute", fiber.Map{
		"tournament_id": tournament.ID,
		"stores":        []fiber.Map{{"store_id": storeA.ID}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummaryByTournament(t *testing.T) {
	db := testDB(t)
	admin := seedUser(t, db, models.RoleAdmin)
	owner := seedUser(t, db, models.RoleStoreOwner)
	store := seedStore(t, db, owner)
	tournament := seedTournament(t, db, 1, 100)
	app := newDistributionApp(db, admin)

	dist := models.TicketDistribution{
		ID: "d3", TournamentID: tournament.ID, StoreID: store.ID,
		AllocatedQuantity: 40, RemainingQuantity: 25, DistributedQuantity: 15,
	}
	require.NoError(t, db.Create(&dist).Error)

	w := httpDo(t, app, "GET", "/seats/distributions/summary_by_tournament?tournament_id="+tournament.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Summary struct {
			TotalAllocated   int `json:"total_allocated"`
			TotalRemaining   int `json:"total_remaining"`
			TotalDistributed int `json:"total_distributed"`
			Unallocated      int `json:"unallocated"`
		} `json:"summary"`
	}
	decodeJSON(t, w, &resp)
	require.Equal(t, 40, resp.Summary.TotalAllocated)
	require.Equal(t, 25, resp.Summary.TotalRemaining)
	require.Equal(t, 15, resp.Summary.TotalDistributed)
	require.Equal(t, 60, resp.Summary.Unallocated)
}

func TestPoolMovesScopedToOwningStore(t *testing.T) {
	db := testDB(t)
	ownerA := seedUser(t, db, models.RoleStoreOwner)
	ownerB := seedUser(t, db, models.RoleStoreOwner)
	player := seedUser(t, db, models.RoleUser)
	storeA := seedStore(t, db, ownerA)
	tournament := seedTournament(t, db, 1, 100)

	dist := models.TicketDistribution{
		ID: "d4", TournamentID: tournament.ID, StoreID: storeA.ID,
		AllocatedQuantity: 50, RemainingQuantity: 50,
	}
	require.NoError(t, db.Create(&dist).Error)

	// A different store's owner cannot touch the allocation.
	intruder := newDistributionApp(db, ownerB)
	w := httpDo(t, intruder, "POST", "/seats/distributions/d4/distribute_tickets", fiber.Map{
		"quantity": 50,
	})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = httpDo(t, intruder, "POST", "/seats/distributions/d4/return_tickets", fiber.Map{
		"quantity": 1,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httpDo(t, intruder, "POST", "/seats/distributions/d4/distribute_to_user", fiber.Map{
		"user_id":  player.ID,
		"quantity": 5,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	var after models.TicketDistribution
	require.NoError(t, db.First(&after, "id = ?", "d4").Error)
	require.Equal(t, 50, after.RemainingQuantity)
	require.Equal(t, 0, after.DistributedQuantity)
	var tickets int64
	db.Model(&models.SeatTicket{}).Where("user_id = ?", player.ID).Count(&tickets)
	require.EqualValues(t, 0, tickets)

	// The owning store's owner can.
	owned := newDistributionApp(db, ownerA)
	w = httpDo(t, owned, "POST", "/seats/distributions/d4/distribute_tickets", fiber.Map{
		"quantity": 10,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, db.First(&after, "id = ?", "d4").Error)
	require.Equal(t, 40, after.RemainingQuantity)
	require.Equal(t, 10, after.DistributedQuantity)
}
