package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"asl-holdem/models"
	"asl-holdem/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DistributionService struct {
	DB     *gorm.DB
	Policy *Policy
}

func NewDistributionService(db *gorm.DB, policy *Policy) *DistributionService {
	return &DistributionService{DB: db, Policy: policy}
}

var errQuantityRejected = errors.New("quantity rejected")

// checkTournamentCap verifies that the sum of allocations for the tournament,
// excluding the row being updated, plus the candidate quantity stays within
// the tournament's ticket_quantity.
func checkTournamentCap(tx *gorm.DB, tournament *models.Tournament, excludeID string, candidate int) error {
	var allocated int64
	query := tx.Model(&models.TicketDistribution{}).
		Where("tournament_id = ?", tournament.ID)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Select("COALESCE(SUM(allocated_quantity), 0)").Scan(&allocated).Error; err != nil {
		return err
	}
	total := int(allocated) + candidate
	if total > tournament.TicketQuantity {
		return fmt.Errorf("total allocation (%d) would exceed tournament ticket quantity (%d)",
			total, tournament.TicketQuantity)
	}
	return nil
}

// CreateDistribution allocates part of a tournament's ticket pool to a store.
// POST /seats/distributions
func (s *DistributionService) CreateDistribution(c *fiber.Ctx) error {
	var req struct {
		TournamentID      string `json:"tournament_id" validate:"required"`
		StoreID           string `json:"store_id" validate:"required"`
		AllocatedQuantity int    `json:"allocated_quantity" validate:"required,min=1"`
		Memo              string `json:"memo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", req.TournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching tournament"})
	}
	var store models.Store
	if err := s.DB.First(&store, "id = ?", req.StoreID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "store not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching store"})
	}

	dist := models.TicketDistribution{
		ID:                uuid.NewString(),
		TournamentID:      tournament.ID,
		StoreID:           store.ID,
		AllocatedQuantity: req.AllocatedQuantity,
		RemainingQuantity: req.AllocatedQuantity,
		Memo:              req.Memo,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := dist.Validate(); err != nil {
			return err
		}
		if err := checkTournamentCap(tx, &tournament, "", dist.AllocatedQuantity); err != nil {
			return err
		}
		var count int64
		tx.Model(&models.TicketDistribution{}).
			Where("tournament_id = ? AND store_id = ?", tournament.ID, store.ID).
			Count(&count)
		if count > 0 {
			return errors.New("this store already has a distribution for the tournament")
		}
		return tx.Create(&dist).Error
	})
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	dist.Tournament = tournament
	dist.Store = store
	return c.Status(201).JSON(dist)
}

// UpdateDistribution changes the allocated quantity or memo. The partition is
// re-derived so remaining absorbs the difference; validation and the
// tournament cap run again on every save.
// PUT /seats/distributions/:id
func (s *DistributionService) UpdateDistribution(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		AllocatedQuantity *int    `json:"allocated_quantity"`
		Memo              *string `json:"memo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	var dist models.TicketDistribution
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&dist, "id = ?", id).Error; err != nil {
			return err
		}
		if req.AllocatedQuantity != nil {
			newAllocated := *req.AllocatedQuantity
			// Already-distributed tickets cannot be pulled back by shrinking
			// the allocation.
			if newAllocated < dist.DistributedQuantity {
				return fmt.Errorf("allocated_quantity (%d) cannot drop below distributed_quantity (%d)",
					newAllocated, dist.DistributedQuantity)
			}
			dist.AllocatedQuantity = newAllocated
			dist.RemainingQuantity = newAllocated - dist.DistributedQuantity
		}
		if req.Memo != nil {
			dist.Memo = *req.Memo
		}
		if err := dist.Validate(); err != nil {
			return err
		}
		var tournament models.Tournament
		if err := tx.First(&tournament, "id = ?", dist.TournamentID).Error; err != nil {
			return err
		}
		if err := checkTournamentCap(tx, &tournament, dist.ID, dist.AllocatedQuantity); err != nil {
			return err
		}
		return tx.Save(&dist).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "distribution not found"})
	}
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(dist)
}

// ListDistributions with optional tournament/store filters.
// GET /seats/distributions
func (s *DistributionService) ListDistributions(c *fiber.Ctx) error {
	query := s.DB.Model(&models.TicketDistribution{}).
		Preload("Tournament").Preload("Store")
	if v := c.Query("tournament_id"); v != "" {
		query = query.Where("tournament_id = ?", v)
	}
	if v := c.Query("store_id"); v != "" {
		query = query.Where("store_id = ?", v)
	}

	var dists []models.TicketDistribution
	if err := query.Order("created_at DESC").Find(&dists).Error; err != nil {
		log.Printf("[Distributions] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch distributions"})
	}
	return c.JSON(dists)
}

// GetDistribution returns one record.
// GET /seats/distributions/:id
func (s *DistributionService) GetDistribution(c *fiber.Ctx) error {
	var dist models.TicketDistribution
	if err := s.DB.Preload("Tournament").Preload("Store").
		First(&dist, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "distribution not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(dist)
}

// DistributeTickets moves quantity from the store's remaining pool to the
// distributed pool under a row lock.
// POST /seats/distributions/:id/distribute_tickets
func (s *DistributionService) DistributeTickets(c *fiber.Ctx) error {
	return s.applyPoolMove(c, func(d *models.TicketDistribution, qty int) bool {
		return d.Distribute(qty)
	}, "distributed")
}

// ReturnTickets is the inverse move.
// POST /seats/distributions/:id/return_tickets
func (s *DistributionService) ReturnTickets(c *fiber.Ctx) error {
	return s.applyPoolMove(c, func(d *models.TicketDistribution, qty int) bool {
		return d.Return(qty)
	}, "returned")
}

func (s *DistributionService) applyPoolMove(c *fiber.Ctx,
	move func(*models.TicketDistribution, int) bool, verb string) error {

	id := c.Params("id")
	var req struct {
		Quantity int    `json:"quantity" validate:"required,min=1"`
		Memo     string `json:"memo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	actor, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	var dist models.TicketDistribution
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Preload("Store").First(&dist, "id = ?", id).Error; err != nil {
			return err
		}
		if !s.Policy.Can(actor, ActionDistributeTickets, &dist) {
			return errForbidden
		}
		if !move(&dist, req.Quantity) {
			return errQuantityRejected
		}
		if err := dist.Validate(); err != nil {
			return err
		}
		if req.Memo != "" {
			dist.Memo = req.Memo
		}
		return tx.Save(&dist).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "distribution not found"})
	}
	if errors.Is(err, errForbidden) {
		return c.Status(403).JSON(fiber.Map{"error": "not allowed to manage this allocation"})
	}
	if errors.Is(err, errQuantityRejected) {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("quantity %d cannot be %s (remaining=%d, distributed=%d)",
				req.Quantity, verb, dist.RemainingQuantity, dist.DistributedQuantity),
		})
	}
	if err != nil {
		log.Printf("[Distributions] %s failed on %s: %v", verb, id, err)
		return c.Status(500).JSON(fiber.Map{"error": "distribution update failed"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("%d ticket(s) %s", req.Quantity, verb),
		"data":    dist,
	})
}

// DistributeToUser moves quantity out of the store pool and immediately
// materializes it as ACTIVE tickets for one player, in a single transaction.
// POST /seats/distributions/:id/distribute_to_user
func (s *DistributionService) DistributeToUser(c *fiber.Ctx) error {
	id := c.Params("id")
	var req struct {
		UserID    string     `json:"user_id" validate:"required"`
		Quantity  int        `json:"quantity" validate:"required,min=1,max=100"`
		Amount    float64    `json:"amount" validate:"gte=0"`
		ExpiresAt *time.Time `json:"expires_at"`
		Memo      string     `json:"memo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching user"})
	}

	actor, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}
	processedBy := &actor.ID

	var dist models.TicketDistribution
	var created []models.SeatTicket
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Preload("Store").First(&dist, "id = ?", id).Error; err != nil {
			return err
		}
		if !s.Policy.Can(actor, ActionDistributeTickets, &dist) {
			return errForbidden
		}
		if !dist.Distribute(req.Quantity) {
			return errQuantityRejected
		}
		if err := dist.Validate(); err != nil {
			return err
		}
		if err := tx.Save(&dist).Error; err != nil {
			return err
		}
		var tournament models.Tournament
		if err := tx.First(&tournament, "id = ?", dist.TournamentID).Error; err != nil {
			return err
		}
		var err error
		created, err = createTickets(tx, &user, &tournament, &dist.StoreID,
			req.Quantity, models.SourcePurchase, req.Amount, req.ExpiresAt, req.Memo, processedBy)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "distribution not found"})
	}
	if errors.Is(err, errForbidden) {
		return c.Status(403).JSON(fiber.Map{"error": "not allowed to manage this allocation"})
	}
	if errors.Is(err, errQuantityRejected) {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": fmt.Sprintf("quantity %d exceeds remaining pool (%d)", req.Quantity, dist.RemainingQuantity),
		})
	}
	if err != nil {
		log.Printf("[Distributions] distribute_to_user failed on %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "distribution failed"})
	}

	utils.CacheInvalidate(c.Context(), userStatsCacheKey(user.ID))

	return c.JSON(fiber.Map{
		"success":         true,
		"message":         fmt.Sprintf("%d ticket(s) handed to %s", req.Quantity, user.Phone),
		"distribution":    dist,
		"granted_tickets": created,
	})
}

// BulkCreateDistributions creates or tops up one allocation per store. The
// whole batch is all-or-nothing; any cap or validation failure rolls back
// every row.
// POST /seats/distributions/bulk_create
func (s *DistributionService) BulkCreateDistributions(c *fiber.Ctx) error {
	var req struct {
		TournamentID string `json:"tournament_id" validate:"required"`
		Allocations  []struct {
			StoreID  string `json:"store_id" validate:"required"`
			Quantity int    `json:"quantity" validate:"required,min=1"`
		} `json:"allocations" validate:"required,min=1,dive"`
		Memo string `json:"memo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", req.TournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching tournament"})
	}

	var results []models.TicketDistribution
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, alloc := range req.Allocations {
			var store models.Store
			if err := tx.First(&store, "id = ?", alloc.StoreID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("store %s not found", alloc.StoreID)
				}
				return err
			}

			var dist models.TicketDistribution
			err := forUpdate(tx).
				Where("tournament_id = ? AND store_id = ?", tournament.ID, store.ID).
				First(&dist).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				dist = models.TicketDistribution{
					ID:                uuid.NewString(),
					TournamentID:      tournament.ID,
					StoreID:           store.ID,
					AllocatedQuantity: alloc.Quantity,
					RemainingQuantity: alloc.Quantity,
					Memo:              req.Memo,
				}
				if err := dist.Validate(); err != nil {
					return err
				}
				// Cap is revalidated on every insertion.
				if err := checkTournamentCap(tx, &tournament, "", dist.AllocatedQuantity); err != nil {
					return err
				}
				if err := tx.Create(&dist).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				dist.AllocatedQuantity += alloc.Quantity
				dist.RemainingQuantity += alloc.Quantity
				if err := dist.Validate(); err != nil {
					return err
				}
				if err := checkTournamentCap(tx, &tournament, dist.ID, dist.AllocatedQuantity); err != nil {
					return err
				}
				if err := tx.Save(&dist).Error; err != nil {
					return err
				}
			}
			results = append(results, dist)
		}
		return nil
	})
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{
		"message":       fmt.Sprintf("%d allocation(s) written", len(results)),
		"distributions": results,
	})
}

// AutoDistribute splits the tournament's unallocated pool across stores by
// weight (equal weights when omitted). Remainder units go to the first stores
// in the list. All-or-nothing like bulk_create.
// POST /seats/distributions/auto_distribute
func (s *DistributionService) AutoDistribute(c *fiber.Ctx) error {
	var req struct {
		TournamentID string `json:"tournament_id" validate:"required"`
		Stores       []struct {
			StoreID string `json:"store_id" validate:"required"`
			Weight  int    `json:"weight" validate:"omitempty,min=1"`
		} `json:"stores" validate:"required,min=1,dive"`
		Memo string `json:"memo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", req.TournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching tournament"})
	}

	var results []models.TicketDistribution
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var allocated int64
		if err := tx.Model(&models.TicketDistribution{}).
			Where("tournament_id = ?", tournament.ID).
			Select("COALESCE(SUM(allocated_quantity), 0)").
			Scan(&allocated).Error; err != nil {
			return err
		}
		pool := tournament.TicketQuantity - int(allocated)
		if pool <= 0 {
			return fmt.Errorf("tournament pool is fully allocated (%d/%d)",
				allocated, tournament.TicketQuantity)
		}

		totalWeight := 0
		weights := make([]int, len(req.Stores))
		for i, st := range req.Stores {
			w := st.Weight
			if w <= 0 {
				w = 1
			}
			weights[i] = w
			totalWeight += w
		}

		assigned := 0
		shares := make([]int, len(req.Stores))
		for i := range req.Stores {
			shares[i] = pool * weights[i] / totalWeight
			assigned += shares[i]
		}
		// Left-over units from integer division go to the head of the list.
		for i := 0; assigned < pool; i++ {
			shares[i%len(shares)]++
			assigned++
		}

		for i, st := range req.Stores {
			if shares[i] == 0 {
				continue
			}
			var store models.Store
			if err := tx.First(&store, "id = ?", st.StoreID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("store %s not found", st.StoreID)
				}
				return err
			}

			var dist models.TicketDistribution
			err := forUpdate(tx).
				Where("tournament_id = ? AND store_id = ?", tournament.ID, store.ID).
				First(&dist).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				dist = models.TicketDistribution{
					ID:                uuid.NewString(),
					TournamentID:      tournament.ID,
					StoreID:           store.ID,
					AllocatedQuantity: shares[i],
					RemainingQuantity: shares[i],
					Memo:              req.Memo,
				}
			case err != nil:
				return err
			default:
				dist.AllocatedQuantity += shares[i]
				dist.RemainingQuantity += shares[i]
			}
			if err := dist.Validate(); err != nil {
				return err
			}
			if err := checkTournamentCap(tx, &tournament, dist.ID, dist.AllocatedQuantity); err != nil {
				return err
			}
			if err := tx.Save(&dist).Error; err != nil {
				return err
			}
			results = append(results, dist)
		}
		return nil
	})
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{
		"message":       fmt.Sprintf("auto-distributed across %d store(s)", len(results)),
		"distributions": results,
	})
}

// SummaryByTournament rolls one tournament's allocations up per store.
// GET /seats/distributions/summary_by_tournament?tournament_id=...
func (s *DistributionService) SummaryByTournament(c *fiber.Ctx) error {
	tournamentID := c.Query("tournament_id")
	if tournamentID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "tournament_id parameter is required"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching tournament"})
	}

	var dists []models.TicketDistribution
	if err := s.DB.Preload("Store").
		Where("tournament_id = ?", tournamentID).
		Find(&dists).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch distributions"})
	}

	totalAllocated, totalRemaining, totalDistributed := 0, 0, 0
	storeRows := []fiber.Map{}
	for _, d := range dists {
		totalAllocated += d.AllocatedQuantity
		totalRemaining += d.RemainingQuantity
		totalDistributed += d.DistributedQuantity
		storeRows = append(storeRows, fiber.Map{
			"store_id":             d.StoreID,
			"store_name":           d.Store.Name,
			"allocated_quantity":   d.AllocatedQuantity,
			"remaining_quantity":   d.RemainingQuantity,
			"distributed_quantity": d.DistributedQuantity,
			"distribution_rate":    d.DistributionRate(),
		})
	}

	rate := 0.0
	if totalAllocated > 0 {
		rate = float64(totalDistributed) / float64(totalAllocated) * 100
	}

	return c.JSON(fiber.Map{
		"tournament": fiber.Map{
			"id":              tournament.ID,
			"name":            tournament.Name,
			"ticket_quantity": tournament.TicketQuantity,
		},
		"summary": fiber.Map{
			"total_allocated":   totalAllocated,
			"total_remaining":   totalRemaining,
			"total_distributed": totalDistributed,
			"unallocated":       tournament.TicketQuantity - totalAllocated,
			"distribution_rate": rate,
		},
		"store_distributions": storeRows,
	})
}

// SummaryByStore rolls one store's allocations up per tournament.
// GET /seats/distributions/summary_by_store?store_id=...
func (s *DistributionService) SummaryByStore(c *fiber.Ctx) error {
	storeID := c.Query("store_id")
	if storeID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "store_id parameter is required"})
	}

	var store models.Store
	if err := s.DB.First(&store, "id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "store not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching store"})
	}

	var dists []models.TicketDistribution
	if err := s.DB.Preload("Tournament").
		Where("store_id = ?", storeID).
		Find(&dists).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch distributions"})
	}

	totalAllocated, totalRemaining, totalDistributed := 0, 0, 0
	rows := []fiber.Map{}
	for _, d := range dists {
		totalAllocated += d.AllocatedQuantity
		totalRemaining += d.RemainingQuantity
		totalDistributed += d.DistributedQuantity
		rows = append(rows, fiber.Map{
			"tournament_id":        d.TournamentID,
			"tournament_name":      d.Tournament.Name,
			"allocated_quantity":   d.AllocatedQuantity,
			"remaining_quantity":   d.RemainingQuantity,
			"distributed_quantity": d.DistributedQuantity,
			"distribution_rate":    d.DistributionRate(),
		})
	}

	rate := 0.0
	if totalAllocated > 0 {
		rate = float64(totalDistributed) / float64(totalAllocated) * 100
	}

	return c.JSON(fiber.Map{
		"store": fiber.Map{"id": store.ID, "name": store.Name},
		"summary": fiber.Map{
			"total_allocated":   totalAllocated,
			"total_remaining":   totalRemaining,
			"total_distributed": totalDistributed,
			"distribution_rate": rate,
		},
		"tournament_distributions": rows,
	})
}

// OverallSummary aggregates every allocation grouped by tournament and store.
// GET /seats/distributions/overall_summary
func (s *DistributionService) OverallSummary(c *fiber.Ctx) error {
	var dists []models.TicketDistribution
	if err := s.DB.Preload("Tournament").Preload("Store").Find(&dists).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch distributions"})
	}

	type bucket struct {
		Name        string `json:"name"`
		Allocated   int    `json:"allocated"`
		Remaining   int    `json:"remaining"`
		Distributed int    `json:"distributed"`
		Count       int    `json:"count"`
	}

	totalAllocated, totalRemaining, totalDistributed := 0, 0, 0
	byTournament := map[string]*bucket{}
	byStore := map[string]*bucket{}
	for _, d := range dists {
		totalAllocated += d.AllocatedQuantity
		totalRemaining += d.RemainingQuantity
		totalDistributed += d.DistributedQuantity

		tb := byTournament[d.TournamentID]
		if tb == nil {
			tb = &bucket{Name: d.Tournament.Name}
			byTournament[d.TournamentID] = tb
		}
		tb.Allocated += d.AllocatedQuantity
		tb.Remaining += d.RemainingQuantity
		tb.Distributed += d.DistributedQuantity
		tb.Count++

		sb := byStore[d.StoreID]
		if sb == nil {
			sb = &bucket{Name: d.Store.Name}
			byStore[d.StoreID] = sb
		}
		sb.Allocated += d.AllocatedQuantity
		sb.Remaining += d.RemainingQuantity
		sb.Distributed += d.DistributedQuantity
		sb.Count++
	}

	rate := 0.0
	if totalAllocated > 0 {
		rate = float64(totalDistributed) / float64(totalAllocated) * 100
	}

	tournamentSummary := make([]*bucket, 0, len(byTournament))
	for _, b := range byTournament {
		tournamentSummary = append(tournamentSummary, b)
	}
	storeSummary := make([]*bucket, 0, len(byStore))
	for _, b := range byStore {
		storeSummary = append(storeSummary, b)
	}

	return c.JSON(fiber.Map{
		"overall_summary": fiber.Map{
			"total_allocated":     totalAllocated,
			"total_remaining":     totalRemaining,
			"total_distributed":   totalDistributed,
			"distribution_rate":   rate,
			"total_distributions": len(dists),
		},
		"tournament_summary": tournamentSummary,
		"store_summary":      storeSummary,
	})
}
