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

type TicketService struct {
	DB     *gorm.DB
	Policy *Policy
}

func NewTicketService(db *gorm.DB, policy *Policy) *TicketService {
	return &TicketService{DB: db, Policy: policy}
}

// createTickets writes quantity tickets plus their GRANT ledger rows and
// recounts the owner's summary. Must run inside tx.
func createTickets(tx *gorm.DB, user *models.User, tournament *models.Tournament, storeID *string,
	quantity int, source models.TicketSource, amount float64, expiresAt *time.Time,
	memo string, processedBy *string) ([]models.SeatTicket, error) {

	created := make([]models.SeatTicket, 0, quantity)
	for i := 0; i < quantity; i++ {
		ticket := models.SeatTicket{
			ID:           uuid.NewString(),
			TournamentID: tournament.ID,
			UserID:       user.ID,
			StoreID:      storeID,
			Status:       models.TicketActive,
			Source:       source,
			Amount:       amount,
			ExpiresAt:    expiresAt,
			Memo:         memo,
		}
		if err := tx.Create(&ticket).Error; err != nil {
			return nil, err
		}
		ledger := models.SeatTicketTransaction{
			ID:            uuid.NewString(),
			SeatTicketID:  ticket.ID,
			Type:          models.TxGrant,
			Quantity:      1,
			Amount:        amount,
			Reason:        fmt.Sprintf("seat ticket granted: %s", memo),
			ProcessedByID: processedBy,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return nil, err
		}
		created = append(created, ticket)
	}

	if _, err := recountSummary(tx, user.ID, tournament.ID); err != nil {
		return nil, err
	}
	return created, nil
}

// GrantTickets hands quantity tickets to one user for a tournament.
// POST /seats/tickets/grant
func (s *TicketService) GrantTickets(c *fiber.Ctx) error {
	var req struct {
		UserID       string     `json:"user_id" validate:"required"`
		TournamentID string     `json:"tournament_id" validate:"required"`
		StoreID      string     `json:"store_id"`
		Quantity     int        `json:"quantity" validate:"required,min=1,max=100"`
		Source       string     `json:"source" validate:"omitempty,oneof=PURCHASE REWARD GIFT ADMIN"`
		Amount       float64    `json:"amount" validate:"gte=0"`
		ExpiresAt    *time.Time `json:"expires_at"`
		Memo         string     `json:"memo"`
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
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", req.TournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching tournament"})
	}

	actor, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	var storeID *string
	var storeName string
	var grantScope interface{}
	if req.StoreID != "" {
		var store models.Store
		if err := s.DB.First(&store, "id = ?", req.StoreID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "store not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": "DB error fetching store"})
		}
		storeID = &store.ID
		storeName = store.Name
		grantScope = &store
	}
	if !s.Policy.Can(actor, ActionGrantTickets, grantScope) {
		return c.Status(403).JSON(fiber.Map{"error": "not allowed to grant tickets for this store"})
	}

	source := models.TicketSource(req.Source)
	if source == "" {
		source = models.SourcePurchase
	}

	processedBy := &actor.ID

	var created []models.SeatTicket
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = createTickets(tx, &user, &tournament, storeID,
			req.Quantity, source, req.Amount, req.ExpiresAt, req.Memo, processedBy)
		return err
	})
	if err != nil {
		log.Printf("[Tickets] grant failed for user %s: %v", user.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to grant tickets"})
	}

	utils.CacheInvalidate(c.Context(), userStatsCacheKey(user.ID))

	return c.JSON(fiber.Map{
		"message":         fmt.Sprintf("%d seat ticket(s) granted", req.Quantity),
		"user_phone":      user.Phone,
		"tournament_name": tournament.Name,
		"store_name":      storeName,
		"granted_tickets": created,
	})
}

// UseTicket consumes one ticket by ID.
// POST /seats/tickets/use
func (s *TicketService) UseTicket(c *fiber.Ctx) error {
	var req struct {
		TicketID string `json:"ticket_id" validate:"required,uuid"`
		Reason   string `json:"reason"`
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
	processedBy := &actor.ID

	var ticket models.SeatTicket
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&ticket, "id = ?", req.TicketID).Error; err != nil {
			return err
		}
		if !s.Policy.Can(actor, ActionUseTickets, &ticket) {
			return errForbidden
		}
		now := time.Now()
		if !ticket.IsCurrentlyValid(now) {
			return errTicketNotUsable
		}
		if !ticket.Use(now) {
			return errTicketNotUsable
		}
		if err := tx.Save(&ticket).Error; err != nil {
			return err
		}
		reason := req.Reason
		if reason == "" {
			reason = "tournament entry"
		}
		ledger := models.SeatTicketTransaction{
			ID:            uuid.NewString(),
			SeatTicketID:  ticket.ID,
			Type:          models.TxUse,
			Quantity:      1,
			Reason:        reason,
			ProcessedByID: processedBy,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}
		_, err := recountSummary(tx, ticket.UserID, ticket.TournamentID)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "seat ticket not found"})
	}
	if errors.Is(err, errForbidden) {
		return c.Status(403).JSON(fiber.Map{"error": "not allowed to use this ticket"})
	}
	if errors.Is(err, errTicketNotUsable) {
		return c.Status(400).JSON(fiber.Map{"error": "seat ticket is not usable (not ACTIVE or expired)"})
	}
	if err != nil {
		log.Printf("[Tickets] use failed for ticket %s: %v", req.TicketID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to use ticket"})
	}

	utils.CacheInvalidate(c.Context(), userStatsCacheKey(ticket.UserID))

	return c.JSON(fiber.Map{
		"message": "seat ticket used",
		"ticket":  ticket,
	})
}

var errTicketNotUsable = errors.New("ticket not usable")

// ListTickets supports the admin/store list views with optional filters.
// GET /seats/tickets
func (s *TicketService) ListTickets(c *fiber.Ctx) error {
	query := s.DB.Model(&models.SeatTicket{}).
		Preload("Tournament").Preload("Store")

	if v := c.Query("tournament_id"); v != "" {
		query = query.Where("tournament_id = ?", v)
	}
	if v := c.Query("user_id"); v != "" {
		query = query.Where("user_id = ?", v)
	}
	if v := c.Query("store_id"); v != "" {
		query = query.Where("store_id = ?", v)
	}
	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}
	if v := c.Query("source"); v != "" {
		query = query.Where("source = ?", v)
	}
	if c.Query("valid_only") == "true" {
		query = query.Where("status = ?", models.TicketActive).
			Where("expires_at IS NULL OR expires_at >= ?", time.Now())
	}

	var tickets []models.SeatTicket
	if err := query.Order("created_at DESC").Find(&tickets).Error; err != nil {
		log.Printf("[Tickets] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tickets"})
	}
	return c.JSON(tickets)
}

func userStatsCacheKey(userID string) string {
	return "ticket_stats:" + userID
}

// GetUserTicketStats aggregates one user's holdings across tournaments.
// GET /seats/tickets/user_stats?user_id=...&tournament_id=...
func (s *TicketService) GetUserTicketStats(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	tournamentID := c.Query("tournament_id")
	if userID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "user_id parameter is required"})
	}

	// Short-TTL cache; only the uncut per-user view is cached.
	cacheable := tournamentID == ""
	if cacheable {
		var cached fiber.Map
		if utils.CacheGetJSON(c.Context(), userStatsCacheKey(userID), &cached) {
			return c.JSON(cached)
		}
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching user"})
	}

	type overallStats struct {
		TotalTickets     int64   `json:"total_tickets"`
		ActiveTickets    int64   `json:"active_tickets"`
		UsedTickets      int64   `json:"used_tickets"`
		ExpiredTickets   int64   `json:"expired_tickets"`
		CancelledTickets int64   `json:"cancelled_tickets"`
		TotalAmount      float64 `json:"total_amount"`
	}
	var stats overallStats
	statsQuery := `
        SELECT
            COUNT(*) AS total_tickets,
            COUNT(*) FILTER (WHERE status = 'ACTIVE') AS active_tickets,
            COUNT(*) FILTER (WHERE status = 'USED') AS used_tickets,
            COUNT(*) FILTER (WHERE status = 'EXPIRED') AS expired_tickets,
            COUNT(*) FILTER (WHERE status = 'CANCELLED') AS cancelled_tickets,
            COALESCE(SUM(amount), 0) AS total_amount
        FROM seat_tickets
        WHERE user_id = ?`
	args := []interface{}{userID}
	if tournamentID != "" {
		statsQuery += " AND tournament_id = ?"
		args = append(args, tournamentID)
	}
	if err := s.DB.Raw(statsQuery, args...).Scan(&stats).Error; err != nil {
		log.Printf("[Tickets] stats query failed for user %s: %v", userID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute stats"})
	}

	tournamentStats := []fiber.Map{}
	if tournamentID == "" {
		var summaries []models.UserTicketSummary
		if err := s.DB.Preload("Tournament").
			Where("user_id = ?", userID).
			Find(&summaries).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch summaries"})
		}
		for _, sum := range summaries {
			tournamentStats = append(tournamentStats, fiber.Map{
				"tournament_id":         sum.TournamentID,
				"tournament_name":       sum.Tournament.Name,
				"tournament_start_time": sum.Tournament.StartTime,
				"active_tickets":        sum.ActiveTickets,
				"used_tickets":          sum.UsedTickets,
				"total_tickets":         sum.TotalTickets,
				"last_updated":          sum.LastUpdated,
			})
		}
	}

	result := fiber.Map{
		"user_id":          user.ID,
		"user_phone":       user.Phone,
		"user_nickname":    user.Nickname,
		"overall_stats":    stats,
		"tournament_stats": tournamentStats,
	}
	if cacheable {
		utils.CacheSetJSON(c.Context(), userStatsCacheKey(userID), result, 30*time.Second)
	}
	return c.JSON(result)
}

// GetTournamentTicketSummary shows a tournament's ticket pool status plus the
// per-user summary rows.
// GET /seats/tickets/tournament_summary?tournament_id=...
func (s *TicketService) GetTournamentTicketSummary(c *fiber.Ctx) error {
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

	type ticketStats struct {
		TotalTickets     int64   `json:"total_tickets"`
		ActiveTickets    int64   `json:"active_tickets"`
		UsedTickets      int64   `json:"used_tickets"`
		ExpiredTickets   int64   `json:"expired_tickets"`
		CancelledTickets int64   `json:"cancelled_tickets"`
		TotalAmount      float64 `json:"total_amount"`
	}
	var stats ticketStats
	if err := s.DB.Raw(`
        SELECT
            COUNT(*) AS total_tickets,
            COUNT(*) FILTER (WHERE status = 'ACTIVE') AS active_tickets,
            COUNT(*) FILTER (WHERE status = 'USED') AS used_tickets,
            COUNT(*) FILTER (WHERE status = 'EXPIRED') AS expired_tickets,
            COUNT(*) FILTER (WHERE status = 'CANCELLED') AS cancelled_tickets,
            COALESCE(SUM(amount), 0) AS total_amount
        FROM seat_tickets
        WHERE tournament_id = ?`, tournamentID).Scan(&stats).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute stats"})
	}

	var summaries []models.UserTicketSummary
	if err := s.DB.Preload("User").
		Where("tournament_id = ?", tournamentID).
		Order("active_tickets DESC").
		Find(&summaries).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch user summaries"})
	}

	return c.JSON(fiber.Map{
		"tournament_id":              tournament.ID,
		"tournament_name":            tournament.Name,
		"tournament_start_time":      tournament.StartTime,
		"tournament_ticket_quantity": tournament.TicketQuantity,
		"ticket_stats":               stats,
		"user_summaries":             summaries,
	})
}

// BulkTicketOperation grants to or cancels tickets for a list of users in one
// atomic batch.
// POST /seats/tickets/bulk_operation
func (s *TicketService) BulkTicketOperation(c *fiber.Ctx) error {
	var req struct {
		TournamentID string   `json:"tournament_id" validate:"required"`
		UserIDs      []string `json:"user_ids" validate:"required,min=1"`
		Operation    string   `json:"operation" validate:"required,oneof=grant cancel"`
		Quantity     int      `json:"quantity" validate:"required,min=1,max=100"`
		Reason       string   `json:"reason"`
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

	var users []models.User
	if err := s.DB.Where("id IN ?", req.UserIDs).Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching users"})
	}
	if len(users) != len(req.UserIDs) {
		return c.Status(404).JSON(fiber.Map{"error": "some users were not found"})
	}

	actorID, _ := c.Locals("user_id").(string)
	var processedBy *string
	if actorID != "" {
		processedBy = &actorID
	}

	results := []fiber.Map{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range users {
			user := &users[i]
			switch req.Operation {
			case "grant":
				if _, err := createTickets(tx, user, &tournament, nil,
					req.Quantity, models.SourceAdmin, 0, nil, req.Reason, processedBy); err != nil {
					return err
				}
				results = append(results, fiber.Map{
					"user_id":    user.ID,
					"user_phone": user.Phone,
					"operation":  "granted",
					"quantity":   req.Quantity,
				})
			case "cancel":
				var active []models.SeatTicket
				if err := forUpdate(tx).
					Where("user_id = ? AND tournament_id = ? AND status = ?",
						user.ID, tournament.ID, models.TicketActive).
					Limit(req.Quantity).
					Find(&active).Error; err != nil {
					return err
				}
				for j := range active {
					active[j].Status = models.TicketCancelled
					if err := tx.Save(&active[j]).Error; err != nil {
						return err
					}
					ledger := models.SeatTicketTransaction{
						ID:            uuid.NewString(),
						SeatTicketID:  active[j].ID,
						Type:          models.TxCancel,
						Quantity:      1,
						Reason:        req.Reason,
						ProcessedByID: processedBy,
					}
					if err := tx.Create(&ledger).Error; err != nil {
						return err
					}
				}
				if _, err := recountSummary(tx, user.ID, tournament.ID); err != nil {
					return err
				}
				results = append(results, fiber.Map{
					"user_id":    user.ID,
					"user_phone": user.Phone,
					"operation":  "cancelled",
					"quantity":   len(active),
				})
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[Tickets] bulk %s failed: %v", req.Operation, err)
		return c.Status(500).JSON(fiber.Map{"error": "bulk operation failed"})
	}

	for _, u := range users {
		utils.CacheInvalidate(c.Context(), userStatsCacheKey(u.ID))
	}

	return c.JSON(fiber.Map{
		"message":         fmt.Sprintf("%s operation completed", req.Operation),
		"tournament_name": tournament.Name,
		"results":         results,
	})
}

// ListTransactions exposes the append-only ledger, filterable.
// GET /seats/transactions
func (s *TicketService) ListTransactions(c *fiber.Ctx) error {
	query := s.DB.Model(&models.SeatTicketTransaction{}).Preload("SeatTicket")

	if v := c.Query("ticket_id"); v != "" {
		query = query.Where("seat_ticket_id = ?", v)
	}
	if v := c.Query("transaction_type"); v != "" {
		query = query.Where("type = ?", v)
	}
	if v := c.Query("user_id"); v != "" {
		query = query.Where("seat_ticket_id IN (?)",
			s.DB.Model(&models.SeatTicket{}).Select("id").Where("user_id = ?", v))
	}
	if v := c.Query("tournament_id"); v != "" {
		query = query.Where("seat_ticket_id IN (?)",
			s.DB.Model(&models.SeatTicket{}).Select("id").Where("tournament_id = ?", v))
	}

	var txs []models.SeatTicketTransaction
	if err := query.Order("created_at DESC").Find(&txs).Error; err != nil {
		log.Printf("[Tickets] transaction list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch transactions"})
	}
	return c.JSON(txs)
}
