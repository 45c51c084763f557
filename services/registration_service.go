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

type RegistrationService struct {
	DB *gorm.DB
}

func NewRegistrationService(db *gorm.DB) *RegistrationService {
	return &RegistrationService{DB: db}
}

type shortfallError struct {
	Required  int
	Available int
}

func (e *shortfallError) Error() string {
	return fmt.Sprintf("insufficient seat tickets: required %d, available %d", e.Required, e.Available)
}

// RegisterPlayer enters a user into a tournament, consuming buy_in tickets.
// Oldest valid tickets go first; any prior ACTIVE registration for the same
// tournament is marked USED so at most one entry is live per player.
// POST /tournaments/:id/players
func (s *RegistrationService) RegisterPlayer(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var req struct {
		UserID   string `json:"user_id" validate:"required"`
		Nickname string `json:"nickname"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching tournament"})
	}
	if tournament.Status == models.TournamentStatusCompleted || tournament.Status == models.TournamentStatusCancelled {
		return c.Status(400).JSON(fiber.Map{"error": "tournament is not open for registration"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching user"})
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = user.Nickname
	}

	actorID, _ := c.Locals("user_id").(string)
	var processedBy *string
	if actorID != "" {
		processedBy = &actorID
	}

	buyIn := tournament.BuyIn
	now := time.Now()

	var player models.TournamentPlayer
	var consumed []models.SeatTicket
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Lock the player's ACTIVE tickets for this tournament; expired rows
		// the sweep has not reached yet are filtered out here, not mutated.
		var candidates []models.SeatTicket
		if err := forUpdate(tx).
			Where("user_id = ? AND tournament_id = ? AND status = ?",
				user.ID, tournament.ID, models.TicketActive).
			Order("created_at ASC").
			Find(&candidates).Error; err != nil {
			return err
		}
		valid := candidates[:0]
		for i := range candidates {
			if candidates[i].IsCurrentlyValid(now) {
				valid = append(valid, candidates[i])
			}
		}
		if len(valid) < buyIn {
			return &shortfallError{Required: buyIn, Available: len(valid)}
		}

		// Supersede any still-active registration before writing the new one.
		if err := tx.Model(&models.TournamentPlayer{}).
			Where("tournament_id = ? AND user_id = ? AND status = ?",
				tournament.ID, user.ID, models.PlayerStatusActive).
			Update("status", models.PlayerStatusUsed).Error; err != nil {
			return err
		}

		for i := 0; i < buyIn; i++ {
			ticket := &valid[i]
			if !ticket.Use(now) {
				return errTicketNotUsable
			}
			if err := tx.Save(ticket).Error; err != nil {
				return err
			}
			ledger := models.SeatTicketTransaction{
				ID:            uuid.NewString(),
				SeatTicketID:  ticket.ID,
				Type:          models.TxUse,
				Quantity:      1,
				Reason:        fmt.Sprintf("tournament entry: %s", tournament.Name),
				ProcessedByID: processedBy,
			}
			if err := tx.Create(&ledger).Error; err != nil {
				return err
			}
			consumed = append(consumed, *ticket)
		}

		if _, err := recountSummary(tx, user.ID, tournament.ID); err != nil {
			return err
		}

		player = models.TournamentPlayer{
			ID:           uuid.NewString(),
			TournamentID: tournament.ID,
			UserID:       user.ID,
			Nickname:     nickname,
			Status:       models.PlayerStatusActive,
		}
		return tx.Create(&player).Error
	})

	var shortfall *shortfallError
	if errors.As(err, &shortfall) {
		return c.Status(400).JSON(fiber.Map{
			"error":     "insufficient seat tickets",
			"required":  shortfall.Required,
			"available": shortfall.Available,
		})
	}
	if err != nil {
		log.Printf("[Registrations] register failed for user %s in %s: %v", user.ID, tournament.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "registration failed"})
	}

	utils.CacheInvalidate(c.Context(), userStatsCacheKey(user.ID))

	return c.Status(201).JSON(fiber.Map{
		"message":          "player registered",
		"player":           player,
		"tickets_consumed": len(consumed),
	})
}

// ListPlayers lists a tournament's registrations.
// GET /tournaments/:id/players
func (s *RegistrationService) ListPlayers(c *fiber.Ctx) error {
	query := s.DB.Model(&models.TournamentPlayer{}).
		Preload("User").
		Where("tournament_id = ?", c.Params("id"))
	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}

	var players []models.TournamentPlayer
	if err := query.Order("created_at ASC").Find(&players).Error; err != nil {
		log.Printf("[Registrations] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch players"})
	}
	return c.JSON(players)
}

// CancelRegistration turns one registration CANCELLED and refunds its buy-in
// as fresh ACTIVE tickets with REFUND ledger rows.
// POST /tournaments/:id/players/:player_id/cancel
func (s *RegistrationService) CancelRegistration(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	playerID := c.Params("player_id")

	actorID, _ := c.Locals("user_id").(string)
	var processedBy *string
	if actorID != "" {
		processedBy = &actorID
	}

	var player models.TournamentPlayer
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).
			Where("id = ? AND tournament_id = ?", playerID, tournamentID).
			First(&player).Error; err != nil {
			return err
		}
		if player.Status != models.PlayerStatusActive {
			return errors.New("registration is not active")
		}
		player.Status = models.PlayerStatusCancelled
		if err := tx.Save(&player).Error; err != nil {
			return err
		}

		var tournament models.Tournament
		if err := tx.First(&tournament, "id = ?", tournamentID).Error; err != nil {
			return err
		}

		for i := 0; i < tournament.BuyIn; i++ {
			ticket := models.SeatTicket{
				ID:           uuid.NewString(),
				TournamentID: tournament.ID,
				UserID:       player.UserID,
				Status:       models.TicketActive,
				Source:       models.SourceAdmin,
				Memo:         "registration cancelled, buy-in refunded",
			}
			if err := tx.Create(&ticket).Error; err != nil {
				return err
			}
			ledger := models.SeatTicketTransaction{
				ID:            uuid.NewString(),
				SeatTicketID:  ticket.ID,
				Type:          models.TxRefund,
				Quantity:      1,
				Reason:        "registration cancelled",
				ProcessedByID: processedBy,
			}
			if err := tx.Create(&ledger).Error; err != nil {
				return err
			}
		}

		_, err := recountSummary(tx, player.UserID, tournament.ID)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "registration not found"})
	}
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	utils.CacheInvalidate(c.Context(), userStatsCacheKey(player.UserID))

	return c.JSON(fiber.Map{
		"message": "registration cancelled, buy-in refunded",
		"player":  player,
	})
}

// MyRegistrations lists the authenticated user's entries across tournaments.
// GET /tournaments/my_registrations
func (s *RegistrationService) MyRegistrations(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	var players []models.TournamentPlayer
	if err := s.DB.Preload("Tournament").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&players).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch registrations"})
	}
	return c.JSON(players)
}
