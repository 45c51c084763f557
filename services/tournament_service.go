package services

import (
	"errors"
	"log"
	"time"

	"asl-holdem/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TournamentService struct {
	DB *gorm.DB
}

func NewTournamentService(db *gorm.DB) *TournamentService {
	return &TournamentService{DB: db}
}

// CreateTournament opens a new tournament with its ticket pool.
// POST /tournaments
func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	var req struct {
		Name           string     `json:"name" validate:"required"`
		Description    string     `json:"description"`
		StartTime      time.Time  `json:"start_time" validate:"required"`
		EndTime        *time.Time `json:"end_time"`
		BuyIn          int        `json:"buy_in" validate:"omitempty,min=1"`
		TicketQuantity int        `json:"ticket_quantity" validate:"omitempty,min=1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	tournament := models.Tournament{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Description:    req.Description,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		BuyIn:          req.BuyIn,
		TicketQuantity: req.TicketQuantity,
		Status:         models.TournamentStatusUpcoming,
	}
	if tournament.BuyIn <= 0 {
		tournament.BuyIn = 1
	}
	if tournament.TicketQuantity <= 0 {
		tournament.TicketQuantity = 100
	}

	if err := s.DB.Create(&tournament).Error; err != nil {
		log.Printf("[Tournaments] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create tournament"})
	}
	return c.Status(201).JSON(tournament)
}

// ListTournaments with status and time filters.
// GET /tournaments
func (s *TournamentService) ListTournaments(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Tournament{})
	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}
	if c.Query("upcoming_only") == "true" {
		query = query.Where("start_time > ?", time.Now())
	}

	var tournaments []models.Tournament
	if err := query.Order("start_time ASC").Find(&tournaments).Error; err != nil {
		log.Printf("[Tournaments] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

// GetTournament returns one tournament with registration counts.
// GET /tournaments/:id
func (s *TournamentService) GetTournament(c *fiber.Ctx) error {
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var playerCount int64
	s.DB.Model(&models.TournamentPlayer{}).
		Where("tournament_id = ? AND status = ?", tournament.ID, models.PlayerStatusActive).
		Count(&playerCount)

	return c.JSON(fiber.Map{
		"tournament":     tournament,
		"active_players": playerCount,
	})
}

// UpdateTournament patches mutable fields.
// PUT /tournaments/:id
func (s *TournamentService) UpdateTournament(c *fiber.Ctx) error {
	var req struct {
		Name           *string    `json:"name"`
		Description    *string    `json:"description"`
		StartTime      *time.Time `json:"start_time"`
		EndTime        *time.Time `json:"end_time"`
		BuyIn          *int       `json:"buy_in"`
		TicketQuantity *int       `json:"ticket_quantity"`
		Status         *string    `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	if req.Name != nil {
		tournament.Name = *req.Name
	}
	if req.Description != nil {
		tournament.Description = *req.Description
	}
	if req.StartTime != nil {
		tournament.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		tournament.EndTime = req.EndTime
	}
	if req.BuyIn != nil {
		if *req.BuyIn <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "buy_in must be at least 1"})
		}
		tournament.BuyIn = *req.BuyIn
	}
	if req.TicketQuantity != nil {
		// Shrinking below what is already allocated would break the cap.
		var allocated int64
		s.DB.Model(&models.TicketDistribution{}).
			Where("tournament_id = ?", tournament.ID).
			Select("COALESCE(SUM(allocated_quantity), 0)").
			Scan(&allocated)
		if int64(*req.TicketQuantity) < allocated {
			return c.Status(400).JSON(fiber.Map{
				"error":     "ticket_quantity cannot drop below the allocated total",
				"allocated": allocated,
			})
		}
		tournament.TicketQuantity = *req.TicketQuantity
	}
	if req.Status != nil {
		switch *req.Status {
		case models.TournamentStatusUpcoming, models.TournamentStatusOngoing,
			models.TournamentStatusCompleted, models.TournamentStatusCancelled:
			tournament.Status = *req.Status
		default:
			return c.Status(400).JSON(fiber.Map{"error": "invalid status"})
		}
	}

	if err := s.DB.Save(&tournament).Error; err != nil {
		log.Printf("[Tournaments] update failed for %s: %v", tournament.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update tournament"})
	}
	return c.JSON(tournament)
}

// DeleteTournament removes a tournament that has no allocations or tickets.
// DELETE /tournaments/:id
func (s *TournamentService) DeleteTournament(c *fiber.Ctx) error {
	id := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var ticketCount, distCount int64
	s.DB.Model(&models.SeatTicket{}).Where("tournament_id = ?", id).Count(&ticketCount)
	s.DB.Model(&models.TicketDistribution{}).Where("tournament_id = ?", id).Count(&distCount)
	if ticketCount > 0 || distCount > 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "tournament has tickets or allocations, cancel it instead of deleting",
		})
	}

	if err := s.DB.Delete(&tournament).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete tournament"})
	}
	return c.JSON(fiber.Map{"message": "tournament deleted"})
}
