package services

import (
	"errors"

	"asl-holdem/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var validate = validator.New()

var errForbidden = errors.New("forbidden")

// forUpdate applies a row-level lock on dialects that support it. SQLite,
// used by the test suite, has no FOR UPDATE.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// currentUser loads the authenticated user attached by the auth middleware.
func currentUser(c *fiber.Ctx, db *gorm.DB) (*models.User, error) {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return nil, errors.New("no authenticated user in context")
	}
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// recountSummary get-or-creates the (user, tournament) summary row and
// recomputes its counts from the tickets table. Always a full recount, never
// an increment; runs inside the caller's transaction.
func recountSummary(tx *gorm.DB, userID, tournamentID string) (*models.UserTicketSummary, error) {
	var summary models.UserTicketSummary
	err := tx.Where("user_id = ? AND tournament_id = ?", userID, tournamentID).
		First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		summary = models.UserTicketSummary{
			ID:           uuid.NewString(),
			UserID:       userID,
			TournamentID: tournamentID,
		}
		if err := tx.Create(&summary).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	var active, used, total int64
	if err := tx.Model(&models.SeatTicket{}).
		Where("user_id = ? AND tournament_id = ? AND status = ?", userID, tournamentID, models.TicketActive).
		Count(&active).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.SeatTicket{}).
		Where("user_id = ? AND tournament_id = ? AND status = ?", userID, tournamentID, models.TicketUsed).
		Count(&used).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.SeatTicket{}).
		Where("user_id = ? AND tournament_id = ?", userID, tournamentID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	summary.ActiveTickets = int(active)
	summary.UsedTickets = int(used)
	summary.TotalTickets = int(total)
	if err := tx.Save(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}
