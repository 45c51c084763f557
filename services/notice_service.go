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

type NoticeService struct {
	DB *gorm.DB
}

func NewNoticeService(db *gorm.DB) *NoticeService {
	return &NoticeService{DB: db}
}

// CreateNotice publishes an announcement, optionally with an attachment.
// POST /notices
func (s *NoticeService) CreateNotice(c *fiber.Ctx) error {
	actor, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	title := c.FormValue("title")
	content := c.FormValue("content")
	if title == "" || content == "" {
		return c.Status(400).JSON(fiber.Map{"error": "title and content are required"})
	}

	notice := models.Notice{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     content,
		NoticeType:  models.NoticeGeneral,
		Priority:    models.PriorityNormal,
		AuthorID:    actor.ID,
		IsPublished: true,
	}
	if v := c.FormValue("notice_type"); v != "" {
		switch v {
		case models.NoticeGeneral, models.NoticeStoreManager, models.NoticeMemberOnly:
			notice.NoticeType = v
		default:
			return c.Status(400).JSON(fiber.Map{"error": "invalid notice_type"})
		}
	}
	if v := c.FormValue("priority"); v != "" {
		switch v {
		case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
			notice.Priority = v
		default:
			return c.Status(400).JSON(fiber.Map{"error": "invalid priority"})
		}
	}
	if c.FormValue("is_pinned") == "true" {
		notice.IsPinned = true
	}
	if v := c.FormValue("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			notice.StartDate = &t
		}
	}
	if v := c.FormValue("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			notice.EndDate = &t
		}
	}

	if fileHeader, err := c.FormFile("attachment"); err == nil {
		key := fmt.Sprintf("notices/%s/%s", notice.ID, fileHeader.Filename)
		url, err := utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			log.Printf("[Notices] attachment upload failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "attachment upload failed"})
		}
		notice.AttachmentURL = url
	}

	if err := s.DB.Create(&notice).Error; err != nil {
		log.Printf("[Notices] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create notice"})
	}
	return c.Status(201).JSON(notice)
}

// ListNotices returns notices visible to the caller's role, pinned first.
// GET /notices
func (s *NoticeService) ListNotices(c *fiber.Ctx) error {
	role := models.RoleUser
	if v, ok := c.Locals("user_role").(string); ok && v != "" {
		role = models.UserRole(v)
	}

	query := s.DB.Model(&models.Notice{}).Where("is_published = ?", true)
	switch role {
	case models.RoleAdmin:
		// Admins see everything.
	case models.RoleStoreOwner:
		query = query.Where("notice_type IN ?", []string{models.NoticeGeneral, models.NoticeStoreManager})
	default:
		query = query.Where("notice_type IN ?", []string{models.NoticeGeneral, models.NoticeMemberOnly})
	}
	if v := c.Query("notice_type"); v != "" {
		query = query.Where("notice_type = ?", v)
	}

	var notices []models.Notice
	if err := query.
		Order("is_pinned DESC, z_order DESC, created_at DESC").
		Find(&notices).Error; err != nil {
		log.Printf("[Notices] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch notices"})
	}

	// Date-window filtering stays in code; the window fields are nullable.
	now := time.Now()
	visible := notices[:0]
	for i := range notices {
		if notices[i].InWindow(now) {
			visible = append(visible, notices[i])
		}
	}
	return c.JSON(visible)
}

// GetNotice returns one notice and bumps its view counter.
// GET /notices/:id
func (s *NoticeService) GetNotice(c *fiber.Ctx) error {
	var notice models.Notice
	if err := s.DB.Preload("Author").First(&notice, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "notice not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	role := models.RoleUser
	if v, ok := c.Locals("user_role").(string); ok && v != "" {
		role = models.UserRole(v)
	}
	if !notice.VisibleTo(role) {
		return c.Status(403).JSON(fiber.Map{"error": "notice not visible for your role"})
	}

	s.DB.Model(&notice).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	notice.ViewCount++
	return c.JSON(notice)
}

// UpdateNotice patches fields on an existing notice.
// PUT /notices/:id
func (s *NoticeService) UpdateNotice(c *fiber.Ctx) error {
	var notice models.Notice
	if err := s.DB.First(&notice, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "notice not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	if v := c.FormValue("title"); v != "" {
		notice.Title = v
	}
	if v := c.FormValue("content"); v != "" {
		notice.Content = v
	}
	if v := c.FormValue("notice_type"); v != "" {
		notice.NoticeType = v
	}
	if v := c.FormValue("priority"); v != "" {
		notice.Priority = v
	}
	if v := c.FormValue("is_published"); v != "" {
		notice.IsPublished = v == "true"
	}
	if v := c.FormValue("is_pinned"); v != "" {
		notice.IsPinned = v == "true"
	}
	if fileHeader, err := c.FormFile("attachment"); err == nil {
		key := fmt.Sprintf("notices/%s/%s", notice.ID, fileHeader.Filename)
		url, err := utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "attachment upload failed"})
		}
		notice.AttachmentURL = url
	}

	if err := s.DB.Save(&notice).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update notice"})
	}
	return c.JSON(notice)
}

// DeleteNotice removes a notice.
// DELETE /notices/:id
func (s *NoticeService) DeleteNotice(c *fiber.Ctx) error {
	result := s.DB.Delete(&models.Notice{}, "id = ?", c.Params("id"))
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete notice"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "notice not found"})
	}
	return c.JSON(fiber.Map{"message": "notice deleted"})
}
