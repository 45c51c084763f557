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

type BannerService struct {
	DB     *gorm.DB
	Policy *Policy
}

func NewBannerService(db *gorm.DB, policy *Policy) *BannerService {
	return &BannerService{DB: db, Policy: policy}
}

// CreateBanner uploads a promotional image for a store with a display window.
// POST /banners
func (s *BannerService) CreateBanner(c *fiber.Ctx) error {
	actor, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	storeID := c.FormValue("store_id")
	title := c.FormValue("title")
	if storeID == "" || title == "" {
		return c.Status(400).JSON(fiber.Map{"error": "store_id and title are required"})
	}

	var store models.Store
	if err := s.DB.First(&store, "id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "store not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching store"})
	}
	if !s.Policy.Can(actor, ActionManageBanners, &store) {
		return c.Status(403).JSON(fiber.Map{"error": "not allowed to manage banners for this store"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "image file is required"})
	}

	banner := models.Banner{
		ID:          uuid.NewString(),
		StoreID:     store.ID,
		Title:       title,
		Description: c.FormValue("description"),
		IsActive:    true,
	}
	if v := c.FormValue("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			banner.StartDate = t
		}
	}
	if banner.StartDate.IsZero() {
		banner.StartDate = time.Now()
	}
	if v := c.FormValue("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			banner.EndDate = t
		}
	}

	key := fmt.Sprintf("banners/%s/%s", banner.ID, fileHeader.Filename)
	url, err := utils.UploadFileToR2(fileHeader, key)
	if err != nil {
		log.Printf("[Banners] image upload failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "image upload failed"})
	}
	banner.ImageURL = url

	if err := s.DB.Create(&banner).Error; err != nil {
		log.Printf("[Banners] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create banner"})
	}
	return c.Status(201).JSON(banner)
}

// ListBanners returns banners, by default only the currently visible ones.
// GET /banners?store_id=...&all=true
func (s *BannerService) ListBanners(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Banner{}).Preload("Store")
	if v := c.Query("store_id"); v != "" {
		query = query.Where("store_id = ?", v)
	}

	var banners []models.Banner
	if err := query.Order("created_at DESC").Find(&banners).Error; err != nil {
		log.Printf("[Banners] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch banners"})
	}

	if c.Query("all") == "true" {
		return c.JSON(banners)
	}
	now := time.Now()
	visible := banners[:0]
	for i := range banners {
		if banners[i].IsVisible(now) {
			visible = append(visible, banners[i])
		}
	}
	return c.JSON(visible)
}

// UpdateBanner patches a banner; owner or admin only.
// PUT /banners/:id
func (s *BannerService) UpdateBanner(c *fiber.Ctx) error {
	actor, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	var banner models.Banner
	if err := s.DB.Preload("Store").First(&banner, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "banner not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if !s.Policy.Can(actor, ActionManageBanners, &banner) {
		return c.Status(403).JSON(fiber.Map{"error": "not allowed to manage this banner"})
	}

	if v := c.FormValue("title"); v != "" {
		banner.Title = v
	}
	if v := c.FormValue("description"); v != "" {
		banner.Description = v
	}
	if v := c.FormValue("is_active"); v != "" {
		banner.IsActive = v == "true"
	}
	if v := c.FormValue("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			banner.StartDate = t
		}
	}
	if v := c.FormValue("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			banner.EndDate = t
		}
	}
	if fileHeader, err := c.FormFile("image"); err == nil {
		key := fmt.Sprintf("banners/%s/%s", banner.ID, fileHeader.Filename)
		url, err := utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "image upload failed"})
		}
		banner.ImageURL = url
	}

	if err := s.DB.Save(&banner).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update banner"})
	}
	return c.JSON(banner)
}

// DeleteBanner removes a banner; owner or admin only.
// DELETE /banners/:id
func (s *BannerService) DeleteBanner(c *fiber.Ctx) error {
	actor, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	var banner models.Banner
	if err := s.DB.Preload("Store").First(&banner, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "banner not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if !s.Policy.Can(actor, ActionManageBanners, &banner) {
		return c.Status(403).JSON(fiber.Map{"error": "not allowed to manage this banner"})
	}

	if err := s.DB.Delete(&banner).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete banner"})
	}
	return c.JSON(fiber.Map{"message": "banner deleted"})
}
