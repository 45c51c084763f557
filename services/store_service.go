package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"asl-holdem/models"
	"asl-holdem/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreService struct {
	DB     *gorm.DB
	Policy *Policy
}

func NewStoreService(db *gorm.DB, policy *Policy) *StoreService {
	return &StoreService{DB: db, Policy: policy}
}

// CreateStore registers a venue. Accepts multipart form data so the store
// image can ride along; the slug is derived from the name.
// POST /stores
func (s *StoreService) CreateStore(c *fiber.Ctx) error {
	actor, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	name := c.FormValue("name")
	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	ownerID := c.FormValue("owner_id")
	if ownerID == "" {
		ownerID = actor.ID
	}
	if ownerID != actor.ID && !actor.IsAdmin() {
		return c.Status(403).JSON(fiber.Map{"error": "only admins can assign another owner"})
	}

	var owner models.User
	if err := s.DB.First(&owner, "id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "owner not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error fetching owner"})
	}

	store := models.Store{
		ID:          uuid.NewString(),
		Name:        name,
		OwnerID:     owner.ID,
		Address:     c.FormValue("address"),
		Description: c.FormValue("description"),
		Status:      models.StoreStatusActive,
	}
	if v := c.FormValue("latitude"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			store.Latitude = &lat
		}
	}
	if v := c.FormValue("longitude"); v != "" {
		if lng, err := strconv.ParseFloat(v, 64); err == nil {
			store.Longitude = &lng
		}
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		key := fmt.Sprintf("stores/%s/%s", store.ID, fileHeader.Filename)
		url, err := utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			log.Printf("[Stores] image upload failed: %v", err)
			return c.Status(500).JSON(fiber.Map{"error": "image upload failed"})
		}
		store.ImageURL = url
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		store.Slug = utils.GenerateUniqueSlug(tx, &models.Store{}, store.Name)
		return tx.Create(&store).Error
	})
	if err != nil {
		log.Printf("[Stores] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create store"})
	}

	// Creating a store promotes a plain user to store owner.
	if owner.Role == models.RoleUser {
		s.DB.Model(&owner).Update("role", models.RoleStoreOwner)
	}

	return c.Status(201).JSON(store)
}

// ListStores with optional status filter and name search.
// GET /stores
func (s *StoreService) ListStores(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Store{}).Preload("Owner")
	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}
	if v := c.Query("search"); v != "" {
		query = query.Where("name LIKE ?", "%"+v+"%")
	}

	var stores []models.Store
	if err := query.Order("name ASC").Find(&stores).Error; err != nil {
		log.Printf("[Stores] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch stores"})
	}
	return c.JSON(stores)
}

// GetStore resolves by ID or slug.
// GET /stores/:id
func (s *StoreService) GetStore(c *fiber.Ctx) error {
	key := c.Params("id")
	var store models.Store
	if err := s.DB.Preload("Owner").
		Where("id = ? OR slug = ?", key, key).
		First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "store not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(store)
}

// UpdateStore patches store fields. Only the owner or an admin may edit.
// PUT /stores/:id
func (s *StoreService) UpdateStore(c *fiber.Ctx) error {
	actor, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	var store models.Store
	if err := s.DB.First(&store, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "store not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if !s.Policy.Can(actor, ActionManageStore, &store) {
		return c.Status(403).JSON(fiber.Map{"error": "not allowed to manage this store"})
	}

	if v := c.FormValue("name"); v != "" && v != store.Name {
		store.Name = v
		store.Slug = utils.GenerateUniqueSlug(s.DB, &models.Store{}, v)
	}
	if v := c.FormValue("address"); v != "" {
		store.Address = v
	}
	if v := c.FormValue("description"); v != "" {
		store.Description = v
	}
	if v := c.FormValue("status"); v != "" {
		switch v {
		case models.StoreStatusActive, models.StoreStatusInactive, models.StoreStatusClosed:
			store.Status = v
		default:
			return c.Status(400).JSON(fiber.Map{"error": "invalid status"})
		}
	}
	if v := c.FormValue("latitude"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			store.Latitude = &lat
		}
	}
	if v := c.FormValue("longitude"); v != "" {
		if lng, err := strconv.ParseFloat(v, 64); err == nil {
			store.Longitude = &lng
		}
	}
	if fileHeader, err := c.FormFile("image"); err == nil {
		key := fmt.Sprintf("stores/%s/%s", store.ID, fileHeader.Filename)
		url, err := utils.UploadFileToR2(fileHeader, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "image upload failed"})
		}
		store.ImageURL = url
	}

	if err := s.DB.Save(&store).Error; err != nil {
		log.Printf("[Stores] update failed for %s: %v", store.ID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update store"})
	}
	return c.JSON(store)
}

// MyStores lists stores owned by the authenticated user.
// GET /stores/mine
func (s *StoreService) MyStores(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	var stores []models.Store
	if err := s.DB.Where("owner_id = ?", user.ID).
		Order("created_at DESC").
		Find(&stores).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch stores"})
	}
	return c.JSON(stores)
}
