package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/repository"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/services"
)

const (
	maxImagesPerProperty = 5
	maxImageSizeBytes    = 5 * 1024 * 1024
)

type propertyStore interface {
	Create(ctx context.Context, input repository.CreatePropertyInput) (*models.Property, error)
	GetByID(ctx context.Context, id int64) (*models.Property, error)
	ListActive(ctx context.Context, limit, offset int) ([]models.Property, error)
	CountActive(ctx context.Context) (int, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Property, error)
	Update(ctx context.Context, id int64, input repository.UpdatePropertyInput) (*models.Property, error)
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
}

type ratingCleaner interface {
	DeleteByProperty(ctx context.Context, propertyID int64) error
}

type PropertyHandler struct {
	propertyRepo propertyStore
	ratingRepo   ratingCleaner
	storage      services.StorageService
}

func NewPropertyHandler(propertyRepo propertyStore, ratingRepo ratingCleaner, storage services.StorageService) *PropertyHandler {
	return &PropertyHandler{
		propertyRepo: propertyRepo,
		ratingRepo:   ratingRepo,
		storage:      storage,
	}
}

func (h *PropertyHandler) ListProperties(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	properties, err := h.propertyRepo.ListActive(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch properties"})
	}
	total, err := h.propertyRepo.CountActive(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch properties"})
	}

	return c.JSON(fiber.Map{
		"properties": properties,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *PropertyHandler) GetProperty(c *fiber.Ctx) error {
	propertyID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || propertyID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property id"})
	}

	property, err := h.propertyRepo.GetByID(c.Context(), propertyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch property"})
	}

	// Detail views count even when the bump fails.
	if err := h.propertyRepo.IncrementViews(c.Context(), propertyID); err != nil {
		log.Printf("increment views for property %d: %v", propertyID, err)
	} else {
		property.Views++
	}

	return c.JSON(property)
}

func (h *PropertyHandler) CreateProperty(c *fiber.Ctx) error {
	if actorRole(c) != models.UserTypeBroker {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only brokers can add properties"})
	}

	ownerID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	form, errMsg := parsePropertyForm(c)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errMsg})
	}

	images, errMsg, err := h.storeUploadedImages(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store images"})
	}
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errMsg})
	}

	property, err := h.propertyRepo.Create(c.Context(), repository.CreatePropertyInput{
		Title:              form.Title,
		Description:        form.Description,
		Address:            form.Address,
		Price:              form.Price,
		Bedrooms:           form.Bedrooms,
		Bathrooms:          form.Bathrooms,
		Area:               form.Area,
		PropertyType:       form.PropertyType,
		Furnishing:         form.Furnishing,
		Amenities:          form.Amenities,
		NearbyUniversities: form.NearbyUniversities,
		Images:             images,
		OwnerID:            ownerID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create property"})
	}

	return c.Status(fiber.StatusCreated).JSON(property)
}

func (h *PropertyHandler) UpdateProperty(c *fiber.Ctx) error {
	propertyID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || propertyID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property id"})
	}

	property, status, errMsg := h.authorizeOwner(c, propertyID, "You can only edit your own properties")
	if errMsg != "" {
		return c.Status(status).JSON(fiber.Map{"error": errMsg})
	}

	form, formErr := parsePropertyForm(c)
	if formErr != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formErr})
	}

	existingImages, parseErr := parseJSONStringList(c.FormValue("existing_images"))
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "existing_images must be a JSON array of strings"})
	}

	newImages, errMsg, err := h.storeUploadedImages(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store images"})
	}
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errMsg})
	}

	updated, err := h.propertyRepo.Update(c.Context(), property.ID, repository.UpdatePropertyInput{
		Title:              form.Title,
		Description:        form.Description,
		Address:            form.Address,
		Price:              form.Price,
		Bedrooms:           form.Bedrooms,
		Bathrooms:          form.Bathrooms,
		Area:               form.Area,
		PropertyType:       form.PropertyType,
		Furnishing:         form.Furnishing,
		Amenities:          form.Amenities,
		NearbyUniversities: form.NearbyUniversities,
		Images:             append(existingImages, newImages...),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update property"})
	}

	return c.JSON(updated)
}

func (h *PropertyHandler) DeleteProperty(c *fiber.Ctx) error {
	propertyID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || propertyID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property id"})
	}

	property, status, errMsg := h.authorizeOwner(c, propertyID, "You can only delete your own properties")
	if errMsg != "" {
		return c.Status(status).JSON(fiber.Map{"error": errMsg})
	}

	for _, image := range property.Images {
		if err := h.storage.DeleteFile(c.Context(), image); err != nil {
			log.Printf("delete image %s: %v", image, err)
		}
	}

	if err := h.ratingRepo.DeleteByProperty(c.Context(), property.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete property"})
	}
	if err := h.propertyRepo.Delete(c.Context(), property.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete property"})
	}

	return c.JSON(fiber.Map{"message": "Property deleted successfully"})
}

func (h *PropertyHandler) MyProperties(c *fiber.Ctx) error {
	if actorRole(c) != models.UserTypeBroker {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only brokers can access this endpoint"})
	}

	ownerID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	properties, err := h.propertyRepo.ListByOwner(c.Context(), ownerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch properties"})
	}

	return c.JSON(fiber.Map{"properties": properties})
}

// authorizeOwner loads the property and checks the caller is the owning
// broker or an admin. A non-empty message means the request must stop with
// the returned status.
func (h *PropertyHandler) authorizeOwner(c *fiber.Ctx, propertyID int64, forbiddenMsg string) (*models.Property, int, string) {
	callerID, err := actorID(c)
	if err != nil {
		return nil, fiber.StatusUnauthorized, "Invalid token"
	}

	property, err := h.propertyRepo.GetByID(c.Context(), propertyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fiber.StatusNotFound, "Property not found"
		}
		return nil, fiber.StatusInternalServerError, "Failed to fetch property"
	}

	if property.OwnerID != callerID && actorRole(c) != models.UserTypeAdmin {
		return nil, fiber.StatusForbidden, forbiddenMsg
	}

	return property, fiber.StatusOK, ""
}

func (h *PropertyHandler) storeUploadedImages(c *fiber.Ctx) ([]string, string, error) {
	images := make([]string, 0, maxImagesPerProperty)

	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return images, "", nil
	}

	files := form.File["images"]
	if len(files) > maxImagesPerProperty {
		return nil, "At most 5 images are allowed", nil
	}

	for _, header := range files {
		if header.Size > maxImageSizeBytes {
			return nil, "Each image must be 5MB or smaller", nil
		}

		file, err := header.Open()
		if err != nil {
			return nil, "", err
		}

		url, err := h.storage.UploadImage(c.Context(), file, header.Filename)
		_ = file.Close()
		if err != nil {
			if errors.Is(err, services.ErrNotAnImage) {
				return nil, "Only image files are allowed", nil
			}
			return nil, "", err
		}

		images = append(images, url)
	}

	return images, "", nil
}

type propertyForm struct {
	Title              string
	Description        string
	Address            string
	Price              int
	Bedrooms           int
	Bathrooms          int
	Area               int
	PropertyType       string
	Furnishing         string
	Amenities          []string
	NearbyUniversities []string
}

func parsePropertyForm(c *fiber.Ctx) (*propertyForm, string) {
	form := &propertyForm{
		Title:        strings.TrimSpace(c.FormValue("title")),
		Description:  strings.TrimSpace(c.FormValue("description")),
		Address:      strings.TrimSpace(c.FormValue("address")),
		PropertyType: strings.TrimSpace(c.FormValue("property_type")),
		Furnishing:   strings.TrimSpace(c.FormValue("furnishing")),
	}

	if form.Title == "" {
		return nil, "title is required"
	}
	if form.Description == "" {
		return nil, "description is required"
	}
	if form.Address == "" {
		return nil, "address is required"
	}
	if form.PropertyType == "" {
		form.PropertyType = "apartment"
	}
	if form.Furnishing == "" {
		form.Furnishing = "semi-furnished"
	}

	var errMsg string
	if form.Price, errMsg = parseFormInt(c, "price"); errMsg != "" {
		return nil, errMsg
	}
	if form.Bedrooms, errMsg = parseFormInt(c, "bedrooms"); errMsg != "" {
		return nil, errMsg
	}
	if form.Bathrooms, errMsg = parseFormInt(c, "bathrooms"); errMsg != "" {
		return nil, errMsg
	}
	if form.Area, errMsg = parseFormInt(c, "area"); errMsg != "" {
		return nil, errMsg
	}

	var err error
	if form.Amenities, err = parseJSONStringList(c.FormValue("amenities")); err != nil {
		return nil, "amenities must be a JSON array of strings"
	}
	if form.NearbyUniversities, err = parseJSONStringList(c.FormValue("nearby_universities")); err != nil {
		return nil, "nearby_universities must be a JSON array of strings"
	}

	return form, ""
}

func parseFormInt(c *fiber.Ctx, field string) (int, string) {
	value, err := strconv.Atoi(strings.TrimSpace(c.FormValue(field)))
	if err != nil || value <= 0 {
		return 0, field + " must be a positive number"
	}
	return value, ""
}

// parseJSONStringList decodes the JSON-encoded list fields the property form
// submits alongside its file parts. Empty means an empty list.
func parseJSONStringList(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}

	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
