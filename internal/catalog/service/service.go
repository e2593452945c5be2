// Package service provides the implementation of catalog business logic.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pharmacart/backend/internal/catalog/query"
	"github.com/pharmacart/backend/internal/catalog/store"
)

const (
	// latestLimit caps the landing-page listing.
	latestLimit = 12
	// pageSize is the fixed page size of the paginated listing.
	pageSize = 3
)

// MedicineService defines the operations of the medicine catalog.
// It abstracts the underlying business logic and data access.
type MedicineService interface {
	// Create validates the input, derives the slug from the name and
	// persists a new medicine. Returns a ValidationError on bad input.
	Create(ctx context.Context, in MedicineInput, photo *PhotoUpload) (*MedicineDto, error)

	// Update validates the input and replaces all mutable fields,
	// re-deriving the slug; the photo is replaced only when supplied.
	// Returns ErrMedicineNotFound if no medicine exists with the given ID.
	Update(ctx context.Context, id uuid.UUID, in MedicineInput, photo *PhotoUpload) (*MedicineDto, error)

	// DeleteByID removes a medicine. Deleting an absent ID succeeds.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// FindLatest returns up to 12 medicines, newest first, category
	// populated, photo excluded.
	FindLatest(ctx context.Context) ([]MedicineDto, error)

	// FindBySlug returns the medicine with the given slug.
	// Returns ErrMedicineNotFound if no medicine exists with the slug.
	FindBySlug(ctx context.Context, slug string) (*MedicineDto, error)

	// Photo returns the stored photo bytes; nil Data when none stored.
	Photo(ctx context.Context, id uuid.UUID) (*PhotoDto, error)

	// Count returns the total number of medicines.
	Count(ctx context.Context) (int64, error)

	// Page returns the page-th page (1-based) of the newest-first
	// listing, 3 medicines per page.
	Page(ctx context.Context, page int32) ([]MedicineDto, error)

	// Filter returns medicines matching the category/price filter.
	Filter(ctx context.Context, f query.Filter) ([]MedicineDto, error)

	// Search returns medicines whose name or description contains the
	// keyword, case-insensitive. An empty keyword matches everything.
	Search(ctx context.Context, keyword string) ([]MedicineDto, error)

	// ByCategory resolves a category by slug and returns it with its
	// medicines. Returns ErrCategoryNotFound if the slug is unknown.
	ByCategory(ctx context.Context, slug string) (*CategoryDto, []MedicineDto, error)
}

// Service implements MedicineService and provides methods to manage the catalog.
type Service struct {
	repository store.MedicineStore
}

// NewService creates a new instance of MedicineService with the provided repository.
func NewService(repo store.MedicineStore) *Service {
	return &Service{
		repository: repo,
	}
}

// MedicineInput carries the client-supplied fields of a create/update
// request. Pointer fields distinguish "absent" from zero; the slug is
// never part of the input.
type MedicineInput struct {
	Name        string
	Description string
	Price       *int64
	Category    *uuid.UUID
	Quantity    *int32
	Shipping    bool
}

// PhotoUpload is an optional binary attachment of a create/update request.
type PhotoUpload struct {
	Data        []byte
	ContentType string
}

// MedicineDto represents the data transfer object for a medicine.
// Photo fields are only set by Filter, which carries the bytes through.
type MedicineDto struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Slug             string       `json:"slug"`
	Description      string       `json:"description"`
	Price            int64        `json:"price"`
	CategoryID       string       `json:"category_id"`
	Category         *CategoryDto `json:"category,omitempty"`
	Quantity         int32        `json:"quantity"`
	Shipping         bool         `json:"shipping"`
	Photo            []byte       `json:"photo,omitempty"`
	PhotoContentType string       `json:"photo_content_type,omitempty"`
	CreatedAt        string       `json:"created_at"`
}

// CategoryDto represents the data transfer object for a category.
type CategoryDto struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PhotoDto carries raw photo bytes and their content type.
type PhotoDto struct {
	Data        []byte
	ContentType string
}

// Create validates the input and persists a new medicine.
func (s *Service) Create(ctx context.Context, in MedicineInput, photo *PhotoUpload) (*MedicineDto, error) {
	if err := validateInput(in, photo); err != nil {
		return nil, err
	}
	params := store.CreateParams{
		Name:        in.Name,
		Slug:        slug.Make(in.Name),
		Description: in.Description,
		Price:       *in.Price,
		CategoryID:  *in.Category,
		Quantity:    *in.Quantity,
		Shipping:    in.Shipping,
	}
	if photo != nil {
		params.Photo = photo.Data
		params.PhotoContentType = photo.ContentType
	}
	created, err := s.repository.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}
	return toDto(created), nil
}

// Update validates the input and replaces the medicine's fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in MedicineInput, photo *PhotoUpload) (*MedicineDto, error) {
	if err := validateInput(in, photo); err != nil {
		return nil, err
	}
	params := store.UpdateParams{
		ID:          id,
		Name:        in.Name,
		Slug:        slug.Make(in.Name),
		Description: in.Description,
		Price:       *in.Price,
		CategoryID:  *in.Category,
		Quantity:    *in.Quantity,
		Shipping:    in.Shipping,
	}
	if photo != nil {
		params.ReplacePhoto = true
		params.Photo = photo.Data
		params.PhotoContentType = photo.ContentType
	}
	updated, err := s.repository.Update(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update medicine with ID %s: %w", id, err)
	}
	return toDto(updated), nil
}

// DeleteByID deletes a medicine by its ID.
func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete medicine with ID %s: %w", id, err)
	}
	return nil
}

// FindLatest retrieves the newest medicines for the landing listing.
func (s *Service) FindLatest(ctx context.Context) ([]MedicineDto, error) {
	medicines, err := s.repository.FindLatest(ctx, latestLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch medicines: %w", err)
	}
	return toDtos(medicines, false), nil
}

// FindBySlug retrieves a single medicine by its slug.
func (s *Service) FindBySlug(ctx context.Context, medicineSlug string) (*MedicineDto, error) {
	medicine, err := s.repository.FindBySlug(ctx, medicineSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch medicine by slug %q: %w", medicineSlug, err)
	}
	return toDto(medicine), nil
}

// Photo retrieves the stored photo of a medicine.
func (s *Service) Photo(ctx context.Context, id uuid.UUID) (*PhotoDto, error) {
	photo, err := s.repository.FindPhoto(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo for medicine %s: %w", id, err)
	}
	return &PhotoDto{Data: photo.Data, ContentType: photo.ContentType}, nil
}

// Count returns the total medicine count.
func (s *Service) Count(ctx context.Context) (int64, error) {
	total, err := s.repository.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count medicines: %w", err)
	}
	return total, nil
}

// Page returns one fixed-size page of the newest-first listing.
func (s *Service) Page(ctx context.Context, page int32) ([]MedicineDto, error) {
	medicines, err := s.repository.FindPage(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch medicine page %d: %w", page, err)
	}
	return toDtos(medicines, false), nil
}

// Filter returns medicines matching the category/price filter. The
// photo bytes ride along in the result, unlike every other listing.
func (s *Service) Filter(ctx context.Context, f query.Filter) ([]MedicineDto, error) {
	medicines, err := s.repository.FindFiltered(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to filter medicines: %w", err)
	}
	return toDtos(medicines, true), nil
}

// Search returns medicines matching the free-text keyword.
func (s *Service) Search(ctx context.Context, keyword string) ([]MedicineDto, error) {
	medicines, err := s.repository.Search(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search medicines: %w", err)
	}
	return toDtos(medicines, false), nil
}

// ByCategory resolves the category and lists its medicines.
func (s *Service) ByCategory(ctx context.Context, categorySlug string) (*CategoryDto, []MedicineDto, error) {
	category, err := s.repository.FindCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch category by slug %q: %w", categorySlug, err)
	}
	medicines, err := s.repository.FindByCategory(ctx, category.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch medicines for category %q: %w", categorySlug, err)
	}
	return categoryToDto(category), toDtos(medicines, false), nil
}

// toDto converts a store.Medicine to a MedicineDto.
func toDto(m *store.Medicine) *MedicineDto {
	dto := &MedicineDto{
		ID:          m.ID.String(),
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Price:       m.Price,
		CategoryID:  m.CategoryID.String(),
		Quantity:    m.Quantity,
		Shipping:    m.Shipping,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
	if m.Category != nil {
		dto.Category = categoryToDto(m.Category)
	}
	return dto
}

func toDtos(medicines []store.Medicine, withPhoto bool) []MedicineDto {
	dtos := make([]MedicineDto, len(medicines))
	for i, m := range medicines {
		dtos[i] = *toDto(&m)
		if withPhoto {
			dtos[i].Photo = m.Photo
			dtos[i].PhotoContentType = m.PhotoContentType
		}
	}
	return dtos
}

func categoryToDto(c *store.Category) *CategoryDto {
	return &CategoryDto{ID: c.ID.String(), Name: c.Name, Slug: c.Slug}
}
