// Package store provides persistence for medicines and categories.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacart/backend/internal/catalog/query"
)

// Category is a read-only reference entity; medicines point at it.
type Category struct {
	ID   uuid.UUID
	Name string
	Slug string
}

// Medicine is the catalog entity. Photo fields are only loaded by the
// operations that need them; Category is set on reads that populate it.
type Medicine struct {
	ID               uuid.UUID
	Name             string
	Slug             string
	Description      string
	Price            int64
	CategoryID       uuid.UUID
	Quantity         int32
	Shipping         bool
	Photo            []byte
	PhotoContentType string
	CreatedAt        time.Time
	Category         *Category
}

// Photo is the stored binary attachment of a medicine.
type Photo struct {
	Data        []byte
	ContentType string
}

type CreateParams struct {
	Name             string
	Slug             string
	Description      string
	Price            int64
	CategoryID       uuid.UUID
	Quantity         int32
	Shipping         bool
	Photo            []byte
	PhotoContentType string
}

// UpdateParams replaces all mutable fields. The stored photo is kept
// unless ReplacePhoto is set.
type UpdateParams struct {
	ID               uuid.UUID
	Name             string
	Slug             string
	Description      string
	Price            int64
	CategoryID       uuid.UUID
	Quantity         int32
	Shipping         bool
	ReplacePhoto     bool
	Photo            []byte
	PhotoContentType string
}

// MedicineStore defines the persistence operations of the catalog.
type MedicineStore interface {
	// Create inserts a new medicine and returns the stored row.
	Create(ctx context.Context, params CreateParams) (*Medicine, error)

	// Update replaces the medicine's fields.
	// Returns ErrMedicineNotFound if no medicine exists with the given ID.
	Update(ctx context.Context, params UpdateParams) (*Medicine, error)

	// DeleteByID removes a medicine. Deleting an absent ID is not an error.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// FindLatest returns up to limit medicines, newest first, category
	// populated, photo excluded.
	FindLatest(ctx context.Context, limit int32) ([]Medicine, error)

	// FindBySlug returns the medicine with the given slug, category
	// populated, photo excluded.
	// Returns ErrMedicineNotFound if no medicine exists with the slug.
	FindBySlug(ctx context.Context, slug string) (*Medicine, error)

	// FindPhoto returns the stored photo of a medicine. A medicine
	// without a photo yields a Photo with nil Data.
	// Returns ErrMedicineNotFound if no medicine exists with the given ID.
	FindPhoto(ctx context.Context, id uuid.UUID) (*Photo, error)

	// Count returns the total number of medicines.
	Count(ctx context.Context) (int64, error)

	// FindPage returns medicines newest first with skip/limit
	// pagination, photo excluded.
	FindPage(ctx context.Context, offset, limit int32) ([]Medicine, error)

	// FindFiltered returns medicines matching the filter, photo included.
	FindFiltered(ctx context.Context, f query.Filter) ([]Medicine, error)

	// Search returns medicines whose name or description contains the
	// keyword, photo excluded.
	Search(ctx context.Context, keyword string) ([]Medicine, error)

	// FindCategoryBySlug resolves a category by its slug.
	// Returns ErrCategoryNotFound if no category exists with the slug.
	FindCategoryBySlug(ctx context.Context, slug string) (*Category, error)

	// FindByCategory returns the medicines of a category, category populated.
	FindByCategory(ctx context.Context, categoryID uuid.UUID) ([]Medicine, error)
}
