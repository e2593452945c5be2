package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	caterrors "github.com/pharmacart/backend/internal/catalog/errors"
	"github.com/pharmacart/backend/internal/catalog/query"
)

// populatedCols is the projection shared by reads that populate the
// category and exclude the photo bytes.
const populatedCols = `m.id, m.name, m.slug, m.description, m.price, m.category_id, m.quantity, m.shipping, m.created_at,
       c.id, c.name, c.slug`

// bareCols excludes both the photo bytes and the category join.
const bareCols = `m.id, m.name, m.slug, m.description, m.price, m.category_id, m.quantity, m.shipping, m.created_at`

// PgStore implements MedicineStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of MedicineStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// Create inserts a new medicine and returns the stored row.
func (p *PgStore) Create(ctx context.Context, params CreateParams) (*Medicine, error) {
	m := Medicine{
		Name:             params.Name,
		Slug:             params.Slug,
		Description:      params.Description,
		Price:            params.Price,
		CategoryID:       params.CategoryID,
		Quantity:         params.Quantity,
		Shipping:         params.Shipping,
		PhotoContentType: params.PhotoContentType,
	}
	err := p.db.QueryRow(ctx,
		`INSERT INTO medicines (name, slug, description, price, category_id, quantity, shipping, photo, photo_content_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		params.Name, params.Slug, params.Description, params.Price, params.CategoryID,
		params.Quantity, params.Shipping, params.Photo, nullableText(params.PhotoContentType),
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}
	return &m, nil
}

// Update replaces all mutable fields; the photo only when ReplacePhoto is set.
// Returns ErrMedicineNotFound if no medicine exists with the given ID.
func (p *PgStore) Update(ctx context.Context, params UpdateParams) (*Medicine, error) {
	m := Medicine{
		ID:          params.ID,
		Name:        params.Name,
		Slug:        params.Slug,
		Description: params.Description,
		Price:       params.Price,
		CategoryID:  params.CategoryID,
		Quantity:    params.Quantity,
		Shipping:    params.Shipping,
	}
	err := p.db.QueryRow(ctx,
		`UPDATE medicines
		 SET name = $2, slug = $3, description = $4, price = $5, category_id = $6, quantity = $7, shipping = $8,
		     photo = CASE WHEN $9 THEN $10::bytea ELSE photo END,
		     photo_content_type = CASE WHEN $9 THEN $11::text ELSE photo_content_type END
		 WHERE id = $1
		 RETURNING created_at`,
		params.ID, params.Name, params.Slug, params.Description, params.Price, params.CategoryID,
		params.Quantity, params.Shipping, params.ReplacePhoto, params.Photo, nullableText(params.PhotoContentType),
	).Scan(&m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caterrors.ErrMedicineNotFound
		}
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}
	return &m, nil
}

// DeleteByID removes a medicine by its identifier. Absent IDs delete
// zero rows and report success, matching the idempotent contract.
func (p *PgStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete medicine by ID: %w", err)
	}
	return nil
}

// FindLatest returns up to limit medicines, newest first, category populated.
func (p *PgStore) FindLatest(ctx context.Context, limit int32) ([]Medicine, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+populatedCols+`
		 FROM medicines m
		 JOIN categories c ON c.id = m.category_id
		 ORDER BY m.created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest medicines: %w", err)
	}
	return collectPopulated(rows)
}

// FindBySlug returns the medicine with the given slug, category populated.
func (p *PgStore) FindBySlug(ctx context.Context, slug string) (*Medicine, error) {
	row := p.db.QueryRow(ctx,
		`SELECT `+populatedCols+`
		 FROM medicines m
		 JOIN categories c ON c.id = m.category_id
		 WHERE m.slug = $1`, slug)
	m, err := scanPopulated(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caterrors.ErrMedicineNotFound
		}
		return nil, fmt.Errorf("failed to find medicine by slug: %w", err)
	}
	return m, nil
}

// FindPhoto returns the photo bytes and content type of a medicine.
func (p *PgStore) FindPhoto(ctx context.Context, id uuid.UUID) (*Photo, error) {
	var photo Photo
	var contentType *string
	err := p.db.QueryRow(ctx,
		`SELECT photo, photo_content_type FROM medicines WHERE id = $1`, id,
	).Scan(&photo.Data, &contentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caterrors.ErrMedicineNotFound
		}
		return nil, fmt.Errorf("failed to find medicine photo: %w", err)
	}
	if contentType != nil {
		photo.ContentType = *contentType
	}
	return &photo, nil
}

// Count returns the total number of medicines.
func (p *PgStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := p.db.QueryRow(ctx, `SELECT count(*) FROM medicines`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count medicines: %w", err)
	}
	return total, nil
}

// FindPage returns medicines newest first with skip/limit pagination.
func (p *PgStore) FindPage(ctx context.Context, offset, limit int32) ([]Medicine, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+bareCols+`
		 FROM medicines m
		 ORDER BY m.created_at DESC
		 OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find medicine page: %w", err)
	}
	return collectBare(rows, false)
}

// FindFiltered returns medicines matching the filter. The photo bytes
// are part of the projection here; every other listing excludes them.
func (p *PgStore) FindFiltered(ctx context.Context, f query.Filter) ([]Medicine, error) {
	where, args := f.Where(1)
	rows, err := p.db.Query(ctx,
		`SELECT m.id, m.name, m.slug, m.description, m.price, m.category_id, m.quantity, m.shipping, m.created_at, m.photo, m.photo_content_type
		 FROM medicines m
		 WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find filtered medicines: %w", err)
	}
	return collectBare(rows, true)
}

// Search returns medicines whose name or description contains the keyword.
func (p *PgStore) Search(ctx context.Context, keyword string) ([]Medicine, error) {
	cond, args := query.SearchWhere(keyword, 1)
	rows, err := p.db.Query(ctx,
		`SELECT `+bareCols+`
		 FROM medicines m
		 WHERE `+cond, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search medicines: %w", err)
	}
	return collectBare(rows, false)
}

// FindCategoryBySlug resolves a category by its slug.
func (p *PgStore) FindCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var c Category
	err := p.db.QueryRow(ctx,
		`SELECT id, name, slug FROM categories WHERE slug = $1`, slug,
	).Scan(&c.ID, &c.Name, &c.Slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, caterrors.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by slug: %w", err)
	}
	return &c, nil
}

// FindByCategory returns the medicines of a category, category populated.
func (p *PgStore) FindByCategory(ctx context.Context, categoryID uuid.UUID) ([]Medicine, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+populatedCols+`
		 FROM medicines m
		 JOIN categories c ON c.id = m.category_id
		 WHERE m.category_id = $1
		 ORDER BY m.created_at DESC`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find medicines by category: %w", err)
	}
	return collectPopulated(rows)
}

func scanPopulated(row pgx.Row) (*Medicine, error) {
	var m Medicine
	var c Category
	err := row.Scan(&m.ID, &m.Name, &m.Slug, &m.Description, &m.Price, &m.CategoryID, &m.Quantity, &m.Shipping, &m.CreatedAt,
		&c.ID, &c.Name, &c.Slug)
	if err != nil {
		return nil, err
	}
	m.Category = &c
	return &m, nil
}

func collectPopulated(rows pgx.Rows) ([]Medicine, error) {
	defer rows.Close()
	medicines := make([]Medicine, 0)
	for rows.Next() {
		m, err := scanPopulated(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine row: %w", err)
		}
		medicines = append(medicines, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read medicine rows: %w", err)
	}
	return medicines, nil
}

func collectBare(rows pgx.Rows, withPhoto bool) ([]Medicine, error) {
	defer rows.Close()
	medicines := make([]Medicine, 0)
	for rows.Next() {
		var m Medicine
		var contentType *string
		dest := []any{&m.ID, &m.Name, &m.Slug, &m.Description, &m.Price, &m.CategoryID, &m.Quantity, &m.Shipping, &m.CreatedAt}
		if withPhoto {
			dest = append(dest, &m.Photo, &contentType)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan medicine row: %w", err)
		}
		if contentType != nil {
			m.PhotoContentType = *contentType
		}
		medicines = append(medicines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read medicine rows: %w", err)
	}
	return medicines, nil
}

// nullableText maps the empty string to SQL NULL.
func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
