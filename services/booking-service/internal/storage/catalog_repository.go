package storage

import (
	"context"
	"fmt"

	"github.com/hanguang-studio/salonbook/libs/db"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
)

type CatalogRepository struct {
	q db.Querier
}

func NewCatalogRepository(q db.Querier) *CatalogRepository {
	return &CatalogRepository{q: q}
}

const serviceColumns = `id::text, name, category, price::float8, COALESCE(duration_minutes, 0), is_active, COALESCE(sort_order, 0)`

// ListCourses returns active course offerings, cheapest first.
func (r *CatalogRepository) ListCourses(ctx context.Context) ([]model.Service, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE category = $1 AND is_active = true
		ORDER BY price ASC, sort_order ASC
	`, model.CategoryCourse)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetService returns an active service. Malformed and inactive ids are ErrNotFound.
func (r *CatalogRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	if !db.IsUUID(id) {
		return model.Service{}, fmt.Errorf("get service %q: %w", id, ErrNotFound)
	}
	s, err := scanService(r.q.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1 AND is_active = true
	`, id))
	if err != nil {
		return model.Service{}, fmt.Errorf("get service %s: %w", id, mapErr(err))
	}
	return s, nil
}

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.DurationMinutes, &s.IsActive, &s.SortOrder)
	return s, err
}
