package storage

import (
	"context"
	"fmt"

	"github.com/hanguang-studio/salonbook/libs/db"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
)

type CustomerRepository struct {
	q db.Querier
}

func NewCustomerRepository(q db.Querier) *CustomerRepository {
	return &CustomerRepository{q: q}
}

func (r *CustomerRepository) Get(ctx context.Context, phone string) (model.Customer, error) {
	var c model.Customer
	err := r.q.QueryRow(ctx, `
		SELECT phone, name, COALESCE(birthday::text, ''), COALESCE(line_id, ''),
			COALESCE(occupation, ''), COALESCE(address, '')
		FROM customers
		WHERE phone = $1
	`, phone).Scan(&c.Phone, &c.Name, &c.Birthday, &c.LineID, &c.Occupation, &c.Address)
	if err != nil {
		return model.Customer{}, fmt.Errorf("get customer: %w", mapErr(err))
	}
	return c, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, c model.Customer) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO customers (phone, name, birthday, line_id, occupation, address)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
	`, c.Phone, c.Name, c.Birthday, c.LineID, c.Occupation, c.Address)
	if err != nil {
		return fmt.Errorf("insert customer: %w", mapErr(err))
	}
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, c model.Customer) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE customers
		SET name = $2, birthday = $3, line_id = $4,
			occupation = NULLIF($5, ''), address = NULLIF($6, ''), updated_at = now()
		WHERE phone = $1
	`, c.Phone, c.Name, c.Birthday, c.LineID, c.Occupation, c.Address)
	if err != nil {
		return fmt.Errorf("update customer: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update customer: %w", ErrNotFound)
	}
	return nil
}
