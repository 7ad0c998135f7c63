// README: Vehicle lookup backed by PostgreSQL (read only).
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetVehicle(ctx context.Context, id string) (Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, category, base_daily_rate
		FROM vehicles
		WHERE id = $1`, id,
	)

	var v Vehicle
	err := row.Scan(&v.ID, &v.Name, &v.Category, &v.BaseDailyRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	if err != nil {
		return Vehicle{}, err
	}
	return v, nil
}
