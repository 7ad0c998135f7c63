package pricing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestStore_GetVehicle(t *testing.T) {
	dsn := os.Getenv("RENTPRICE_TEST_DSN")
	if dsn == "" {
		t.Skip("RENTPRICE_TEST_DSN not set; skipping DB-backed tests")
	}
	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			base_daily_rate DOUBLE PRECISION NOT NULL
		)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	id := fmt.Sprintf("veh_test_%d", time.Now().UnixNano())
	if _, err := db.Exec(ctx, `INSERT INTO vehicles (id, name, category, base_daily_rate) VALUES ($1, $2, $3, $4)`,
		id, "Land Cruiser", "suv", 420.0); err != nil {
		t.Fatalf("insert: %v", err)
	}
	defer db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)

	store := NewStore(db)
	v, err := store.GetVehicle(ctx, id)
	if err != nil {
		t.Fatalf("GetVehicle: %v", err)
	}
	if v.Category != "suv" || v.BaseDailyRate != 420 || v.Name != "Land Cruiser" {
		t.Errorf("vehicle = %+v", v)
	}

	if _, err := store.GetVehicle(ctx, id+"_missing"); !errors.Is(err, ErrVehicleNotFound) {
		t.Errorf("missing vehicle err = %v, want ErrVehicleNotFound", err)
	}
}
