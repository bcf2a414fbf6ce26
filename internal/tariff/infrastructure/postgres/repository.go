package postgres

import (
	"context"
	"database/sql"
	"errors"

	tariff "fueltrack/internal/tariff/domain"
)

// TariffRepository persists tariff periods.
type TariffRepository struct {
	db *sql.DB
}

// NewTariffRepository constructs a repository.
func NewTariffRepository(db *sql.DB) *TariffRepository {
	return &TariffRepository{db: db}
}

// List returns all periods ordered by start date.
func (r *TariffRepository) List(ctx context.Context) ([]tariff.Period, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tariff repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, start_date, end_date, unit_rate, standing_charge,
	estimated_annual_usage, estimated_annual_cost
FROM tariff_periods
ORDER BY start_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []tariff.Period
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *period)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return periods, nil
}

// Get fetches one period.
func (r *TariffRepository) Get(ctx context.Context, id string) (*tariff.Period, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tariff repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, start_date, end_date, unit_rate, standing_charge,
	estimated_annual_usage, estimated_annual_cost
FROM tariff_periods
WHERE id = $1
LIMIT 1`, id)
	period, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tariff.ErrNotFound
		}
		return nil, err
	}
	return period, nil
}

// Save upserts a period.
func (r *TariffRepository) Save(ctx context.Context, period tariff.Period) error {
	if r == nil || r.db == nil {
		return errors.New("tariff repo: nil db")
	}
	var endDate sql.NullTime
	if period.EndDate != nil {
		endDate = sql.NullTime{Time: period.EndDate.UTC(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tariff_periods (
	id, start_date, end_date, unit_rate, standing_charge,
	estimated_annual_usage, estimated_annual_cost
) VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
	start_date = EXCLUDED.start_date,
	end_date = EXCLUDED.end_date,
	unit_rate = EXCLUDED.unit_rate,
	standing_charge = EXCLUDED.standing_charge,
	estimated_annual_usage = EXCLUDED.estimated_annual_usage,
	estimated_annual_cost = EXCLUDED.estimated_annual_cost`,
		period.ID, period.StartDate.UTC(), endDate, period.UnitRate, period.StandingCharge,
		period.EstimatedAnnualUsage, period.EstimatedAnnualCost)
	return err
}

// Delete removes a period.
func (r *TariffRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("tariff repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM tariff_periods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tariff.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row rowScanner) (*tariff.Period, error) {
	var period tariff.Period
	var endDate sql.NullTime
	if err := row.Scan(
		&period.ID,
		&period.StartDate,
		&endDate,
		&period.UnitRate,
		&period.StandingCharge,
		&period.EstimatedAnnualUsage,
		&period.EstimatedAnnualCost,
	); err != nil {
		return nil, err
	}
	period.StartDate = period.StartDate.UTC()
	if endDate.Valid {
		t := endDate.Time.UTC()
		period.EndDate = &t
	}
	return &period, nil
}
