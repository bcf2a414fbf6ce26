package tariff

import "context"

// Repository persists tariff periods for one household.
type Repository interface {
	List(ctx context.Context) ([]Period, error)
	Get(ctx context.Context, id string) (*Period, error)
	Save(ctx context.Context, period Period) error
	Delete(ctx context.Context, id string) error
}
