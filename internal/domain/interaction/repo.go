package interaction

import "context"

// Repository stores interaction pairs. Implementations must preserve the
// canonical ordering invariant low_id < high_id on every row.
type Repository interface {
	Create(ctx context.Context, p *Pair) error
	GetByID(ctx context.Context, id int64) (*Pair, error)
	// GetByPair looks up the single row for two canonical ids.
	GetByPair(ctx context.Context, low, high int64) (*Pair, error)
	// ListForMedicine returns every pair in which the medicine appears on
	// either side.
	ListForMedicine(ctx context.Context, medicineID int64) ([]*Pair, error)
	Update(ctx context.Context, p *Pair) error
	Delete(ctx context.Context, id int64) error
}
