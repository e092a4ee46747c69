package medicine

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a medicine id resolves to nothing.
var ErrNotFound = errors.New("medicine not found")

type Service struct {
	medicines Repository
}

func NewService(medicines Repository) *Service {
	return &Service{medicines: medicines}
}

func (s *Service) Create(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id int64) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.medicines.Update(ctx, m)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.medicines.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.Search(ctx, params, limit, offset)
}
