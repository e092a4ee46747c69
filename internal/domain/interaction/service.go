package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medtrack/medtrack/internal/domain/medicine"
)

// Service resolves drug-drug interactions against the pair store and the
// medicine directory.
type Service struct {
	pairs     Repository
	medicines medicine.Repository
}

func NewService(pairs Repository, medicines medicine.Repository) *Service {
	return &Service{pairs: pairs, medicines: medicines}
}

// ListForMedicine returns every known interaction involving one medicine,
// each joined with both medicines' records. Pairs whose counterpart medicine
// no longer exists are dropped from the result rather than failing the call.
func (s *Service) ListForMedicine(ctx context.Context, medicineID int64) ([]*Result, error) {
	if _, err := s.medicines.GetByID(ctx, medicineID); err != nil {
		return nil, err
	}

	pairs, err := s.pairs.ListForMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, pairs)
}

// CheckCombination checks every distinct pair among the given medicine ids
// and returns the interactions found. Ids that resolve to no medicine are
// silently skipped so a partially stale list still yields the interactions
// among the medicines that do exist.
func (s *Service) CheckCombination(ctx context.Context, ids []int64) ([]*Result, error) {
	ids = dedupe(ids)
	if len(ids) < 2 {
		return nil, ErrTooFewMedicines
	}

	meds, err := s.medicines.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	known := ids[:0]
	for _, id := range ids {
		if _, ok := meds[id]; ok {
			known = append(known, id)
		}
	}

	var results []*Result
	for i := 0; i < len(known); i++ {
		for j := i + 1; j < len(known); j++ {
			low, high, err := Canonicalize(known[i], known[j])
			if err != nil {
				return nil, err
			}
			p, err := s.pairs.GetByPair(ctx, low, high)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			results = append(results, &Result{
				ID:          p.ID,
				Medicine1:   meds[p.LowID],
				Medicine2:   meds[p.HighID],
				Severity:    p.Severity,
				Description: p.Description,
				Effects:     p.Effects,
				Management:  p.Management,
			})
		}
	}
	return results, nil
}

// Create stores a new pair. The two ids are canonicalized before insert, so
// callers may pass them in either order.
func (s *Service) Create(ctx context.Context, p *Pair) error {
	low, high, err := Canonicalize(p.LowID, p.HighID)
	if err != nil {
		return err
	}
	p.LowID, p.HighID = low, high

	if err := s.validate(ctx, p); err != nil {
		return err
	}
	return s.pairs.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Pair, error) {
	return s.pairs.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Pair) error {
	low, high, err := Canonicalize(p.LowID, p.HighID)
	if err != nil {
		return err
	}
	p.LowID, p.HighID = low, high

	if err := s.validate(ctx, p); err != nil {
		return err
	}
	return s.pairs.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.pairs.Delete(ctx, id)
}

func (s *Service) validate(ctx context.Context, p *Pair) error {
	// Severity is stored lowercase; input is accepted in any case.
	p.Severity = Severity(strings.ToLower(string(p.Severity)))
	if !p.Severity.Valid() {
		return fmt.Errorf("invalid severity %q", p.Severity)
	}
	meds, err := s.medicines.GetByIDs(ctx, []int64{p.LowID, p.HighID})
	if err != nil {
		return err
	}
	for _, id := range []int64{p.LowID, p.HighID} {
		if _, ok := meds[id]; !ok {
			return fmt.Errorf("medicine %d: %w", id, medicine.ErrNotFound)
		}
	}
	return nil
}

func (s *Service) join(ctx context.Context, pairs []*Pair) ([]*Result, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	idSet := make(map[int64]struct{}, len(pairs)*2)
	for _, p := range pairs {
		idSet[p.LowID] = struct{}{}
		idSet[p.HighID] = struct{}{}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	meds, err := s.medicines.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, p := range pairs {
		m1, ok1 := meds[p.LowID]
		m2, ok2 := meds[p.HighID]
		if !ok1 || !ok2 {
			continue
		}
		results = append(results, &Result{
			ID:          p.ID,
			Medicine1:   m1,
			Medicine2:   m2,
			Severity:    p.Severity,
			Description: p.Description,
			Effects:     p.Effects,
			Management:  p.Management,
		})
	}
	return results, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
