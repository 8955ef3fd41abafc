package catalog

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

//go:embed data/services.json
var servicesJSON []byte

// serviceRecord is the on-disk shape of a catalog entry. Prices are decimal
// strings to avoid float drift.
type serviceRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Image       string `json:"image"`
}

// MemoryRepository serves the catalog from the embedded service list.
type MemoryRepository struct {
	services []Service
	byID     map[string]*Service
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository loads the embedded catalog data.
func NewMemoryRepository() (*MemoryRepository, error) {
	return newFromJSON(servicesJSON)
}

func newFromJSON(data []byte) (*MemoryRepository, error) {
	var records []serviceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "decode catalog data")
	}

	repo := &MemoryRepository{
		services: make([]Service, 0, len(records)),
		byID:     make(map[string]*Service, len(records)),
	}
	for _, rec := range records {
		price, err := decimal.NewFromString(rec.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "parse price for service %q", rec.ID)
		}
		repo.services = append(repo.services, Service{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			Price:       price,
			Image:       rec.Image,
		})
	}
	for i := range repo.services {
		repo.byID[repo.services[i].ID] = &repo.services[i]
	}
	return repo, nil
}

// List returns all catalog services in their defined order.
func (r *MemoryRepository) List(_ context.Context) ([]Service, error) {
	out := make([]Service, len(r.services))
	copy(out, r.services)
	return out, nil
}

// GetByID returns the service with the given ID or ErrNotFound.
func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Service, error) {
	svc, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *svc
	return &cp, nil
}
