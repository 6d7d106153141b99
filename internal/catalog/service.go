package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"saas-tenancy/internal/model"
	"saas-tenancy/internal/store"
	"saas-tenancy/internal/tenancy"
)

// JobImport is the job type handled by ImportJob.
const JobImport = "product.import"

var ErrInvalidProduct = errors.New("invalid product")

// ProductInput is the client-supplied part of a product. TenantID is
// normally omitted; when present it must match the bound tenant.
type ProductInput struct {
	TenantID    string  `json:"tenant_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func (in *ProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case len(in.Name) > 200:
		return fmt.Errorf("%w: name exceeds 200 characters", ErrInvalidProduct)
	case in.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	return nil
}

// Export is everything the bound tenant owns.
type Export struct {
	Tenant     *model.Tenant    `json:"tenant,omitempty"`
	Products   []*model.Product `json:"products"`
	ExportedAt time.Time        `json:"exported_at"`
}

// Service is the product application logic. All data access goes through
// the tenant-scoped store.
type Service struct {
	store    *store.Store
	products *store.Collection[model.Product]
	logger   *zap.Logger
}

func NewService(st *store.Store, products *store.Collection[model.Product], logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, products: products, logger: logger}
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	sess := s.store.Session()
	p := &model.Product{TenantID: in.TenantID, Name: in.Name, Description: in.Description, Price: in.Price}
	if err := store.Add(sess, s.products, p); err != nil {
		return nil, err
	}
	if _, err := sess.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the tenant's products ordered by name, optionally only
// those with exactly the given name.
func (s *Service) List(ctx context.Context, name string) ([]*model.Product, error) {
	filter := store.Filter{}
	if name != "" {
		filter = store.Where("name", name)
	}

	products, err := store.Find(ctx, s.store.Session(), s.products, filter)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(products, func(a, b *model.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return products, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return store.Get(ctx, s.store.Session(), s.products, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*model.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	sess := s.store.Session()
	p, err := store.Get(ctx, sess, s.products, id)
	if err != nil {
		return nil, err
	}
	if in.TenantID != "" {
		p.TenantID = in.TenantID
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price

	if err := store.Update(sess, s.products, p); err != nil {
		return nil, err
	}
	if _, err := sess.SaveChanges(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	sess := s.store.Session()
	p, err := store.Get(ctx, sess, s.products, id)
	if err != nil {
		return err
	}
	if err := store.Remove(sess, s.products, p); err != nil {
		return err
	}
	_, err = sess.SaveChanges(ctx)
	return err
}

// Import adds all items in one commit. Either every item is stored or none.
func (s *Service) Import(ctx context.Context, items []ProductInput) (int, error) {
	sess := s.store.Session()
	for i := range items {
		if err := items[i].validate(); err != nil {
			return 0, fmt.Errorf("item %d: %w", i, err)
		}
		p := &model.Product{
			TenantID:    items[i].TenantID,
			Name:        items[i].Name,
			Description: items[i].Description,
			Price:       items[i].Price,
		}
		if err := store.Add(sess, s.products, p); err != nil {
			return 0, err
		}
	}
	return sess.SaveChanges(ctx)
}

// ImportJob handles a JobImport payload: a JSON array of products.
func (s *Service) ImportJob(ctx context.Context, body []byte) error {
	var items []ProductInput
	if err := json.Unmarshal(body, &items); err != nil {
		return fmt.Errorf("%w: decode import payload: %v", ErrInvalidProduct, err)
	}

	n, err := s.Import(ctx, items)
	if err != nil {
		return err
	}
	key, _ := tenancy.Key(ctx)
	s.logger.Info("products imported", zap.String("tenant", key), zap.Int("count", n))
	return nil
}

// Export collects the bound tenant's record and products. With no tenant
// bound the export is empty.
func (s *Service) Export(ctx context.Context) (*Export, error) {
	out := &Export{Products: []*model.Product{}, ExportedAt: time.Now().UTC()}

	tenant, ok := tenancy.Current(ctx)
	if !ok {
		return out, nil
	}
	tenant.IsolationTarget = ""
	out.Tenant = tenant

	products, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	out.Products = products
	return out, nil
}
