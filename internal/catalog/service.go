package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/pagination"
	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

type upstream interface {
	ListProducts(ctx context.Context, query url.Values) (*storefrontapi.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*storefrontapi.Product, error)
	ListCategories(ctx context.Context) ([]storefrontapi.Category, error)
	ListBrands(ctx context.Context) ([]storefrontapi.Brand, error)
}

// Service exposes storefront catalog reads.
type Service interface {
	List(ctx context.Context, filters Filters) (*Page, error)
	Collection(ctx context.Context, preset Preset, limit int) ([]storefrontapi.Product, error)
	Product(ctx context.Context, id string) (*storefrontapi.Product, error)
	Categories(ctx context.Context) ([]storefrontapi.Category, error)
	Brands(ctx context.Context) ([]storefrontapi.Brand, error)
	Facets(ctx context.Context) (*Facets, error)
}

type Page struct {
	Products []storefrontapi.Product `json:"products"`
	Meta     pagination.Meta         `json:"meta"`
	Filters  map[string]string       `json:"filters"`
}

// Facets are the filter options shown beside the product grid.
type Facets struct {
	Categories []storefrontapi.Category `json:"categories"`
	Brands     []storefrontapi.Brand    `json:"brands"`
	Degraded   bool                     `json:"degraded,omitempty"`
}

type service struct {
	api upstream
}

func NewService(api upstream) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("storefront api client required")
	}
	return &service{api: api}, nil
}

func (s *service) List(ctx context.Context, filters Filters) (*Page, error) {
	normalized, err := filters.Normalize()
	if err != nil {
		return nil, err
	}
	q := normalized.Values()
	res, err := s.api.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]string, len(q))
	for k := range q {
		applied[k] = q.Get(k)
	}
	return &Page{
		Products: res.Products,
		Meta:     pagination.NewMeta(pagination.Params{Page: normalized.Page, Limit: normalized.Limit}, res.Count),
		Filters:  applied,
	}, nil
}

func (s *service) Collection(ctx context.Context, preset Preset, limit int) ([]storefrontapi.Product, error) {
	q, err := PresetValues(preset, limit)
	if err != nil {
		return nil, err
	}
	res, err := s.api.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	return res.Products, nil
}

func (s *service) Product(ctx context.Context, id string) (*storefrontapi.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.api.GetProduct(ctx, id)
}

func (s *service) Categories(ctx context.Context) ([]storefrontapi.Category, error) {
	return s.api.ListCategories(ctx)
}

func (s *service) Brands(ctx context.Context) ([]storefrontapi.Brand, error) {
	return s.api.ListBrands(ctx)
}

// Facets loads categories and brands concurrently. A failure in either
// leaves that list empty and marks the result degraded; the error is
// returned alongside the usable result.
func (s *service) Facets(ctx context.Context) (*Facets, error) {
	out := &Facets{
		Categories: []storefrontapi.Category{},
		Brands:     []storefrontapi.Brand{},
	}
	var g errgroup.Group
	g.Go(func() error {
		cats, err := s.api.ListCategories(ctx)
		if err == nil {
			out.Categories = cats
		}
		return err
	})
	g.Go(func() error {
		brands, err := s.api.ListBrands(ctx)
		if err == nil {
			out.Brands = brands
		}
		return err
	})
	if err := g.Wait(); err != nil {
		out.Degraded = true
		return out, err
	}
	return out, nil
}
