package search

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/singleflight"

	"github.com/snaapconnections/storefront/pkg/pagination"
	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

const (
	// MinQueryLength is the shortest query that produces results.
	MinQueryLength = 2

	DefaultMaxResults = 8
	DefaultCacheTTL   = time.Minute
)

type productLister interface {
	ListProducts(ctx context.Context, query url.Values) (*storefrontapi.ProductPage, error)
}

// Hit is one autocomplete suggestion.
type Hit struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	Image    string `json:"image,omitempty"`
	Score    int    `json:"score"`
}

type Options struct {
	MaxResults int
	CacheTTL   time.Duration
}

// Service fuzzy-matches shopper queries against the product catalog.
type Service struct {
	api        productLister
	maxResults int
	ttl        time.Duration
	now        func() time.Time

	refresh   singleflight.Group
	mu        sync.Mutex
	products  []storefrontapi.Product
	fetchedAt time.Time
}

func NewService(api productLister, opts Options) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("storefront api client required")
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	return &Service{
		api:        api,
		maxResults: opts.MaxResults,
		ttl:        opts.CacheTTL,
		now:        time.Now,
	}, nil
}

// Search returns the best matches for query across name, brand and category.
func (s *Service) Search(ctx context.Context, query string) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []Hit{}, nil
	}
	products, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return Match(query, products, s.maxResults), nil
}

// Invalidate drops the cached catalog.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.products = nil
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Service) catalog(ctx context.Context) ([]storefrontapi.Product, error) {
	s.mu.Lock()
	cached, fetchedAt := s.products, s.fetchedAt
	s.mu.Unlock()
	if cached != nil && s.now().Sub(fetchedAt) < s.ttl {
		return cached, nil
	}

	// Concurrent misses share one upstream call, detached from caller cancellation.
	ch := s.refresh.DoChan("catalog", func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			if cached != nil {
				return cached, nil
			}
			return nil, res.Err
		}
		return res.Val.([]storefrontapi.Product), nil
	case <-ctx.Done():
		if cached != nil {
			return cached, nil
		}
		return nil, ctx.Err()
	}
}

func (s *Service) fetch(ctx context.Context) ([]storefrontapi.Product, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pagination.MaxLimit))
	page, err := s.api.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	products := page.Products
	if products == nil {
		products = []storefrontapi.Product{}
	}
	s.mu.Lock()
	s.products = products
	s.fetchedAt = s.now()
	s.mu.Unlock()
	return products, nil
}

type field func(p storefrontapi.Product) string

type source struct {
	products []storefrontapi.Product
	value    field
}

func (s source) String(i int) string { return s.value(s.products[i]) }
func (s source) Len() int { return len(s.products) }

var fields = []field{
	func(p storefrontapi.Product) string { return p.Name },
	func(p storefrontapi.Product) string { return p.Brand.Name },
	func(p storefrontapi.Product) string { return p.Category.Name },
}

// Match ranks products against query, keeping each product's best field score.
func Match(query string, products []storefrontapi.Product, limit int) []Hit {
	best := make(map[int]int)
	for _, f := range fields {
		for _, m := range fuzzy.FindFrom(query, source{products: products, value: f}) {
			if prev, ok := best[m.Index]; !ok || m.Score > prev {
				best[m.Index] = m.Score
			}
		}
	}

	hits := make([]Hit, 0, len(best))
	for idx, score := range best {
		p := products[idx]
		hits = append(hits, Hit{
			ID:       p.ID,
			Name:     p.Name,
			Brand:    p.Brand.Name,
			Category: p.Category.Name,
			Image:    p.Image(),
			Score:    score,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Name < hits[j].Name
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
