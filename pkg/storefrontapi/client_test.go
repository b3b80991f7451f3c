package storefrontapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/api/"})
	require.NoError(t, err)
	return c
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New(Options{BaseURL: "/api"})
	require.Error(t, err)
	_, err = New(Options{})
	require.Error(t, err)
}

func TestListProductsForwardsQueryTokenAndRequestID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "phones", r.URL.Query().Get("category"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get(HeaderRequestID))
		_, _ = io.WriteString(w, `{"products":[{"_id":"p1","name":"Galaxy A15","brand":{"_id":"b1","name":"Samsung"},"category":"Phones","price":13000}],"count":1}`)
	})

	ctx := WithRequestID(WithBearerToken(context.Background(), "tok"), "req-1")
	page, err := c.ListProducts(ctx, url.Values{"category": {"phones"}})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	p := page.Products[0]
	assert.Equal(t, "Samsung", p.Brand.Name)
	assert.Equal(t, "Phones", p.Category.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(13000)))
	assert.Equal(t, 1, page.Count)
}

func TestListCategoriesAcceptsBothShapes(t *testing.T) {
	bare := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"name":"Phones"},{"name":"Laptops"}]`)
	})
	cats, err := bare.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)

	wrapped := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"brands":[{"name":"Apple"}]}`)
	})
	brands, err := wrapped.ListBrands(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Apple", brands[0].Name)

	missing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	brands, err = missing.ListBrands(context.Background())
	require.NoError(t, err)
	require.Empty(t, brands)
}

func TestStatusErrorsMapToTypedCodes(t *testing.T) {
	cases := []struct {
		status    int
		code      pkgerrors.Code
		retryable bool
	}{
		{http.StatusBadRequest, pkgerrors.CodeValidation, false},
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized, false},
		{http.StatusNotFound, pkgerrors.CodeNotFound, false},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit, false},
		{http.StatusBadGateway, pkgerrors.CodeDependency, true},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, `{"message":"upstream says no"}`)
		})
		_, err := c.GetProduct(context.Background(), "p1")
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "status %d", tc.status)
		assert.Equal(t, tc.code, typed.Code(), "status %d", tc.status)
		assert.Equal(t, "upstream says no", typed.Message())
		assert.Equal(t, tc.retryable, pkgerrors.IsRetryable(err))
	}
}

func TestTimeoutIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.RecentReviews(context.Background())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeTimeout, pkgerrors.CodeOf(err))
	assert.True(t, pkgerrors.IsRetryable(err))
}

func TestCreateOrderSendsIdempotencyKeyAndNumbers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key-1", r.Header.Get(HeaderIdempotencyKey))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 13000.0, body["total"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"_id":"o1","status":"pending"}`)
	})

	ack, err := c.CreateOrder(context.Background(), OrderRequest{
		Reference: "ORD-1",
		Total:     Amount(decimal.NewFromInt(13000)),
	}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "o1", ack.ID)
}

func TestAdminReviewsUsesLimitSkip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("skip"))
		_, _ = io.WriteString(w, `{"reviews":[{"_id":"r1","name":"Amina","rating":4,"comment":"ok","product":{"name":"Tab"}}]}`)
	})
	page, err := c.AdminReviews(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Tab", page.Reviews[0].Product.Name)
}

func TestDeleteIgnoresEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders/o%2F1", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.DeleteOrder(context.Background(), "o/1"))
}

func TestProductEffectivePrice(t *testing.T) {
	discount := decimal.NewFromInt(900)
	p := Product{Price: decimal.NewFromInt(1000), DiscountPrice: &discount}
	assert.True(t, p.EffectivePrice().Equal(discount))
	p.DiscountPrice = nil
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(1000)))
	p.Images = []string{"a.jpg"}
	assert.Equal(t, "a.jpg", p.Image())
}
