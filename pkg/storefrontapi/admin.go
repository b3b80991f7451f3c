package storefrontapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Resource is an admin-managed catalog collection.
type Resource string

const (
	ResourceProducts   Resource = "products"
	ResourceCategories Resource = "categories"
	ResourceBrands     Resource = "brands"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges the shared admin password for a bearer token.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", body: loginRequest{Password: password}}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// CheckAuth asks the remote API whether the bearer token on ctx is still valid.
func (c *Client) CheckAuth(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodGet, path: "/auth/check"}, nil)
}

func (c *Client) CreateResource(ctx context.Context, r Resource, body json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, call{method: http.MethodPost, path: "/" + string(r), body: body}, &out)
	return out, err
}

func (c *Client) UpdateResource(ctx context.Context, r Resource, id string, body json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, call{method: http.MethodPut, path: "/" + string(r) + "/" + url.PathEscape(id), body: body}, &out)
	return out, err
}

func (c *Client) DeleteResource(ctx context.Context, r Resource, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/" + string(r) + "/" + url.PathEscape(id)}, nil)
}

func (c *Client) ListCustomers(ctx context.Context, query url.Values) (*CustomerPage, error) {
	var page CustomerPage
	if err := c.do(ctx, call{method: http.MethodGet, path: "/admin/customers", query: query}, &page); err != nil {
		return nil, err
	}
	if page.Customers == nil {
		page.Customers = []Customer{}
	}
	return &page, nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id string, body json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, call{method: http.MethodPatch, path: "/admin/customers/" + url.PathEscape(id), body: body}, &out)
	return out, err
}

func (c *Client) ListOrders(ctx context.Context, query url.Values) (*OrderPage, error) {
	var page OrderPage
	if err := c.do(ctx, call{method: http.MethodGet, path: "/orders", query: query}, &page); err != nil {
		return nil, err
	}
	if page.Orders == nil {
		page.Orders = []Order{}
	}
	return &page, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := c.do(ctx, call{method: http.MethodGet, path: "/orders/" + url.PathEscape(id)}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error) {
	var o Order
	body := map[string]string{"status": status}
	if err := c.do(ctx, call{method: http.MethodPatch, path: "/orders/" + url.PathEscape(id), body: body}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/orders/" + url.PathEscape(id)}, nil)
}

// Dashboard returns the remote stats document untouched.
func (c *Client) Dashboard(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, call{method: http.MethodGet, path: "/admin/dashboard"}, &out)
	return out, err
}
