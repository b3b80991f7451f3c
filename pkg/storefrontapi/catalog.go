package storefrontapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
)

func (c *Client) ListProducts(ctx context.Context, query url.Values) (*ProductPage, error) {
	var page ProductPage
	if err := c.do(ctx, call{method: http.MethodGet, path: "/products", query: query}, &page); err != nil {
		return nil, err
	}
	if page.Products == nil {
		page.Products = []Product{}
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := c.do(ctx, call{method: http.MethodGet, path: "/products/" + url.PathEscape(id)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.getList(ctx, "/categories", "categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBrands(ctx context.Context) ([]Brand, error) {
	var out []Brand
	if err := c.getList(ctx, "/brands", "brands", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// getList accepts both a bare array and an object wrapping the array under field.
func (c *Client) getList(ctx context.Context, path, field string, out any) error {
	var raw json.RawMessage
	if err := c.do(ctx, call{method: http.MethodGet, path: path}, &raw); err != nil {
		return err
	}
	list := raw
	var wrapped map[string]json.RawMessage
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upstream list")
		}
		list = wrapped[field]
	}
	if len(list) == 0 || string(list) == "null" {
		list = json.RawMessage("[]")
	}
	if err := json.Unmarshal(list, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upstream list")
	}
	return nil
}
