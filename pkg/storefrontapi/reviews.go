package storefrontapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type reviewList struct {
	Reviews []Review `json:"reviews"`
}

func (c *Client) ProductReviews(ctx context.Context, productID string) ([]Review, error) {
	var out reviewList
	if err := c.do(ctx, call{method: http.MethodGet, path: "/products/" + url.PathEscape(productID) + "/reviews"}, &out); err != nil {
		return nil, err
	}
	if out.Reviews == nil {
		return []Review{}, nil
	}
	return out.Reviews, nil
}

func (c *Client) SubmitReview(ctx context.Context, productID string, in ReviewInput) (*Review, error) {
	var out Review
	if err := c.do(ctx, call{method: http.MethodPost, path: "/products/" + url.PathEscape(productID) + "/reviews", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecentReviews(ctx context.Context) ([]Review, error) {
	var out reviewList
	if err := c.do(ctx, call{method: http.MethodGet, path: "/reviews/recent"}, &out); err != nil {
		return nil, err
	}
	if out.Reviews == nil {
		return []Review{}, nil
	}
	return out.Reviews, nil
}

// AdminReviews lists every review, approved or not, using limit/skip paging.
func (c *Client) AdminReviews(ctx context.Context, limit, skip int) (*ReviewPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(skip))
	var page ReviewPage
	if err := c.do(ctx, call{method: http.MethodGet, path: "/admin/reviews", query: q}, &page); err != nil {
		return nil, err
	}
	if page.Reviews == nil {
		page.Reviews = []Review{}
	}
	if page.Total == 0 {
		page.Total = len(page.Reviews)
	}
	return &page, nil
}

func (c *Client) ApproveReview(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodPatch, path: "/admin/reviews/" + url.PathEscape(id) + "/approve"}, nil)
}

func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: "/admin/reviews/" + url.PathEscape(id)}, nil)
}
