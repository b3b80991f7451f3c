package storefrontapi

import (
	"context"
	"net/http"
)

// CreateOrder submits an order. The idempotency key is forwarded so the
// remote API can collapse retried submissions.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest, idempotencyKey string) (*OrderAck, error) {
	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set(HeaderIdempotencyKey, idempotencyKey)
	}
	var ack OrderAck
	if err := c.do(ctx, call{method: http.MethodPost, path: "/orders", body: req, headers: headers}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
