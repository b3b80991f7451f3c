package storefrontapi

import (
	"context"
	"net/http"
)

type botRequest struct {
	Message string `json:"message"`
}

type botResponse struct {
	Reply string `json:"reply"`
}

// AskBot forwards a shopper question to the product advisor.
func (c *Client) AskBot(ctx context.Context, message string) (string, error) {
	var out botResponse
	if err := c.do(ctx, call{method: http.MethodPost, path: "/product-bot", body: botRequest{Message: message}}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}
