package backend

import (
	"context"
	"net/http"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

const subscriptionsPath = "/subscriptions"

// ListSubscriptions возвращает тарифные планы.
// GET /subscriptions?q=<query>
func (c *Client) ListSubscriptions(ctx context.Context, q string) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := c.do(ctx, request{op: "list subscriptions", method: http.MethodGet, path: subscriptionsPath, query: searchQuery(q)}, &subs)
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// GetSubscription возвращает план по ID.
func (c *Client) GetSubscription(ctx context.Context, id int64) (*model.Subscription, error) {
	var s model.Subscription
	if err := c.do(ctx, request{op: "get subscription", method: http.MethodGet, path: idPath(subscriptionsPath, id)}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSubscription создаёт план.
func (c *Client) CreateSubscription(ctx context.Context, in model.SubscriptionInput) error {
	body, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, request{op: "create subscription", method: http.MethodPost, path: subscriptionsPath, body: body, contentType: "application/json"}, nil)
}

// UpdateSubscription обновляет план.
func (c *Client) UpdateSubscription(ctx context.Context, id int64, in model.SubscriptionInput) error {
	body, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, request{op: "update subscription", method: http.MethodPut, path: idPath(subscriptionsPath, id), body: body, contentType: "application/json"}, nil)
}

// DeleteSubscription удаляет план.
func (c *Client) DeleteSubscription(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete subscription", method: http.MethodDelete, path: idPath(subscriptionsPath, id)}, nil)
}
