package backend

import (
	"context"
	"net/http"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

const userSubscriptionsPath = "/user-subscriptions"

// ListUserSubscriptions возвращает назначения подписок.
// GET /user-subscriptions?q=<query>
func (c *Client) ListUserSubscriptions(ctx context.Context, q string) ([]model.UserSubscription, error) {
	var list []model.UserSubscription
	err := c.do(ctx, request{op: "list user subscriptions", method: http.MethodGet, path: userSubscriptionsPath, query: searchQuery(q)}, &list)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// GetUserSubscription возвращает назначение по ID.
func (c *Client) GetUserSubscription(ctx context.Context, id int64) (*model.UserSubscription, error) {
	var us model.UserSubscription
	if err := c.do(ctx, request{op: "get user subscription", method: http.MethodGet, path: idPath(userSubscriptionsPath, id)}, &us); err != nil {
		return nil, err
	}
	return &us, nil
}

// CreateUserSubscription создаёт назначение.
func (c *Client) CreateUserSubscription(ctx context.Context, in model.UserSubscriptionInput) error {
	body, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, request{op: "create user subscription", method: http.MethodPost, path: userSubscriptionsPath, body: body, contentType: "application/json"}, nil)
}

// UpdateUserSubscription обновляет назначение.
func (c *Client) UpdateUserSubscription(ctx context.Context, id int64, in model.UserSubscriptionInput) error {
	body, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, request{op: "update user subscription", method: http.MethodPut, path: idPath(userSubscriptionsPath, id), body: body, contentType: "application/json"}, nil)
}

// DeleteUserSubscription удаляет назначение.
func (c *Client) DeleteUserSubscription(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete user subscription", method: http.MethodDelete, path: idPath(userSubscriptionsPath, id)}, nil)
}
