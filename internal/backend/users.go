package backend

import (
	"context"
	"net/http"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

const usersPath = "/users"

// ListUsers возвращает пользователей, опционально отфильтрованных по q.
// GET /users?q=<query>
func (c *Client) ListUsers(ctx context.Context, q string) ([]model.User, error) {
	var users []model.User
	err := c.do(ctx, request{op: "list users", method: http.MethodGet, path: usersPath, query: searchQuery(q)}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ListSubscribers возвращает только пользователей с ролью subscriber.
func (c *Client) ListSubscribers(ctx context.Context) ([]model.User, error) {
	users, err := c.ListUsers(ctx, "")
	if err != nil {
		return nil, err
	}
	return model.FilterSubscribers(users), nil
}

// GetUser возвращает пользователя по ID.
func (c *Client) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, request{op: "get user", method: http.MethodGet, path: idPath(usersPath, id)}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser создаёт пользователя.
func (c *Client) CreateUser(ctx context.Context, in model.UserInput) error {
	body, err := jsonBody(in.Normalize())
	if err != nil {
		return err
	}
	return c.do(ctx, request{op: "create user", method: http.MethodPost, path: usersPath, body: body, contentType: "application/json"}, nil)
}

// UpdateUser обновляет пользователя. Пустой пароль не передаётся.
func (c *Client) UpdateUser(ctx context.Context, id int64, in model.UserInput) error {
	body, err := jsonBody(in.Normalize())
	if err != nil {
		return err
	}
	return c.do(ctx, request{op: "update user", method: http.MethodPut, path: idPath(usersPath, id), body: body, contentType: "application/json"}, nil)
}

// DeleteUser удаляет пользователя.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete user", method: http.MethodDelete, path: idPath(usersPath, id)}, nil)
}
