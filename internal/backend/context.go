package backend

import "context"

type tokenKey struct{}

// WithToken возвращает context с токеном пользователя для запросов к backend.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext извлекает токен из context. Пустая строка — токена нет.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
