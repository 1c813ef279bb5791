// Package identity carries the acting account through a request context.
package identity

import (
	"context"
	"errors"
)

// ErrNoAccount is returned when a call carries no account identity.
var ErrNoAccount = errors.New("no account in context")

type ctxKey struct{}

// WithAccount returns a copy of ctx that carries accountID.
func WithAccount(ctx context.Context, accountID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, accountID)
}

// AccountID returns the account carried by ctx, if any.
func AccountID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok && id > 0
}

// Require returns the account carried by ctx or ErrNoAccount.
func Require(ctx context.Context) (int64, error) {
	id, ok := AccountID(ctx)
	if !ok {
		return 0, ErrNoAccount
	}
	return id, nil
}
