// Package auth carries the authenticated student through a request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var ErrNoUser = errors.New("no authenticated user")

// User is the student a request acts for. ID keys cards, settings and
// review logs.
type User struct {
	ID       int64
	Username string
}

// NewUser builds a User from a token's subject and username claims.
func NewUser(subject, username string) (User, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || id <= 0 {
		return User{}, fmt.Errorf("subject %q is not a user id", subject)
	}
	if username == "" {
		return User{}, errors.New("empty username")
	}
	return User{ID: id, Username: username}, nil
}

type ctxkey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxkey{}, u)
}

func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxkey{}).(User)
	return u, ok
}

// UserID returns the caller's id, or ErrNoUser when the request carried
// no valid token.
func UserID(ctx context.Context) (int64, error) {
	u, ok := FromContext(ctx)
	if !ok {
		return 0, ErrNoUser
	}
	return u.ID, nil
}
