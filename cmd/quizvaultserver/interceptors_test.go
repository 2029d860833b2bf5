package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/matryer/is"

	"github.com/domino14/quizvault/internal/auth"
)

var testKey = []byte("abcdef")

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func header(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

func TestAuthenticateJWT(t *testing.T) {
	is := is.New(t)
	tok := signed(t, jwt.SigningMethodHS256, testKey, jwt.MapClaims{
		"sub": "42",
		"usn": "cesar",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	ctx, err := authenticateJWT(context.Background(), header(tok), testKey)
	is.NoErr(err)
	user, ok := auth.FromContext(ctx)
	is.True(ok)
	is.Equal(user, auth.User{ID: 42, Username: "cesar"})
}

func TestAuthenticateJWTRejects(t *testing.T) {
	valid := jwt.MapClaims{"sub": "42", "usn": "cesar", "exp": time.Now().Add(time.Hour).Unix()}
	with := func(k string, v any) jwt.MapClaims {
		c := jwt.MapClaims{}
		for key, val := range valid {
			c[key] = val
		}
		if v == nil {
			delete(c, k)
		} else {
			c[k] = v
		}
		return c
	}

	for name, tok := range map[string]string{
		"wrong key":     signed(t, jwt.SigningMethodHS256, []byte("other"), valid),
		"expired":       signed(t, jwt.SigningMethodHS256, testKey, with("exp", time.Now().Add(-time.Hour).Unix())),
		"no sub":        signed(t, jwt.SigningMethodHS256, testKey, with("sub", nil)),
		"numeric sub":   signed(t, jwt.SigningMethodHS256, testKey, with("sub", 42)),
		"non-int sub":   signed(t, jwt.SigningMethodHS256, testKey, with("sub", "cesar")),
		"no usn":        signed(t, jwt.SigningMethodHS256, testKey, with("usn", nil)),
		"empty usn":     signed(t, jwt.SigningMethodHS256, testKey, with("usn", "")),
		"unsigned":      signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid),
		"garbage token": "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			_, err := authenticateJWT(context.Background(), header(tok), testKey)
			is.True(err != nil)
		})
	}

	is := is.New(t)
	_, err := authenticateJWT(context.Background(), http.Header{}, testKey)
	is.True(err != nil)
}
