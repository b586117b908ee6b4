// Package identity verifies bearer tokens issued by the external identity
// provider. Account creation and sign-in flows stay with the provider.
package identity

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"

	"smartcampus/backend/internal/models"
)

// ErrInvalidToken is returned for missing, malformed, expired or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// Verifier turns a bearer token into the caller it was issued to. The
// returned caller carries no role; roles live in the user profile store.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Caller, error)
}

// FirebaseVerifier checks Firebase ID tokens.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*models.Caller, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return &models.Caller{
		UID:    t.UID,
		Email:  claimString(t.Claims, "email"),
		Name:   claimString(t.Claims, "name"),
		Avatar: claimString(t.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
