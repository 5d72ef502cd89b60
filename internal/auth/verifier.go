package auth

import (
	"errors"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/config"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

// TokenVerifier turns a raw bearer token into an identity. HTTP middleware
// and the WebSocket handshake share this check.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// CasdoorVerifier validates JWTs issued by Casdoor against the
// application's certificate.
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorVerifier{client: client}
}

func (v *CasdoorVerifier) Verify(token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.User.Id)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:   userID,
		Username: claims.User.Name,
		Email:    claims.User.Email,
	}, nil
}

// StaticVerifier maps fixed tokens to identities. Used in tests and local
// development without an identity provider.
type StaticVerifier struct {
	Tokens map[string]Identity
}

func (v *StaticVerifier) Verify(token string) (*Identity, error) {
	identity, ok := v.Tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &identity, nil
}
