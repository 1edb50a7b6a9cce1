package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// DefaultTokenTTL matches the lifetime of tokens minted by the web session.
const DefaultTokenTTL = time.Hour

const avatarBaseURL = "https://i.pravatar.cc/150?u="

// Claims is the payload of a handshake token.
type Claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Identity is the member identity derived from a valid token.
type Identity struct {
	UserID      string
	DisplayName string
	AvatarRef   string
}

// AvatarFor derives the avatar reference for a user id.
func AvatarFor(userID string) string {
	return avatarBaseURL + userID
}

// Authenticator verifies handshake tokens against the shared secret.
type Authenticator struct {
	secret []byte
	clock  clockwork.Clock
}

// NewAuthenticator creates an Authenticator. An empty secret is accepted so the
// server can still start; every handshake is then rejected as misconfigured.
func NewAuthenticator(secret string, clock clockwork.Clock) *Authenticator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Authenticator{secret: []byte(secret), clock: clock}
}

// Authenticate validates token and returns the member identity, or an *AuthError.
func (a *Authenticator) Authenticate(token string) (Identity, error) {
	if strings.TrimSpace(token) == "" {
		return Identity{}, newAuthError(KindMissingToken, nil)
	}
	if len(a.secret) == 0 {
		return Identity{}, newAuthError(KindMisconfigured, errors.New("signing secret not configured"))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, newAuthError(KindExpiredToken, err)
		}
		return Identity{}, newAuthError(KindInvalidToken, err)
	}
	if claims.UserID == "" {
		return Identity{}, newAuthError(KindInvalidToken, errors.New("token has no userId"))
	}

	name := claims.Name
	if name == "" {
		name = claims.UserID
	}
	return Identity{
		UserID:      claims.UserID,
		DisplayName: name,
		AvatarRef:   AvatarFor(claims.UserID),
	}, nil
}

// TokenFromRequest extracts the handshake token from the "token" query parameter,
// falling back to an "Authorization: Bearer" header.
func TokenFromRequest(r *http.Request) string {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Issuer mints handshake tokens. Production tokens come from the web session;
// this is used by local tooling and tests.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewIssuer creates an Issuer. A zero ttl means DefaultTokenTTL.
func NewIssuer(secret string, ttl time.Duration, clock clockwork.Clock) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Issue signs a token for the given user.
func (i *Issuer) Issue(userID, name string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	now := i.clock.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
