package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	sessiondomain "care-link-platform/backend/internal/session/domain"
	userdomain "care-link-platform/backend/internal/user/domain"
)

var (
	// ErrInvalidToken is returned when a token is malformed, incorrectly signed,
	// or carries the wrong issuer/audience.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is well-formed and correctly
	// signed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims holds JWT claims for the access credential. The session ID ties
// the stateless credential back to the server-side session it was minted for.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

// Identity is the verified content of an access credential.
type Identity struct {
	UserID    string
	Role      userdomain.Role
	SessionID sessiondomain.SessionID
}

// TokenProvider mints and verifies HS256 access credentials. The signing key
// is symmetric, held only by this service, and injected at construction.
type TokenProvider struct {
	key       []byte
	issuer    string
	audience  string
	accessTTL time.Duration
	nowF      func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with key. issuer and
// audience are set on claims and checked on verification. accessTTL is the
// default credential lifetime used by Mint.
func NewTokenProvider(key []byte, issuer, audience string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		key:       key,
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// Mint issues a short-lived access credential for the given identity and
// session. ttl <= 0 falls back to the provider default.
func (p *TokenProvider) Mint(userID string, role userdomain.Role, sessionID sessiondomain.SessionID, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = p.accessTTL
	}
	now := p.nowF()
	expiresAt := now.Add(ttl)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:      string(role),
		SessionID: sessionID.String(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(p.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates an access credential (signature, exp, iss, aud).
// It is a pure function of the token and the key; session liveness is a
// separate concern owned by the session authority.
func (p *TokenProvider) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.key, nil
	}, jwt.WithTimeFunc(p.nowF))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	sid, err := sessiondomain.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	role := userdomain.Role(claims.Role)
	if !role.Valid() {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: claims.Subject, Role: role, SessionID: sid}, nil
}
