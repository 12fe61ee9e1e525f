package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tradepost/go-marketplace/config"
	"github.com/tradepost/go-marketplace/internal/types"
)

// TokenIssuer mints signed, time-bounded identity assertions. The signing
// algorithm is fixed at construction and never negotiated per call.
type TokenIssuer struct {
	secretKey []byte
	method    jwt.SigningMethod
	issuer    string
	ttl       time.Duration

	// now is swappable for tests.
	now func() time.Time
}

func NewTokenIssuer(cfg config.JWTConfig) (*TokenIssuer, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("jwt secret key cannot be empty")
	}
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", cfg.Algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", cfg.Algorithm)
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{
		secretKey: []byte(cfg.SecretKey),
		method:    method,
		issuer:    cfg.Issuer,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// Issue builds a token carrying the user's public fields. The password hash
// is never embedded.
func (i *TokenIssuer) Issue(user *types.User) (string, error) {
	return i.IssueWithTTL(user, i.ttl)
}

func (i *TokenIssuer) IssueWithTTL(user *types.User, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &types.Claims{
		UserID:         user.ID,
		UserName:       user.Name,
		Phone:          user.Phone,
		Role:           user.Role,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(i.method, claims)
	signed, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// TokenVerifier validates tokens against the single configured algorithm and
// key. Failures keep their cause (malformed, bad signature, expired) so the
// middleware can log it, but the HTTP boundary collapses them all to the same
// generic rejection.
type TokenVerifier struct {
	secretKey []byte
	algorithm string
	issuer    string

	now func() time.Time
}

func NewTokenVerifier(cfg config.JWTConfig) (*TokenVerifier, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("jwt secret key cannot be empty")
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = "HS256"
	}
	return &TokenVerifier{
		secretKey: []byte(cfg.SecretKey),
		algorithm: alg,
		issuer:    cfg.Issuer,
		now:       time.Now,
	}, nil
}

// Verify parses and validates tokenString and returns the embedded claims.
// WithValidMethods pins the algorithm from the verifier's side, so a token
// whose header claims a different algorithm is rejected before signature
// checking (algorithm-confusion defense).
func (v *TokenVerifier) Verify(tokenString string) (*types.Claims, error) {
	claims := &types.Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.algorithm}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token verification failed: %w", jwt.ErrTokenUnverifiable)
	}
	return claims, nil
}
