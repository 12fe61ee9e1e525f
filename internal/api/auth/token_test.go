package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/go-marketplace/config"
	"github.com/tradepost/go-marketplace/internal/types"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey: "test-secret-key",
		Algorithm: "HS256",
		Issuer:    "test-issuer",
		TokenTTL:  time.Hour,
	}
}

func testUser() *types.User {
	return &types.User{
		ID:             "user-123",
		Name:           "alice",
		Phone:          "13312345678",
		Role:           types.RoleUser,
		Email:          "alice@example.com",
		ProfilePicture: "alice.png",
		PasswordHash:   "$2a$10$should-never-leave-the-db",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)
	verifier, err := NewTokenVerifier(testJWTConfig())
	require.NoError(t, err)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "alice", claims.UserName)
	assert.Equal(t, "13312345678", claims.Phone)
	assert.Equal(t, types.RoleUser, claims.Role)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice.png", claims.ProfilePicture)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenNeverCarriesPasswordHash(t *testing.T) {
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)

	user := testUser()
	token, err := issuer.Issue(user)
	require.NoError(t, err)

	// The payload is base64 of plain JSON, so a leaked hash would appear in
	// the decoded segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	require.NoError(t, err)
	assert.NotContains(t, string(payload), user.PasswordHash)
	assert.NotContains(t, string(payload), "hash")
}

func TestTokenExpiry(t *testing.T) {
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)
	verifier, err := NewTokenVerifier(testJWTConfig())
	require.NoError(t, err)

	issuedAt := time.Now()
	issuer.now = func() time.Time { return issuedAt }

	token, err := issuer.IssueWithTTL(testUser(), time.Minute)
	require.NoError(t, err)

	t.Run("ValidBeforeExpiry", func(t *testing.T) {
		verifier.now = func() time.Time { return issuedAt.Add(30 * time.Second) }
		_, err := verifier.Verify(token)
		assert.NoError(t, err)
	})

	t.Run("RejectedAfterExpiry", func(t *testing.T) {
		verifier.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
		_, err := verifier.Verify(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})
}

func TestTokenRejection(t *testing.T) {
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)
	verifier, err := NewTokenVerifier(testJWTConfig())
	require.NoError(t, err)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	t.Run("WrongKey", func(t *testing.T) {
		otherCfg := testJWTConfig()
		otherCfg.SecretKey = "a-different-secret"
		otherVerifier, err := NewTokenVerifier(otherCfg)
		require.NoError(t, err)

		_, err = otherVerifier.Verify(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("TamperedPayload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)

		payload, err := jwt.NewParser().DecodeSegment(parts[1])
		require.NoError(t, err)
		tampered := strings.Replace(string(payload), `"user"`, `"admin"`, 1)
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

		_, err = verifier.Verify(strings.Join(parts, "."))
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := verifier.Verify("not.a.token")
		require.Error(t, err)
		assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		otherCfg := testJWTConfig()
		otherCfg.Issuer = "somebody-else"
		otherIssuer, err := NewTokenIssuer(otherCfg)
		require.NoError(t, err)

		foreign, err := otherIssuer.Issue(testUser())
		require.NoError(t, err)

		_, err = verifier.Verify(foreign)
		assert.Error(t, err)
	})
}

func TestAlgorithmConfusionRejected(t *testing.T) {
	verifier, err := NewTokenVerifier(testJWTConfig())
	require.NoError(t, err)

	// A token signed with alg "none" must fail regardless of its payload.
	claims := &types.Claims{
		UserID: "user-123",
		Role:   types.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.Verify(unsigned)
	assert.Error(t, err)
}

func TestNewTokenIssuerValidation(t *testing.T) {
	t.Run("EmptySecret", func(t *testing.T) {
		cfg := testJWTConfig()
		cfg.SecretKey = ""
		_, err := NewTokenIssuer(cfg)
		assert.Error(t, err)
	})

	t.Run("NonHMACAlgorithm", func(t *testing.T) {
		cfg := testJWTConfig()
		cfg.Algorithm = "RS256"
		_, err := NewTokenIssuer(cfg)
		assert.Error(t, err)
	})

	t.Run("UnknownAlgorithm", func(t *testing.T) {
		cfg := testJWTConfig()
		cfg.Algorithm = "XX999"
		_, err := NewTokenIssuer(cfg)
		assert.Error(t, err)
	})
}
