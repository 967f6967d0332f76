package tokens

import (
	"context"
	"testing"

	"rentloop/internal/config"
	"rentloop/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(&config.Config{
		JWTSecret:     "test-secret-key-12345678901234567890123456789012",
		TokenTTLHours: 1,
	}, rdb)
}

func TestIssue_CarriesPrincipalClaims(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	admin := &models.Admin{ID: 5, Role: models.AdminRoleSuper, Status: models.AdminStatusActive}
	signed, err := svc.Issue(ctx, admin)
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		return svc.secret, nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)

	assert.Equal(t, "5", claims["sub"])
	assert.Equal(t, "admin", claims["typ"])
	assert.Equal(t, float64(1), claims["ver"])
	assert.NotEmpty(t, claims["jti"])
}

func TestRevokeAll_InvalidatesOldTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := &models.User{ID: 9, Active: true}

	ok, err := svc.CheckVersion(ctx, models.PrincipalTypeUser, 9, 1)
	require.NoError(t, err)
	assert.True(t, ok, "version 1 is current before any revocation")

	require.NoError(t, svc.RevokeAll(ctx, models.PrincipalTypeUser, 9))

	ok, err = svc.CheckVersion(ctx, models.PrincipalTypeUser, 9, 1)
	require.NoError(t, err)
	assert.False(t, ok, "old version rejected after revocation")

	// Newly issued tokens carry the bumped version.
	signed, err := svc.Issue(ctx, user)
	require.NoError(t, err)
	token, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		return svc.secret, nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(2), claims["ver"])

	ok, err = svc.CheckVersion(ctx, models.PrincipalTypeUser, 9, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRevokeAll_IsPerPrincipal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RevokeAll(ctx, models.PrincipalTypeAdmin, 1))

	// Same ID under a different principal type is unaffected.
	ok, err := svc.CheckVersion(ctx, models.PrincipalTypeUser, 1, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRevokeAll_FailsClosedWithoutStore(t *testing.T) {
	svc := NewService(&config.Config{JWTSecret: "s", TokenTTLHours: 1}, nil)

	err := svc.RevokeAll(context.Background(), models.PrincipalTypeUser, 1)
	assert.ErrorIs(t, err, ErrRevocationUnavailable)
}
