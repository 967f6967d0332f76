// Package tokens issues and revokes signed access tokens.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"rentloop/internal/config"
	"rentloop/internal/models"
	"rentloop/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRevocationUnavailable is returned when a revocation is requested but the
// token version store cannot be reached. Callers must treat this as a hard
// failure: a ban or delete without revocation leaves live sessions behind.
var ErrRevocationUnavailable = errors.New("token revocation store unavailable")

// Revoker invalidates all outstanding tokens for a principal.
type Revoker interface {
	RevokeAll(ctx context.Context, ptype models.PrincipalType, id uint) error
}

// Service issues tokens and tracks per-principal token versions. Bumping the
// version invalidates every token issued before the bump.
type Service struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
}

// NewService creates a token service backed by the given Redis client. A nil
// client disables revocation (versions are pinned at 1).
func NewService(cfg *config.Config, rdb *redis.Client) *Service {
	return &Service{
		secret: []byte(cfg.JWTSecret),
		ttl:    time.Duration(cfg.TokenTTLHours) * time.Hour,
		rdb:    rdb,
	}
}

func versionKey(ptype models.PrincipalType, id uint) string {
	return fmt.Sprintf("tokens:ver:%s:%d", ptype, id)
}

// Issue signs a new access token for the principal, stamped with the current
// token version.
func (s *Service) Issue(ctx context.Context, p models.Principal) (string, error) {
	ver, err := s.Version(ctx, p.PrincipalType(), p.PrincipalID())
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(p.PrincipalID()), 10),
		"typ": string(p.PrincipalType()),
		"ver": ver,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Version returns the current token version for a principal. Versions start
// at 1; a missing key means nothing has been revoked yet.
func (s *Service) Version(ctx context.Context, ptype models.PrincipalType, id uint) (int64, error) {
	if s.rdb == nil {
		return 1, nil
	}

	val, err := s.rdb.Get(ctx, versionKey(ptype, id)).Result()
	if errors.Is(err, redis.Nil) {
		return 1, nil
	}
	if err != nil {
		// Reads fail open so a cache outage does not lock everyone out.
		observability.RedisErrorRate.WithLabelValues("tokens_version").Inc()
		return 1, nil
	}

	ver, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 1, nil
	}
	return ver, nil
}

// CheckVersion reports whether a token stamped with tokenVersion is still
// current for the principal.
func (s *Service) CheckVersion(ctx context.Context, ptype models.PrincipalType, id uint, tokenVersion int64) (bool, error) {
	current, err := s.Version(ctx, ptype, id)
	if err != nil {
		return false, err
	}
	return tokenVersion == current, nil
}

// RevokeAll invalidates every outstanding token for the principal by bumping
// the version. Unlike reads, revocation fails closed when the store is down.
func (s *Service) RevokeAll(ctx context.Context, ptype models.PrincipalType, id uint) error {
	if s.rdb == nil {
		return ErrRevocationUnavailable
	}

	key := versionKey(ptype, id)
	// A fresh key jumps from the implicit version 1 to 2.
	if err := s.rdb.SetNX(ctx, key, 1, 0).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("tokens_revoke").Inc()
		return fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	if err := s.rdb.Incr(ctx, key).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("tokens_revoke").Inc()
		return fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}

	observability.TokensRevoked.WithLabelValues(string(ptype)).Inc()
	return nil
}
