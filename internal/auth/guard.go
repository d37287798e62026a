// AngelaMos | 2026
// guard.go

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/middleware"
)

// TokenGuard verifies access tokens and rejects those whose token id or
// session was revoked before expiry. Redis being unreachable lets the token
// through; access tokens are short lived.
type TokenGuard struct {
	jwt   *JWTManager
	redis *redis.Client
}

func NewTokenGuard(jwt *JWTManager, redisClient *redis.Client) *TokenGuard {
	return &TokenGuard{jwt: jwt, redis: redisClient}
}

func (g *TokenGuard) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := g.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if g.redis == nil {
		return claims, nil
	}

	keys := []string{blacklistKey(claims.TokenID)}
	if claims.SessionID != "" {
		keys = append(keys, revokedSessionKey(claims.SessionID))
	}

	n, err := g.redis.Exists(ctx, keys...).Result()
	if err != nil {
		slog.Warn("token revocation check skipped", "error", err)
		return claims, nil
	}
	if n > 0 {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

var _ middleware.TokenVerifier = (*TokenGuard)(nil)
