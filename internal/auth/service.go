// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
	"github.com/carterperez-dev/launchpad/internal/upvote"
)

var ErrTokenReuse = errors.New("token reuse detected")

type UserProvider interface {
	EnsureUser(ctx context.Context, email, displayName, avatarURL string) (*ledger.User, error)
	GetByEmail(ctx context.Context, email string) (*ledger.User, error)
}

// IntentReplayer applies an upvote the visitor asked for before signing in.
type IntentReplayer interface {
	Replay(ctx context.Context, userEmail string, intent *upvote.Intent) (*upvote.Result, error)
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	identity     IdentityVerifier
	userProvider UserProvider
	replayer     IntentReplayer
	redis        *redis.Client
	now          func() time.Time
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	identity IdentityVerifier,
	userProvider UserProvider,
	replayer IntentReplayer,
	redisClient *redis.Client,
) *Service {
	return &Service{
		repo:         repo,
		jwt:          jwt,
		identity:     identity,
		userProvider: userProvider,
		replayer:     replayer,
		redis:        redisClient,
		now:          time.Now,
	}
}

// SignIn exchanges a provider credential for a session. A pending upvote
// intent is replayed once the user exists; a failed replay does not fail
// the sign-in.
func (s *Service) SignIn(
	ctx context.Context,
	credential string,
	intent *upvote.Intent,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	identity, err := s.identity.Verify(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	user, err := s.userProvider.EnsureUser(ctx, identity.Email, identity.DisplayName, identity.PhotoURL)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	resp, err := s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
	if err != nil {
		return nil, err
	}

	if !intent.Empty() && s.replayer != nil {
		result, err := s.replayer.Replay(ctx, user.Email, intent)
		if err != nil {
			slog.Warn("pending upvote dropped",
				"email", user.Email,
				"product_id", intent.ProductID,
				"error", err,
			)
		} else if result != nil {
			resp.Upvote = &UpvoteOutcome{
				ProductID:   result.ProductID,
				State:       string(result.State),
				UpvoteCount: result.Count,
			}
		}
	}

	slog.Info("user signed in", "email", user.Email, "session_id", resp.SessionID)
	return resp, nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		return nil, s.rejectReuse(ctx, storedToken)
	}

	if !storedToken.IsValid(s.now()) {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByEmail(ctx, storedToken.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.createAuthResponse(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		storedToken,
	)
}

func (s *Service) Logout(
	ctx context.Context,
	refreshToken, userEmail string,
	access *AccessToken,
) error {
	if access != nil {
		if err := s.RevokeAccessToken(ctx, access.ID, access.ExpiresAt); err != nil {
			slog.Warn("access token not blacklisted", "error", err)
		}
	}

	if refreshToken == "" {
		return nil
	}

	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if storedToken.UserEmail != userEmail {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.revokeSessions(ctx, storedToken.FamilyID)

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userEmail string) error {
	active, err := s.repo.ListActiveSessions(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("get sessions: %w", err)
	}

	if err := s.repo.RevokeAllForUser(ctx, userEmail); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	families := make([]string, 0, len(active))
	for _, t := range active {
		families = append(families, t.FamilyID)
	}
	s.revokeSessions(ctx, families...)

	slog.Info("all sessions revoked", "email", userEmail, "sessions", len(families))
	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	if s.redis == nil || jti == "" {
		return nil
	}

	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

// revokeSessions marks session ids so access tokens already issued for them
// stop verifying before they expire.
func (s *Service) revokeSessions(ctx context.Context, sessionIDs ...string) {
	if s.redis == nil || len(sessionIDs) == 0 {
		return
	}

	ttl := s.jwt.AccessTokenTTL()
	pipe := s.redis.Pipeline()
	for _, id := range sessionIDs {
		pipe.Set(ctx, revokedSessionKey(id), "1", ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("session revocation not recorded", "error", err)
	}
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userEmail, currentSessionID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActiveSessions(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.FamilyID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
			IsCurrent: t.FamilyID == currentSessionID,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userEmail, sessionID string,
) error {
	active, err := s.repo.ListActiveSessions(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	owned := false
	for _, t := range active {
		if t.FamilyID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	if err := s.repo.RevokeByFamilyID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.revokeSessions(ctx, sessionID)

	return nil
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	userEmail string,
) (*UserResponse, error) {
	if userEmail == "" {
		return nil, fmt.Errorf("get current user: %w", core.ErrUnauthorized)
	}

	user, err := s.userProvider.GetByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *ledger.User,
	userAgent, ipAddress, familyID string,
	previous *RefreshToken,
) (*AuthResponse, error) {
	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	accessToken, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		Email:      user.Email,
		Role:       string(user.Role),
		Membership: string(user.Membership),
		SessionID:  refreshData.FamilyID,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshTokenEntity := &RefreshToken{
		ID:        uuid.New().String(),
		UserEmail: user.Email,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	if previous == nil {
		err = s.repo.Create(ctx, refreshTokenEntity)
	} else {
		err = s.repo.Rotate(ctx, previous.ID, refreshTokenEntity)
		if errors.Is(err, core.ErrConflict) {
			return nil, s.rejectReuse(ctx, previous)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	ttl := s.jwt.AccessTokenTTL()
	return &AuthResponse{
		User:      toUserResponse(user),
		SessionID: refreshData.FamilyID,
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl.Seconds()),
			ExpiresAt:    s.now().Add(ttl),
		},
	}, nil
}

// rejectReuse kills the whole session once a spent refresh token shows up
// again.
func (s *Service) rejectReuse(ctx context.Context, token *RefreshToken) error {
	if err := s.repo.RevokeByFamilyID(ctx, token.FamilyID); err != nil {
		slog.Error("revoke reused token family",
			"session_id", token.FamilyID,
			"error", err,
		)
	}
	s.revokeSessions(ctx, token.FamilyID)

	slog.Warn("refresh token reuse detected",
		"email", token.UserEmail,
		"session_id", token.FamilyID,
	)
	return ErrTokenReuse
}

func blacklistKey(jti string) string {
	return "auth:blacklist:" + jti
}

func revokedSessionKey(sessionID string) string {
	return "auth:revoked_session:" + sessionID
}
