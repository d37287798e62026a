// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/launchpad/internal/ledger"
	"github.com/carterperez-dev/launchpad/internal/upvote"
)

type SignInRequest struct {
	Credential    string         `json:"credential"     validate:"required,max=8192"`
	PendingUpvote *upvote.Intent `json:"pending_upvote,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AccessToken identifies the bearer token of the current request.
type AccessToken struct {
	ID        string
	ExpiresAt time.Time
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserResponse struct {
	Email       string            `json:"email"`
	DisplayName string            `json:"display_name"`
	AvatarURL   string            `json:"avatar_url,omitempty"`
	Role        ledger.Role       `json:"role"`
	Membership  ledger.Membership `json:"membership"`
	CreatedAt   time.Time         `json:"created_at"`
}

type UpvoteOutcome struct {
	ProductID   string `json:"product_id"`
	State       string `json:"state"`
	UpvoteCount int    `json:"upvote_count"`
}

type AuthResponse struct {
	User      UserResponse   `json:"user"`
	Tokens    TokenResponse  `json:"tokens"`
	SessionID string         `json:"session_id"`
	Upvote    *UpvoteOutcome `json:"upvote,omitempty"`
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsCurrent bool      `json:"is_current"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

func toUserResponse(u *ledger.User) UserResponse {
	return UserResponse{
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
		Membership:  u.Membership,
		CreatedAt:   u.CreatedAt,
	}
}
