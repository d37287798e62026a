// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type UpdateMeRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=100"`
	AvatarURL   *string `json:"avatar_url,omitempty"   validate:"omitempty,url,max=2048"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=moderator admin"`
}

type UserResponse struct {
	Email        string            `json:"email"`
	DisplayName  string            `json:"display_name"`
	AvatarURL    string            `json:"avatar_url,omitempty"`
	Role         ledger.Role       `json:"role"`
	Membership   ledger.Membership `json:"membership"`
	SubscribedAt *time.Time        `json:"subscribed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *ledger.User) UserResponse {
	return UserResponse{
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		AvatarURL:    u.AvatarURL,
		Role:         u.Role,
		Membership:   u.Membership,
		SubscribedAt: u.SubscribedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func ToUserResponseList(users []ledger.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
