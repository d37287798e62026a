// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/launchpad/internal/auth"
	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type Service struct {
	store ledger.Store
}

func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// EnsureUser creates the user on first sign-in and refreshes the profile
// fields the identity provider owns on later ones. Role and membership are
// never touched here.
func (s *Service) EnsureUser(
	ctx context.Context,
	email, displayName, avatarURL string,
) (*ledger.User, error) {
	email = ledger.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("ensure user: email required: %w", core.ErrInvalidInput)
	}

	var user *ledger.User
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		existing, err := tx.GetUser(ctx, email)
		if errors.Is(err, core.ErrNotFound) {
			user = &ledger.User{
				Email:       email,
				DisplayName: displayName,
				AvatarURL:   avatarURL,
				Role:        ledger.RoleNone,
				Membership:  ledger.MembershipFree,
			}
			return tx.CreateUser(ctx, user)
		}
		if err != nil {
			return err
		}

		if existing.DisplayName != displayName || existing.AvatarURL != avatarURL {
			if err := tx.UpdateUserProfile(ctx, email, displayName, avatarURL); err != nil {
				return err
			}
			existing.DisplayName = displayName
			existing.AvatarURL = avatarURL
		}
		user = existing
		return nil
	})
	if errors.Is(err, core.ErrDuplicateKey) {
		// concurrent first sign-in won the insert
		return s.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	return user, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*ledger.User, error) {
	email = ledger.NormalizeEmail(email)

	var user *ledger.User
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, email)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (s *Service) GetMe(ctx context.Context, email string) (*ledger.User, error) {
	if email == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.GetByEmail(ctx, email)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	email string,
	req UpdateMeRequest,
) (*ledger.User, error) {
	if email == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}
	email = ledger.NormalizeEmail(email)

	var user *ledger.User
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, email)
		if err != nil {
			return err
		}

		if req.DisplayName != nil {
			user.DisplayName = strings.TrimSpace(*req.DisplayName)
		}
		if req.AvatarURL != nil {
			user.AvatarURL = strings.TrimSpace(*req.AvatarURL)
		}

		return tx.UpdateUserProfile(ctx, email, user.DisplayName, user.AvatarURL)
	})
	if err != nil {
		return nil, fmt.Errorf("update me: %w", err)
	}

	return user, nil
}

// ChangeRole grants or revokes moderator/admin. Requesting the role the
// target already holds removes it.
func (s *Service) ChangeRole(
	ctx context.Context,
	actorEmail, targetEmail, requested string,
) (*ledger.User, error) {
	targetEmail = ledger.NormalizeEmail(targetEmail)

	var target *ledger.User
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		actor, err := ledger.RequireAdmin(ctx, tx, actorEmail)
		if err != nil {
			return err
		}

		target, err = tx.GetUser(ctx, targetEmail)
		if err != nil {
			return err
		}

		role, ok := ledger.ParseRole(requested)
		if !ok || role == ledger.RoleNone {
			return fmt.Errorf("role %q: %w", requested, core.ErrInvalidInput)
		}

		next := NextRole(target.Role, role)

		if actor.Email == target.Email && target.IsAdmin() && next != ledger.RoleAdmin {
			return core.ErrSelfDemotionForbidden
		}
		if role == ledger.RoleModerator && target.IsAdmin() {
			return fmt.Errorf("moderator grant cannot change an admin: %w", core.ErrForbidden)
		}

		if err := tx.UpdateUserRole(ctx, target.Email, next); err != nil {
			return err
		}
		target.Role = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	core.AddSpanEvent(ctx, "user.role_changed",
		attribute.String("target", target.Email),
		attribute.String("role", string(target.Role)),
	)
	slog.Info("user role changed",
		"actor", ledger.NormalizeEmail(actorEmail),
		"target", target.Email,
		"role", target.Role,
	)

	return target, nil
}

// NextRole is the role a target ends up with when requested is applied.
func NextRole(current, requested ledger.Role) ledger.Role {
	if current == requested {
		return ledger.RoleNone
	}
	return requested
}

func (s *Service) GetUser(ctx context.Context, actorEmail, email string) (*ledger.User, error) {
	var user *ledger.User
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireAdmin(ctx, tx, actorEmail); err != nil {
			return err
		}
		var err error
		user, err = tx.GetUser(ctx, ledger.NormalizeEmail(email))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	actorEmail string,
	params ListUsersParams,
) ([]ledger.User, int, error) {
	params.Normalize()

	filter := ledger.UserFilter{
		Search: strings.TrimSpace(params.Search),
		Limit:  params.PageSize,
		Offset: params.Offset(),
	}
	if params.Role != "" {
		role, ok := ledger.ParseRole(params.Role)
		if !ok {
			return nil, 0, fmt.Errorf("list users: role %q: %w", params.Role, core.ErrInvalidInput)
		}
		filter.Role = role
	}

	var (
		users []ledger.User
		total int
	)
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireAdmin(ctx, tx, actorEmail); err != nil {
			return err
		}
		var err error
		users, total, err = tx.ListUsers(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

var _ auth.UserProvider = (*Service)(nil)
