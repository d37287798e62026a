// AngelaMos | 2026
// access.go

package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/launchpad/internal/core"
)

// RequireModerator loads the actor and checks the role currently stored in
// the ledger, not the one captured in a session token.
func RequireModerator(ctx context.Context, tx Tx, email string) (*User, error) {
	user, err := loadActor(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if !user.CanModerate() {
		return nil, fmt.Errorf("moderator role required: %w", core.ErrForbidden)
	}
	return user, nil
}

func RequireAdmin(ctx context.Context, tx Tx, email string) (*User, error) {
	user, err := loadActor(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, fmt.Errorf("admin role required: %w", core.ErrForbidden)
	}
	return user, nil
}

func loadActor(ctx context.Context, tx Tx, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("load actor: %w", core.ErrUnauthorized)
	}

	user, err := tx.GetUser(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("unknown actor: %w", core.ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
