// AngelaMos | 2026
// identity.go

package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/launchpad/internal/config"
	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

// Identity is what the identity provider vouches for after verification.
type Identity struct {
	Email       string
	DisplayName string
	PhotoURL    string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

func NewIdentityVerifier(cfg config.IdentityConfig) (IdentityVerifier, error) {
	switch cfg.Mode {
	case config.IdentityModeJWKS:
		return NewJWKSVerifier(cfg), nil
	case config.IdentityModeDev:
		return DevVerifier{}, nil
	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.Mode)
	}
}

// JWKSVerifier checks provider ID tokens against a periodically refreshed
// key set. An unknown key id forces a refetch, at most once per minInterval.
type JWKSVerifier struct {
	url         string
	issuer      string
	audience    string
	refresh     time.Duration
	minInterval time.Duration

	mu        sync.Mutex
	set       jwk.Set
	fetchedAt time.Time
}

func NewJWKSVerifier(cfg config.IdentityConfig) *JWKSVerifier {
	refresh := cfg.RefreshInterval
	if refresh <= 0 {
		refresh = time.Hour
	}
	return &JWKSVerifier{
		url:         cfg.JWKSURL,
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		refresh:     refresh,
		minInterval: 30 * time.Second,
	}
}

func (v *JWKSVerifier) keySet(ctx context.Context, force bool) (jwk.Set, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	age := time.Since(v.fetchedAt)
	if v.set != nil && age < v.refresh && (!force || age < v.minInterval) {
		return v.set, nil
	}

	set, err := jwk.Fetch(ctx, v.url)
	if err != nil {
		if v.set != nil {
			return v.set, nil
		}
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	v.set = set
	v.fetchedAt = time.Now()
	return set, nil
}

func (v *JWKSVerifier) parse(credential string, set jwk.Set) (jwt.Token, error) {
	opts := []jwt.ParseOption{
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(30 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	return jwt.Parse([]byte(credential), opts...)
}

func (v *JWKSVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, fmt.Errorf("verify identity: empty credential: %w", core.ErrUnauthorized)
	}

	set, err := v.keySet(ctx, false)
	if err != nil {
		return nil, err
	}

	token, err := v.parse(credential, set)
	if err != nil {
		// the provider may have rotated keys since the last fetch
		fresh, ferr := v.keySet(ctx, true)
		if ferr != nil || fresh == set {
			return nil, fmt.Errorf("verify identity: %w", core.ErrUnauthorized)
		}
		if token, err = v.parse(credential, fresh); err != nil {
			return nil, fmt.Errorf("verify identity: %w", core.ErrUnauthorized)
		}
	}

	var email string
	if err := token.Get("email", &email); err != nil || email == "" {
		return nil, fmt.Errorf("verify identity: missing email: %w", core.ErrUnauthorized)
	}

	var verified bool
	if err := token.Get("email_verified", &verified); err != nil || !verified {
		return nil, fmt.Errorf("verify identity: email not verified: %w", core.ErrUnauthorized)
	}

	identity := &Identity{Email: ledger.NormalizeEmail(email)}
	//nolint:errcheck // optional profile claims
	_ = token.Get("name", &identity.DisplayName)
	//nolint:errcheck // optional profile claims
	_ = token.Get("picture", &identity.PhotoURL)

	return identity, nil
}

// DevVerifier trusts the credential as an email address. Configuration
// refuses it in production.
type DevVerifier struct{}

func (DevVerifier) Verify(_ context.Context, credential string) (*Identity, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(credential))
	if err != nil {
		return nil, fmt.Errorf("verify identity: %w", core.ErrUnauthorized)
	}

	email := ledger.NormalizeEmail(addr.Address)
	name := addr.Name
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	return &Identity{Email: email, DisplayName: name}, nil
}
