// AngelaMos | 2026
// entity.go

package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is stored explicitly; a plain user carries RoleNone rather than an
// empty or NULL column.
type Role string

const (
	RoleNone      Role = "none"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleNone, "":
		return RoleNone, true
	case RoleModerator:
		return RoleModerator, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

type Membership string

const (
	MembershipFree   Membership = "free"
	MembershipActive Membership = "active"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusRejected
}

type User struct {
	Email          string     `db:"email"`
	DisplayName    string     `db:"display_name"`
	AvatarURL      string     `db:"avatar_url"`
	Role           Role       `db:"role"`
	Membership     Membership `db:"membership"`
	SubscriptionID *string    `db:"subscription_id"`
	SubscribedAt   *time.Time `db:"subscribed_at"`
	AmountPaid     *int64     `db:"amount_paid_cents"`
	CouponCode     *string    `db:"coupon_code"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) CanModerate() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

func (u *User) IsPremium() bool {
	return u.Membership == MembershipActive
}

type Subscription struct {
	ID          string
	AmountCents int64
	CouponCode  string
	StartedAt   time.Time
}

type Product struct {
	ID           string     `db:"id"`
	Slug         string     `db:"slug"`
	Name         string     `db:"name"`
	ImageURL     string     `db:"image_url"`
	Description  string     `db:"description"`
	ExternalLink string     `db:"external_link"`
	Tags         Tags       `db:"tags"`
	OwnerEmail   string     `db:"owner_email"`
	Status       Status     `db:"status"`
	Featured     bool       `db:"featured"`
	UpvoteCount  int        `db:"upvote_count"`
	AcceptedAt   *time.Time `db:"accepted_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

type Upvote struct {
	ProductID    string    `db:"product_id"`
	UserEmail    string    `db:"user_email"`
	ProductName  string    `db:"product_name"`
	ProductImage string    `db:"product_image"`
	CreatedAt    time.Time `db:"created_at"`
}

type Review struct {
	ID            string    `db:"id"`
	ProductID     string    `db:"product_id"`
	ReviewerEmail string    `db:"reviewer_email"`
	ReviewerName  string    `db:"reviewer_name"`
	Rating        float64   `db:"rating"`
	Text          string    `db:"text"`
	CreatedAt     time.Time `db:"created_at"`
}

type Report struct {
	ID            string    `db:"id"`
	ProductID     string    `db:"product_id"`
	ReporterEmail string    `db:"reporter_email"`
	Reason        string    `db:"reason"`
	ProductName   string    `db:"product_name"`
	OwnerEmail    string    `db:"owner_email"`
	CreatedAt     time.Time `db:"created_at"`
}

// ReportedProduct aggregates reports by product id. The product may no
// longer exist; the snapshot fields come from the newest report.
type ReportedProduct struct {
	ProductID     string    `db:"product_id"`
	ProductName   string    `db:"product_name"`
	OwnerEmail    string    `db:"owner_email"`
	ReportCount   int       `db:"report_count"`
	LatestReport  time.Time `db:"latest_report"`
	ProductExists bool      `db:"product_exists"`
}

type Coupon struct {
	Code           string    `db:"code"`
	DiscountAmount int       `db:"discount_amount"`
	ExpiryDate     time.Time `db:"expiry_date"`
	Description    string    `db:"description"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Tags is an ordered, de-duplicated list of non-empty labels persisted as a
// JSON array.
type Tags []string

func NormalizeTags(raw []string) Tags {
	seen := make(map[string]struct{}, len(raw))
	out := make(Tags, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (t Tags) Contains(tag string) bool {
	for _, v := range t {
		if strings.EqualFold(v, tag) {
			return true
		}
	}
	return false
}

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	*t = out
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
