// AngelaMos | 2026
// store.go

package ledger

import (
	"context"
	"sort"
	"time"
)

// Store is the durable ledger. Every multi-record command runs inside
// InTx; a returned error rolls back all writes made through the Tx.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	UserTx
	ProductTx
	UpvoteTx
	ReviewTx
	ReportTx
	CouponTx
}

type UserTx interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, email string) (*User, error)
	// LockUser reads the user and holds its row lock until the surrounding
	// transaction ends. Commands checked against per-owner totals take it
	// first so they serialize.
	LockUser(ctx context.Context, email string) (*User, error)
	UpdateUserProfile(ctx context.Context, email, displayName, avatarURL string) error
	UpdateUserRole(ctx context.Context, email string, role Role) error
	ActivateMembership(ctx context.Context, email string, sub Subscription) error
	ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error)
}

type ProductTx interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	// LockProduct reads the product and holds its row lock until the
	// surrounding transaction ends.
	LockProduct(ctx context.Context, id string) (*Product, error)
	UpdateProductContent(ctx context.Context, product *Product) error
	SetProductModeration(ctx context.Context, id string, status Status, featured bool, acceptedAt *time.Time) error
	AdjustUpvoteCount(ctx context.Context, id string, delta int) (int, error)
	SetUpvoteCount(ctx context.Context, id string, count int) error
	DeleteProduct(ctx context.Context, id string) error
	CountProductsByOwner(ctx context.Context, ownerEmail string) (int, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int, error)
	ListProductIDs(ctx context.Context) ([]string, error)
}

type UpvoteTx interface {
	GetUpvote(ctx context.Context, productID, userEmail string) (*Upvote, error)
	InsertUpvote(ctx context.Context, upvote *Upvote) error
	DeleteUpvote(ctx context.Context, productID, userEmail string) error
	CountUpvotes(ctx context.Context, productID string) (int, error)
	DeleteUpvotesForProduct(ctx context.Context, productID string) (int, error)
	ListUpvotesByUser(ctx context.Context, userEmail, search string) ([]Upvote, error)
}

type ReviewTx interface {
	InsertReview(ctx context.Context, review *Review) error
	ListReviews(ctx context.Context, productID string) ([]Review, error)
}

type ReportTx interface {
	InsertReport(ctx context.Context, report *Report) error
	ListReports(ctx context.Context, productID string) ([]Report, error)
	CountReports(ctx context.Context, productID string) (int, error)
	ListReportedProducts(ctx context.Context, search string) ([]ReportedProduct, error)
}

type CouponTx interface {
	CreateCoupon(ctx context.Context, coupon *Coupon) error
	GetCoupon(ctx context.Context, code string) (*Coupon, error)
	UpdateCoupon(ctx context.Context, coupon *Coupon) error
	DeleteCoupon(ctx context.Context, code string) error
	ListCoupons(ctx context.Context) ([]Coupon, error)
}

type ProductOrder int

const (
	// OrderNewest sorts by created_at descending.
	OrderNewest ProductOrder = iota
	// OrderQueue puts pending first, then accepted, then rejected; newest
	// first inside each group.
	OrderQueue
	// OrderTop sorts by upvote count, then newest.
	OrderTop
)

type ProductFilter struct {
	Statuses   []Status
	OwnerEmail string
	Search     string
	Tag        string
	Featured   *bool
	Order      ProductOrder
	Limit      int
	Offset     int
}

type UserFilter struct {
	Search string
	Role   Role
	Limit  int
	Offset int
}

func statusRank(s Status) int {
	switch s {
	case StatusPending:
		return 0
	case StatusAccepted:
		return 1
	default:
		return 2
	}
}

func productLess(order ProductOrder, a, b *Product) bool {
	switch order {
	case OrderQueue:
		if ra, rb := statusRank(a.Status), statusRank(b.Status); ra != rb {
			return ra < rb
		}
	case OrderTop:
		if a.UpvoteCount != b.UpvoteCount {
			return a.UpvoteCount > b.UpvoteCount
		}
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortProducts applies the same total order the Postgres store uses, so a
// list re-sorted after a mixed fetch comes out identical.
func SortProducts(products []Product, order ProductOrder) {
	sort.SliceStable(products, func(i, j int) bool {
		return productLess(order, &products[i], &products[j])
	})
}
