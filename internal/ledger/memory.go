// AngelaMos | 2026
// memory.go

package ledger

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carterperez-dev/launchpad/internal/core"
)

// MemoryStore keeps the ledger in-process. Transactions are serialized by a
// single mutex and roll back by restoring a snapshot taken at Begin.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: newMemState(),
		now:   time.Now,
	}
}

// WithClock overrides the timestamp source used for created_at columns.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&memTx{st: m.state, now: m.now}); err != nil {
		m.state = snapshot
		return err
	}

	return nil
}

func (m *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return fn(&memTx{st: m.state.clone(), now: m.now})
}

type upvoteKey struct {
	productID string
	userEmail string
}

type memState struct {
	users    map[string]User
	products map[string]Product
	upvotes  map[upvoteKey]Upvote
	reviews  []Review
	reports  []Report
	coupons  map[string]Coupon
}

func newMemState() *memState {
	return &memState{
		users:    make(map[string]User),
		products: make(map[string]Product),
		upvotes:  make(map[upvoteKey]Upvote),
		coupons:  make(map[string]Coupon),
	}
}

// clone is shallow per record; records are stored by value and slices
// inside them are replaced, never mutated in place.
func (s *memState) clone() *memState {
	return &memState{
		users:    maps.Clone(s.users),
		products: maps.Clone(s.products),
		upvotes:  maps.Clone(s.upvotes),
		reviews:  append([]Review(nil), s.reviews...),
		reports:  append([]Report(nil), s.reports...),
		coupons:  maps.Clone(s.coupons),
	}
}

type memTx struct {
	st  *memState
	now func() time.Time
}

var _ Tx = (*memTx)(nil)

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (t *memTx) CreateUser(_ context.Context, user *User) error {
	if _, ok := t.st.users[user.Email]; ok {
		return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}
	now := t.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	t.st.users[user.Email] = *user
	return nil
}

func (t *memTx) GetUser(_ context.Context, email string) (*User, error) {
	u, ok := t.st.users[email]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return &u, nil
}

func (t *memTx) LockUser(ctx context.Context, email string) (*User, error) {
	return t.GetUser(ctx, email)
}

func (t *memTx) UpdateUserProfile(_ context.Context, email, displayName, avatarURL string) error {
	u, ok := t.st.users[email]
	if !ok {
		return fmt.Errorf("update user profile: %w", core.ErrNotFound)
	}
	u.DisplayName = displayName
	u.AvatarURL = avatarURL
	u.UpdatedAt = t.now()
	t.st.users[email] = u
	return nil
}

func (t *memTx) UpdateUserRole(_ context.Context, email string, role Role) error {
	u, ok := t.st.users[email]
	if !ok {
		return fmt.Errorf("update user role: %w", core.ErrNotFound)
	}
	u.Role = role
	u.UpdatedAt = t.now()
	t.st.users[email] = u
	return nil
}

func (t *memTx) ActivateMembership(_ context.Context, email string, sub Subscription) error {
	u, ok := t.st.users[email]
	if !ok {
		return fmt.Errorf("activate membership: %w", core.ErrNotFound)
	}
	u.Membership = MembershipActive
	u.SubscriptionID = &sub.ID
	started := sub.StartedAt
	u.SubscribedAt = &started
	amount := sub.AmountCents
	u.AmountPaid = &amount
	u.CouponCode = nil
	if sub.CouponCode != "" {
		code := sub.CouponCode
		u.CouponCode = &code
	}
	u.UpdatedAt = t.now()
	t.st.users[email] = u
	return nil
}

func (t *memTx) ListUsers(_ context.Context, filter UserFilter) ([]User, int, error) {
	users := make([]User, 0, len(t.st.users))
	for _, u := range t.st.users {
		if filter.Search != "" &&
			!containsFold(u.Email, filter.Search) &&
			!containsFold(u.DisplayName, filter.Search) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].Email < users[j].Email
	})
	return paginate(users, filter.Limit, filter.Offset), len(users), nil
}

func (t *memTx) CreateProduct(_ context.Context, product *Product) error {
	if _, ok := t.st.products[product.ID]; ok {
		return fmt.Errorf("create product: %w", core.ErrDuplicateKey)
	}
	if _, ok := t.st.users[product.OwnerEmail]; !ok {
		return fmt.Errorf("create product: %w", core.ErrNotFound)
	}
	now := t.now()
	product.CreatedAt = now
	product.UpdatedAt = now
	t.st.products[product.ID] = *product
	return nil
}

func (t *memTx) GetProduct(_ context.Context, id string) (*Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	return &p, nil
}

func (t *memTx) LockProduct(ctx context.Context, id string) (*Product, error) {
	return t.GetProduct(ctx, id)
}

func (t *memTx) UpdateProductContent(_ context.Context, product *Product) error {
	p, ok := t.st.products[product.ID]
	if !ok {
		return fmt.Errorf("update product: %w", core.ErrNotFound)
	}
	p.Name = product.Name
	p.Slug = product.Slug
	p.ImageURL = product.ImageURL
	p.Description = product.Description
	p.ExternalLink = product.ExternalLink
	p.Tags = product.Tags
	p.UpdatedAt = t.now()
	product.UpdatedAt = p.UpdatedAt
	t.st.products[p.ID] = p
	return nil
}

func (t *memTx) SetProductModeration(
	_ context.Context,
	id string,
	status Status,
	featured bool,
	acceptedAt *time.Time,
) error {
	p, ok := t.st.products[id]
	if !ok {
		return fmt.Errorf("set product moderation: %w", core.ErrNotFound)
	}
	if featured && status != StatusAccepted {
		return fmt.Errorf("set product moderation: featured requires accepted: %w", core.ErrInvalidTransition)
	}
	p.Status = status
	p.Featured = featured
	p.AcceptedAt = acceptedAt
	p.UpdatedAt = t.now()
	t.st.products[id] = p
	return nil
}

func (t *memTx) AdjustUpvoteCount(_ context.Context, id string, delta int) (int, error) {
	p, ok := t.st.products[id]
	if !ok {
		return 0, fmt.Errorf("adjust upvote count: %w", core.ErrNotFound)
	}
	p.UpvoteCount = max(p.UpvoteCount+delta, 0)
	t.st.products[id] = p
	return p.UpvoteCount, nil
}

func (t *memTx) SetUpvoteCount(_ context.Context, id string, count int) error {
	p, ok := t.st.products[id]
	if !ok {
		return fmt.Errorf("set upvote count: %w", core.ErrNotFound)
	}
	p.UpvoteCount = count
	t.st.products[id] = p
	return nil
}

func (t *memTx) DeleteProduct(_ context.Context, id string) error {
	if _, ok := t.st.products[id]; !ok {
		return fmt.Errorf("delete product: %w", core.ErrNotFound)
	}
	delete(t.st.products, id)
	return nil
}

func (t *memTx) CountProductsByOwner(_ context.Context, ownerEmail string) (int, error) {
	n := 0
	for _, p := range t.st.products {
		if p.OwnerEmail == ownerEmail {
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListProducts(_ context.Context, filter ProductFilter) ([]Product, int, error) {
	out := make([]Product, 0, len(t.st.products))
	for _, p := range t.st.products {
		if !matchesProduct(&p, filter) {
			continue
		}
		out = append(out, p)
	}
	SortProducts(out, filter.Order)
	return paginate(out, filter.Limit, filter.Offset), len(out), nil
}

func matchesProduct(p *Product, filter ProductFilter) bool {
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			if p.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.OwnerEmail != "" && p.OwnerEmail != filter.OwnerEmail {
		return false
	}
	if filter.Search != "" &&
		!containsFold(p.Name, filter.Search) &&
		!containsFold(p.Description, filter.Search) {
		return false
	}
	if filter.Tag != "" && !p.Tags.Contains(filter.Tag) {
		return false
	}
	if filter.Featured != nil && p.Featured != *filter.Featured {
		return false
	}
	return true
}

func (t *memTx) ListProductIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(t.st.products))
	for id := range t.st.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *memTx) GetUpvote(_ context.Context, productID, userEmail string) (*Upvote, error) {
	u, ok := t.st.upvotes[upvoteKey{productID, userEmail}]
	if !ok {
		return nil, fmt.Errorf("get upvote: %w", core.ErrNotFound)
	}
	return &u, nil
}

func (t *memTx) InsertUpvote(_ context.Context, upvote *Upvote) error {
	key := upvoteKey{upvote.ProductID, upvote.UserEmail}
	if _, ok := t.st.upvotes[key]; ok {
		return fmt.Errorf("insert upvote: %w", core.ErrDuplicateKey)
	}
	if _, ok := t.st.products[upvote.ProductID]; !ok {
		return fmt.Errorf("insert upvote: %w", core.ErrNotFound)
	}
	if _, ok := t.st.users[upvote.UserEmail]; !ok {
		return fmt.Errorf("insert upvote: %w", core.ErrNotFound)
	}
	upvote.CreatedAt = t.now()
	t.st.upvotes[key] = *upvote
	return nil
}

func (t *memTx) DeleteUpvote(_ context.Context, productID, userEmail string) error {
	key := upvoteKey{productID, userEmail}
	if _, ok := t.st.upvotes[key]; !ok {
		return fmt.Errorf("delete upvote: %w", core.ErrNotFound)
	}
	delete(t.st.upvotes, key)
	return nil
}

func (t *memTx) CountUpvotes(_ context.Context, productID string) (int, error) {
	n := 0
	for key := range t.st.upvotes {
		if key.productID == productID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) DeleteUpvotesForProduct(_ context.Context, productID string) (int, error) {
	n := 0
	for key := range t.st.upvotes {
		if key.productID == productID {
			delete(t.st.upvotes, key)
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListUpvotesByUser(_ context.Context, userEmail, search string) ([]Upvote, error) {
	out := make([]Upvote, 0)
	for key, u := range t.st.upvotes {
		if key.userEmail != userEmail {
			continue
		}
		if search != "" && !containsFold(u.ProductName, search) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func (t *memTx) InsertReview(_ context.Context, review *Review) error {
	review.CreatedAt = t.now()
	t.st.reviews = append(t.st.reviews, *review)
	return nil
}

func (t *memTx) ListReviews(_ context.Context, productID string) ([]Review, error) {
	out := make([]Review, 0)
	for _, r := range t.st.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *memTx) InsertReport(_ context.Context, report *Report) error {
	report.CreatedAt = t.now()
	t.st.reports = append(t.st.reports, *report)
	return nil
}

func (t *memTx) ListReports(_ context.Context, productID string) ([]Report, error) {
	out := make([]Report, 0)
	for _, r := range t.st.reports {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	sortReportsNewestFirst(out)
	return out, nil
}

func sortReportsNewestFirst(reports []Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		if !reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].CreatedAt.After(reports[j].CreatedAt)
		}
		return reports[i].ID > reports[j].ID
	})
}

func (t *memTx) CountReports(_ context.Context, productID string) (int, error) {
	n := 0
	for _, r := range t.st.reports {
		if r.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListReportedProducts(_ context.Context, search string) ([]ReportedProduct, error) {
	byProduct := make(map[string][]Report)
	for _, r := range t.st.reports {
		byProduct[r.ProductID] = append(byProduct[r.ProductID], r)
	}

	out := make([]ReportedProduct, 0, len(byProduct))
	for productID, reports := range byProduct {
		sortReportsNewestFirst(reports)
		if search != "" {
			matched := false
			for _, r := range reports {
				if containsFold(r.ProductName, search) || containsFold(r.OwnerEmail, search) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		_, exists := t.st.products[productID]
		out = append(out, ReportedProduct{
			ProductID:     productID,
			ProductName:   reports[0].ProductName,
			OwnerEmail:    reports[0].OwnerEmail,
			ReportCount:   len(reports),
			LatestReport:  reports[0].CreatedAt,
			ProductExists: exists,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ReportCount != out[j].ReportCount {
			return out[i].ReportCount > out[j].ReportCount
		}
		if !out[i].LatestReport.Equal(out[j].LatestReport) {
			return out[i].LatestReport.After(out[j].LatestReport)
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func (t *memTx) CreateCoupon(_ context.Context, coupon *Coupon) error {
	if _, ok := t.st.coupons[coupon.Code]; ok {
		return fmt.Errorf("create coupon: %w", core.ErrDuplicateKey)
	}
	now := t.now()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now
	t.st.coupons[coupon.Code] = *coupon
	return nil
}

func (t *memTx) GetCoupon(_ context.Context, code string) (*Coupon, error) {
	c, ok := t.st.coupons[code]
	if !ok {
		return nil, fmt.Errorf("get coupon: %w", core.ErrNotFound)
	}
	return &c, nil
}

func (t *memTx) UpdateCoupon(_ context.Context, coupon *Coupon) error {
	c, ok := t.st.coupons[coupon.Code]
	if !ok {
		return fmt.Errorf("update coupon: %w", core.ErrNotFound)
	}
	c.DiscountAmount = coupon.DiscountAmount
	c.ExpiryDate = coupon.ExpiryDate
	c.Description = coupon.Description
	c.UpdatedAt = t.now()
	coupon.CreatedAt = c.CreatedAt
	coupon.UpdatedAt = c.UpdatedAt
	t.st.coupons[c.Code] = c
	return nil
}

func (t *memTx) DeleteCoupon(_ context.Context, code string) error {
	if _, ok := t.st.coupons[code]; !ok {
		return fmt.Errorf("delete coupon: %w", core.ErrNotFound)
	}
	delete(t.st.coupons, code)
	return nil
}

func (t *memTx) ListCoupons(_ context.Context) ([]Coupon, error) {
	out := make([]Coupon, 0, len(t.st.coupons))
	for _, c := range t.st.coupons {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ExpiryDate.After(out[j].ExpiryDate)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}
