// AngelaMos | 2026
// postgres_test.go

package ledger_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
	"github.com/carterperez-dev/launchpad/internal/product"
	"github.com/carterperez-dev/launchpad/internal/upvote"
)

// One container serves every test in the package; each test starts from
// truncated tables.
var pg struct {
	once      sync.Once
	container *postgres.PostgresContainer
	db        *sqlx.DB
	err       error
}

func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()

	if pg.db != nil {
		_ = pg.db.Close()
	}
	if pg.container != nil {
		_ = testcontainers.TerminateContainer(pg.container)
	}
	os.Exit(code)
}

func startPostgres() {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("launchpad"),
		postgres.WithUsername("launchpad"),
		postgres.WithPassword("launchpad"),
		postgres.BasicWaitStrategies(),
	)
	pg.container = container
	if err != nil {
		pg.err = fmt.Errorf("start container: %w", err)
		return
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		pg.err = fmt.Errorf("connection string: %w", err)
		return
	}

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		pg.err = fmt.Errorf("connect: %w", err)
		return
	}
	pg.db = db

	if _, err := ledger.Migrate(ctx, db); err != nil {
		pg.err = fmt.Errorf("migrate: %w", err)
	}
}

func newPostgresStore(t *testing.T) *ledger.PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test")
	}

	pg.once.Do(startPostgres)
	if pg.err != nil {
		t.Skipf("postgres unavailable: %v", pg.err)
	}

	_, err := pg.db.ExecContext(context.Background(), `
		TRUNCATE users, products, upvotes, reviews, reports, coupons, refresh_tokens CASCADE`)
	require.NoError(t, err)

	return ledger.NewPostgresStore(pg.db)
}

func seedUsers(t *testing.T, s ledger.Store, emails ...string) {
	t.Helper()
	ctx := context.Background()
	err := s.InTx(ctx, func(tx ledger.Tx) error {
		for _, email := range emails {
			if err := tx.CreateUser(ctx, &ledger.User{
				Email:      email,
				Role:       ledger.RoleNone,
				Membership: ledger.MembershipFree,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func seedProduct(t *testing.T, s ledger.Store, id, owner string, status ledger.Status) {
	t.Helper()
	ctx := context.Background()
	err := s.InTx(ctx, func(tx ledger.Tx) error {
		return tx.CreateProduct(ctx, &ledger.Product{
			ID:         id,
			Slug:       id,
			Name:       "product " + id,
			OwnerEmail: owner,
			Status:     status,
			Tags:       ledger.Tags{},
		})
	})
	require.NoError(t, err)
}

func TestPostgresStore_ConcurrentTogglesKeepCount(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)

	const voters = 20
	emails := make([]string, voters)
	for i := range emails {
		emails[i] = fmt.Sprintf("voter%02d@example.com", i)
	}
	seedUsers(t, store, append(emails, "owner@example.com")...)
	seedProduct(t, store, "p1", "owner@example.com", ledger.StatusAccepted)

	engine := upvote.NewEngine(store, upvote.NewLocalLocker())

	toggleAll := func(who []string) {
		var wg sync.WaitGroup
		for _, email := range who {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := engine.Toggle(ctx, "p1", email)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
	}

	toggleAll(emails)
	toggleAll(emails[:voters/2])

	err := store.View(ctx, func(tx ledger.Tx) error {
		p, err := tx.GetProduct(ctx, "p1")
		require.NoError(t, err)
		rows, err := tx.CountUpvotes(ctx, "p1")
		require.NoError(t, err)

		assert.Equal(t, voters/2, rows)
		assert.Equal(t, rows, p.UpvoteCount)
		return nil
	})
	require.NoError(t, err)

	drifts, err := engine.RecountAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestPostgresStore_FreeQuotaHoldsUnderConcurrentSubmits(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)
	seedUsers(t, store, "maker@example.com")

	svc := product.NewService(store, 1)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, "maker@example.com", product.Content{Name: fmt.Sprintf("Launch %d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, errors.Is(err, core.ErrQuotaExceeded), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, created)

	err := store.View(ctx, func(tx ledger.Tx) error {
		n, err := tx.CountProductsByOwner(ctx, "maker@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)
}

func TestPostgresStore_QueueOrder(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)
	seedUsers(t, store, "owner@example.com")

	for _, p := range []struct {
		id     string
		status ledger.Status
	}{
		{"a", ledger.StatusRejected},
		{"b", ledger.StatusPending},
		{"c", ledger.StatusAccepted},
		{"d", ledger.StatusPending},
	} {
		seedProduct(t, store, p.id, "owner@example.com", p.status)
		time.Sleep(2 * time.Millisecond)
	}

	err := store.View(ctx, func(tx ledger.Tx) error {
		products, total, err := tx.ListProducts(ctx, ledger.ProductFilter{Order: ledger.OrderQueue})
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		ids := make([]string, len(products))
		for i, p := range products {
			ids[i] = p.ID
		}
		assert.Equal(t, []string{"d", "b", "c", "a"}, ids)
		return nil
	})
	require.NoError(t, err)
}

func TestPostgresStore_ReportsSurviveProductDeletion(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)
	seedUsers(t, store, "owner@example.com", "reporter@example.com")
	seedProduct(t, store, "p1", "owner@example.com", ledger.StatusAccepted)
	seedProduct(t, store, "p2", "owner@example.com", ledger.StatusAccepted)

	err := store.InTx(ctx, func(tx ledger.Tx) error {
		for i, pid := range []string{"p1", "p2", "p2"} {
			if err := tx.InsertReport(ctx, &ledger.Report{
				ID:            fmt.Sprintf("r%d", i),
				ProductID:     pid,
				ReporterEmail: "reporter@example.com",
				Reason:        "spam",
				ProductName:   "product " + pid,
				OwnerEmail:    "owner@example.com",
			}); err != nil {
				return err
			}
		}
		return tx.DeleteProduct(ctx, "p2")
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx ledger.Tx) error {
		reported, err := tx.ListReportedProducts(ctx, "")
		require.NoError(t, err)
		require.Len(t, reported, 2)
		assert.Equal(t, "p2", reported[0].ProductID)
		assert.Equal(t, 2, reported[0].ReportCount)
		assert.False(t, reported[0].ProductExists)
		assert.True(t, reported[1].ProductExists)

		reported, err = tx.ListReportedProducts(ctx, "PRODUCT P1")
		require.NoError(t, err)
		require.Len(t, reported, 1)
		assert.Equal(t, "p1", reported[0].ProductID)

		reports, err := tx.ListReports(ctx, "p2")
		require.NoError(t, err)
		assert.Len(t, reports, 2)

		n, err := tx.CountReports(ctx, "p2")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	})
	require.NoError(t, err)
}

func TestPostgresStore_ErrorMapping(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)
	seedUsers(t, store, "owner@example.com", "voter@example.com")
	seedProduct(t, store, "p1", "owner@example.com", ledger.StatusPending)

	tests := []struct {
		name string
		fn   func(tx ledger.Tx) error
		want error
	}{
		{
			name: "duplicate user",
			fn: func(tx ledger.Tx) error {
				return tx.CreateUser(ctx, &ledger.User{
					Email: "owner@example.com", Role: ledger.RoleNone, Membership: ledger.MembershipFree,
				})
			},
			want: core.ErrDuplicateKey,
		},
		{
			name: "upvote for missing product",
			fn: func(tx ledger.Tx) error {
				return tx.InsertUpvote(ctx, &ledger.Upvote{ProductID: "missing", UserEmail: "voter@example.com"})
			},
			want: core.ErrNotFound,
		},
		{
			name: "lock missing product",
			fn: func(tx ledger.Tx) error {
				_, err := tx.LockProduct(ctx, "missing")
				return err
			},
			want: core.ErrNotFound,
		},
		{
			name: "lock missing user",
			fn: func(tx ledger.Tx) error {
				_, err := tx.LockUser(ctx, "ghost@example.com")
				return err
			},
			want: core.ErrNotFound,
		},
		{
			name: "featured while pending",
			fn: func(tx ledger.Tx) error {
				return tx.SetProductModeration(ctx, "p1", ledger.StatusPending, true, nil)
			},
			want: core.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.InTx(ctx, tt.fn)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPostgresStore_UpvoteCounterFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)
	seedUsers(t, store, "owner@example.com", "voter@example.com")
	seedProduct(t, store, "p1", "owner@example.com", ledger.StatusAccepted)

	err := store.InTx(ctx, func(tx ledger.Tx) error {
		n, err := tx.AdjustUpvoteCount(ctx, "p1", -1)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		require.NoError(t, tx.InsertUpvote(ctx, &ledger.Upvote{
			ProductID: "p1", UserEmail: "voter@example.com", ProductName: "Rocket Notes",
		}))
		n, err = tx.AdjustUpvoteCount(ctx, "p1", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		return nil
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx ledger.Tx) error {
		all, err := tx.ListUpvotesByUser(ctx, "voter@example.com", "")
		require.NoError(t, err)
		assert.Len(t, all, 1)

		matched, err := tx.ListUpvotesByUser(ctx, "voter@example.com", "rocket")
		require.NoError(t, err)
		assert.Len(t, matched, 1)

		none, err := tx.ListUpvotesByUser(ctx, "voter@example.com", "calendar")
		require.NoError(t, err)
		assert.Empty(t, none)
		return nil
	})
	require.NoError(t, err)
}
