// AngelaMos | 2026
// engine_test.go

package upvote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

const (
	owner = "owner@example.com"
	voter = "voter@example.com"
)

func setup(t *testing.T, users ...string) *ledger.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewMemoryStore()

	err := store.InTx(ctx, func(tx ledger.Tx) error {
		for _, email := range append([]string{owner}, users...) {
			if err := tx.CreateUser(ctx, &ledger.User{
				Email:      email,
				Role:       ledger.RoleNone,
				Membership: ledger.MembershipFree,
			}); err != nil {
				return err
			}
		}
		return tx.CreateProduct(ctx, &ledger.Product{
			ID:         "p1",
			Name:       "Rocket",
			ImageURL:   "https://img.example.com/rocket.png",
			OwnerEmail: owner,
			Status:     ledger.StatusAccepted,
			Tags:       ledger.Tags{},
		})
	})
	require.NoError(t, err)
	return store
}

func storedCount(t *testing.T, store ledger.Store, productID string) (counter, rows int) {
	t.Helper()
	ctx := context.Background()
	err := store.View(ctx, func(tx ledger.Tx) error {
		p, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		counter = p.UpvoteCount
		rows, err = tx.CountUpvotes(ctx, productID)
		return err
	})
	require.NoError(t, err)
	return counter, rows
}

func TestToggle_AddThenRemove(t *testing.T) {
	ctx := context.Background()
	store := setup(t, voter)
	engine := NewEngine(store, nil)

	res, err := engine.Toggle(ctx, "p1", voter)
	require.NoError(t, err)
	assert.Equal(t, StateAdded, res.State)
	assert.Equal(t, 1, res.Count)

	upvoted, err := engine.HasUpvoted(ctx, "p1", voter)
	require.NoError(t, err)
	assert.True(t, upvoted)

	res, err = engine.Toggle(ctx, "p1", "  VOTER@example.com ")
	require.NoError(t, err)
	assert.Equal(t, StateRemoved, res.State)
	assert.Equal(t, 0, res.Count)

	counter, rows := storedCount(t, store, "p1")
	assert.Equal(t, 0, counter)
	assert.Equal(t, 0, rows)
}

func TestToggle_SelfVoteForbidden(t *testing.T) {
	engine := NewEngine(setup(t), nil)

	_, err := engine.Toggle(context.Background(), "p1", owner)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrForbiddenSelfVote)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestToggle_MissingProduct(t *testing.T) {
	engine := NewEngine(setup(t, voter), nil)

	_, err := engine.Toggle(context.Background(), "nope", voter)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestToggle_HeldLockFailsFast(t *testing.T) {
	locks := NewLocalLocker()
	engine := NewEngine(setup(t, voter), locks)

	release, ok, err := locks.TryLock(context.Background(), pairKey("p1", voter))
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	_, err = engine.Toggle(context.Background(), "p1", voter)
	assert.ErrorIs(t, err, core.ErrConflict)
}

type failingStore struct {
	ledger.Store
}

type failingTx struct {
	ledger.Tx
}

var errCounterWrite = errors.New("counter write failed")

func (f failingStore) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return f.Store.InTx(ctx, func(tx ledger.Tx) error {
		return fn(failingTx{Tx: tx})
	})
}

func (failingTx) AdjustUpvoteCount(context.Context, string, int) (int, error) {
	return 0, errCounterWrite
}

func TestToggle_RollsBackWhenCounterWriteFails(t *testing.T) {
	store := setup(t, voter)
	engine := NewEngine(failingStore{Store: store}, nil)

	_, err := engine.Toggle(context.Background(), "p1", voter)
	require.ErrorIs(t, err, errCounterWrite)

	counter, rows := storedCount(t, store, "p1")
	assert.Equal(t, 0, counter)
	assert.Equal(t, 0, rows, "upvote row must not survive a failed counter write")
}

func TestToggle_ConcurrentUsersKeepCounterConsistent(t *testing.T) {
	const voters = 25

	emails := make([]string, voters)
	for i := range emails {
		emails[i] = fmt.Sprintf("voter%d@example.com", i)
	}
	store := setup(t, emails...)
	engine := NewEngine(store, nil)

	var wg sync.WaitGroup
	for _, email := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			_, err := engine.Toggle(context.Background(), "p1", email)
			assert.NoError(t, err)
		}(email)
	}
	wg.Wait()

	counter, rows := storedCount(t, store, "p1")
	assert.Equal(t, voters, counter)
	assert.Equal(t, voters, rows)
}

func TestToggle_ConcurrentSamePairNeverDuplicates(t *testing.T) {
	store := setup(t, voter)
	engine := NewEngine(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Toggle(context.Background(), "p1", voter)
			if err != nil {
				assert.ErrorIs(t, err, core.ErrConflict)
			}
		}()
	}
	wg.Wait()

	counter, rows := storedCount(t, store, "p1")
	assert.Equal(t, rows, counter)
	assert.LessOrEqual(t, rows, 1)
}

func TestReplay(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(setup(t, voter), nil)

	res, err := engine.Replay(ctx, voter, nil)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = engine.Replay(ctx, voter, &Intent{ProductID: " p1 "})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StateAdded, res.State)
}

func TestRecount_FixesDrift(t *testing.T) {
	ctx := context.Background()
	store := setup(t, voter)
	engine := NewEngine(store, nil)

	_, err := engine.Toggle(ctx, "p1", voter)
	require.NoError(t, err)

	err = store.InTx(ctx, func(tx ledger.Tx) error {
		return tx.SetUpvoteCount(ctx, "p1", 7)
	})
	require.NoError(t, err)

	drifts, err := engine.RecountAll(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, Drift{ProductID: "p1", Stored: 7, Actual: 1}, drifts[0])

	drift, err := engine.Recount(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, drift)

	counter, rows := storedCount(t, store, "p1")
	assert.Equal(t, 1, counter)
	assert.Equal(t, 1, rows)
}

func TestListMine(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(setup(t, voter), nil)

	_, err := engine.Toggle(ctx, "p1", voter)
	require.NoError(t, err)

	upvotes, err := engine.ListMine(ctx, voter, "rock")
	require.NoError(t, err)
	require.Len(t, upvotes, 1)
	assert.Equal(t, "Rocket", upvotes[0].ProductName)

	upvotes, err = engine.ListMine(ctx, voter, "zzz")
	require.NoError(t, err)
	assert.Empty(t, upvotes)

	_, err = engine.ListMine(ctx, "", "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}
