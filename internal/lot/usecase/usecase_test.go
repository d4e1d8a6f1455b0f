package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clearpath/warehouse-flow/internal/lot/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/testutil"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func newTestUseCase() (*lotUseCase, *testutil.LotRepo) {
	store := testutil.NewStore()
	repo := store.Lots()
	uc := NewLotUseCase(repo, store, cache.NewMemoryLocker(), logger.NewNop()).(*lotUseCase)
	uc.now = func() time.Time { return day(20) }
	return uc, repo
}

func lotOf(id string, received time.Time, qty int, value ...string) model.InventoryLot {
	l := model.InventoryLot{
		ID:           id,
		ProductID:    "p1",
		CompanyID:    "acme",
		Quantity:     qty,
		ReceivedDate: received,
		CreatedAt:    received,
		UpdatedAt:    received,
	}
	if len(value) > 0 {
		l.VariantAttribute = strPtr("Size")
		l.VariantValue = strPtr(value[0])
	}
	return l
}

func TestPlanDepletion_FIFO(t *testing.T) {
	lots := []model.InventoryLot{
		lotOf("newer", day(2), 5),
		lotOf("empty", day(1), 0),
		lotOf("older", day(1), 5),
	}

	changes, consumed := planDepletion(lots, 7)

	assert.Equal(t, 7, consumed)
	require.Len(t, changes, 2)
	assert.Equal(t, "older", changes[0].lot.ID)
	assert.Equal(t, 5, changes[0].taken)
	assert.True(t, changes[0].deleted())
	assert.Equal(t, "newer", changes[1].lot.ID)
	assert.Equal(t, 2, changes[1].taken)
	assert.Equal(t, 3, changes[1].remaining)
	assert.False(t, changes[1].deleted())
}

func TestPlanDepletion_SameDayUsesCreatedAt(t *testing.T) {
	first := lotOf("b", day(1), 1)
	second := lotOf("a", day(1), 1)
	second.CreatedAt = day(1).Add(time.Hour)

	changes, _ := planDepletion([]model.InventoryLot{second, first}, 1)
	require.Len(t, changes, 1)
	assert.Equal(t, "b", changes[0].lot.ID)
}

func TestDeplete(t *testing.T) {
	ctx := context.Background()

	t.Run("oldest lot first", func(t *testing.T) {
		uc, repo := newTestUseCase()
		repo.Put(lotOf("l1", day(1), 5))
		repo.Put(lotOf("l2", day(2), 5))

		res, err := uc.Deplete(ctx, &dto.DepleteInput{CompanyID: "acme", ProductID: "p1", Amount: 7})
		require.NoError(t, err)
		assert.Equal(t, 7, res.Consumed)
		assert.Zero(t, res.Shortfall)
		assert.NoError(t, res.Err())

		left, err := repo.ListByProduct(ctx, "acme", "p1")
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, "l2", left[0].ID)
		assert.Equal(t, 3, left[0].Quantity)
	})

	t.Run("falls back to base lots", func(t *testing.T) {
		uc, repo := newTestUseCase()
		repo.Put(lotOf("large", day(1), 2, "Large"))
		repo.Put(lotOf("base", day(3), 10))
		repo.Put(lotOf("small", day(1), 9, "Small"))

		res, err := uc.Deplete(ctx, &dto.DepleteInput{
			CompanyID: "acme",
			ProductID: "p1",
			Key:       &model.VariantKey{Attribute: "size", Value: " large "},
			Amount:    5,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, res.Consumed)
		require.Len(t, res.Allocations, 2)
		assert.Equal(t, "large", res.Allocations[0].LotID)
		assert.False(t, res.Allocations[0].Fallback)
		assert.True(t, res.Allocations[0].Deleted)
		assert.Equal(t, "base", res.Allocations[1].LotID)
		assert.True(t, res.Allocations[1].Fallback)
		assert.Equal(t, 3, res.Allocations[1].Taken)

		small, err := uc.Available(ctx, "acme", "p1", &model.VariantKey{Value: "Small"})
		require.NoError(t, err)
		assert.Equal(t, 9, small)
		base, err := uc.Available(ctx, "acme", "p1", nil)
		require.NoError(t, err)
		assert.Equal(t, 7, base)
	})

	t.Run("base request never touches variant lots", func(t *testing.T) {
		uc, repo := newTestUseCase()
		repo.Put(lotOf("large", day(1), 4, "Large"))

		res, err := uc.Deplete(ctx, &dto.DepleteInput{CompanyID: "acme", ProductID: "p1", Amount: 2})
		require.NoError(t, err)
		assert.Zero(t, res.Consumed)
		assert.Equal(t, 2, res.Shortfall)
	})

	t.Run("reports shortfall", func(t *testing.T) {
		uc, repo := newTestUseCase()
		repo.Put(lotOf("l1", day(1), 3))

		res, err := uc.Deplete(ctx, &dto.DepleteInput{CompanyID: "acme", ProductID: "p1", Amount: 5})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Consumed)
		assert.Equal(t, 2, res.Shortfall)

		var short *model.ShortfallError
		require.True(t, errors.As(res.Err(), &short))
		assert.Equal(t, 2, short.Shortfall)
		assert.ErrorIs(t, res.Err(), model.ErrInsufficientStock)

		left, err := repo.ListByProduct(ctx, "acme", "p1")
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		uc, _ := newTestUseCase()
		_, err := uc.Deplete(ctx, &dto.DepleteInput{CompanyID: "acme", ProductID: "p1", Amount: 0})
		assert.True(t, model.IsValidation(err))
	})
}

func TestDeplete_ConcurrentCallersNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	uc, repo := newTestUseCase()
	repo.Put(lotOf("l1", day(1), 3))
	repo.Put(lotOf("l2", day(2), 2))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		consumed int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.Deplete(ctx, &dto.DepleteInput{CompanyID: "acme", ProductID: "p1", Amount: 1})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			consumed += res.Consumed
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, consumed)
	left, err := repo.ListByProduct(ctx, "acme", "p1")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestReceive(t *testing.T) {
	ctx := context.Background()

	t.Run("merges base stock received the same day", func(t *testing.T) {
		uc, repo := newTestUseCase()

		first, err := uc.Receive(ctx, &dto.ReceiveInput{CompanyID: "acme", ProductID: "p1", Quantity: 4, ReceivedDate: day(5), MergeBase: true})
		require.NoError(t, err)
		second, err := uc.Receive(ctx, &dto.ReceiveInput{CompanyID: "acme", ProductID: "p1", Quantity: 6, ReceivedDate: day(5).Add(3 * time.Hour), MergeBase: true})
		require.NoError(t, err)
		_, err = uc.Receive(ctx, &dto.ReceiveInput{CompanyID: "acme", ProductID: "p1", Quantity: 1, ReceivedDate: day(6), MergeBase: true})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 10, second.Quantity)

		lots, err := repo.ListByProduct(ctx, "acme", "p1")
		require.NoError(t, err)
		require.Len(t, lots, 2)
		assert.Equal(t, 10, lots[0].Quantity)
		assert.Equal(t, 1, lots[1].Quantity)
	})

	t.Run("variant lots are kept apart", func(t *testing.T) {
		uc, repo := newTestUseCase()

		l, err := uc.Receive(ctx, &dto.ReceiveInput{
			CompanyID: "acme",
			ProductID: "p1",
			Key:       &model.VariantKey{Attribute: " Size ", Value: " Large "},
			Quantity:  3,
		})
		require.NoError(t, err)
		assert.Equal(t, "Size: Large", l.Key().String())
		assert.Equal(t, day(20), l.ReceivedDate)

		lots, err := repo.ListByProduct(ctx, "acme", "p1")
		require.NoError(t, err)
		assert.Len(t, lots, 1)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		uc, _ := newTestUseCase()
		_, err := uc.Receive(ctx, &dto.ReceiveInput{CompanyID: "acme", ProductID: "p1", Quantity: 0})
		assert.True(t, model.IsValidation(err))
	})
}
