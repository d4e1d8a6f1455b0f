package usecase_test

import (
	"context"
	"testing"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/product/dto"
	"github.com/clearpath/warehouse-flow/internal/product/usecase"
	"github.com/clearpath/warehouse-flow/internal/testutil"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestUpdateProduct_Rename(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*observer.ObservedLogs, string, func(name string) (*model.Product, error)) {
		t.Helper()
		core, logs := observer.New(zap.InfoLevel)
		uc := usecase.NewProductUseCase(testutil.NewStore().Products(), nil, nil, logger.New(zap.New(core)))

		p, err := uc.CreateProduct(ctx, &dto.CreateProductInput{CompanyID: "acme", Name: "Widget", Quantity: 4})
		require.NoError(t, err)

		update := func(name string) (*model.Product, error) {
			return uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: p.ID, CompanyID: "acme", Name: name})
		}
		return logs, p.ID, update
	}

	t.Run("surrounding whitespace is not a rename", func(t *testing.T) {
		logs, _, update := setup(t)

		p, err := update("  Widget \t")
		require.NoError(t, err)
		assert.Equal(t, "Widget", p.Name)
		assert.Zero(t, logs.FilterMessage("product renamed").Len())
	})

	t.Run("real rename is logged trimmed", func(t *testing.T) {
		logs, id, update := setup(t)

		p, err := update(" Gadget ")
		require.NoError(t, err)
		assert.Equal(t, "Gadget", p.Name)

		renamed := logs.FilterMessage("product renamed").All()
		require.Len(t, renamed, 1)
		fields := renamed[0].ContextMap()
		assert.Equal(t, id, fields["product_id"])
		assert.Equal(t, "Widget", fields["from"])
		assert.Equal(t, "Gadget", fields["to"])
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		_, _, update := setup(t)

		_, err := update("   ")
		require.Error(t, err)
		assert.True(t, model.IsValidation(err))
	})
}
