package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"sapataria/core/apperror"
	"sapataria/core/cache"
	"sapataria/core/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, Models()...))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewService(db, zap.NewNop(), cache.NewMemory(0), nil, nil), db
}

func TestGetOrCreate_Reuse(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	id1, created1, err := svc.GetOrCreate(ctx, Brands, "Nike")
	require.NoError(t, err)
	id2, created2, err := svc.GetOrCreate(ctx, Brands, "  Nike ")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.True(t, created1)
	assert.False(t, created2)

	var count int64
	db.Model(&Brand{}).Where("name = ?", "Nike").Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreate_WithoutCacheReusesRow(t *testing.T) {
	db := setupTestDB(t)
	first := NewService(db, zap.NewNop(), nil, nil, nil)
	second := NewService(db, zap.NewNop(), nil, nil, nil)
	ctx := context.Background()

	id1, created1, err := first.GetOrCreate(ctx, Sizes, "42")
	require.NoError(t, err)
	id2, created2, err := second.GetOrCreate(ctx, Sizes, "42")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.True(t, created1)
	assert.False(t, created2)
}

func TestGetOrCreate_CaseSensitive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	upper, _, err := svc.GetOrCreate(ctx, Colors, "Preto")
	require.NoError(t, err)
	lower, created, err := svc.GetOrCreate(ctx, Colors, "preto")
	require.NoError(t, err)

	assert.NotEqual(t, upper, lower)
	assert.True(t, created)
}

func TestGetOrCreate_InvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		dim  Dimension
		val  string
	}{
		{"Empty", Brands, ""},
		{"Whitespace", Suppliers, "   \t"},
		{"UnknownDimension", Dimension("shelves"), "A1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.GetOrCreate(ctx, tt.dim, tt.val)
			assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
		})
	}
}

func TestGetOrCreate_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Separate services so the in-process singleflight does not hide the race.
			svc := NewService(db, zap.NewNop(), nil, nil, nil)
			id, _, err := svc.GetOrCreate(ctx, Warehouses, "Loja Centro")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var count int64
	db.Model(&Warehouse{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateSubcategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	shoes, _, err := svc.GetOrCreate(ctx, Categories, "Calçado")
	require.NoError(t, err)
	care, _, err := svc.GetOrCreate(ctx, Categories, "Manutenção")
	require.NoError(t, err)

	a, created, err := svc.GetOrCreateSubcategory(ctx, shoes, "Sapatilhas")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.GetOrCreateSubcategory(ctx, shoes, "Sapatilhas")
	require.NoError(t, err)
	assert.Equal(t, a, again)
	assert.False(t, created)

	// Same name under another category is a different row.
	b, created, err := svc.GetOrCreateSubcategory(ctx, care, "Sapatilhas")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, created)

	_, _, err = svc.GetOrCreateSubcategory(ctx, 999, "Botas")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, _, err = svc.GetOrCreateSubcategory(ctx, shoes, " ")
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))

	subs, err := svc.ListSubcategories(ctx, shoes)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Sapatilhas", subs[0].Name)
}

func TestListAndExists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, v := range []string{"42", "38", "40"} {
		_, _, err := svc.GetOrCreate(ctx, Sizes, v)
		require.NoError(t, err)
	}

	values, err := svc.List(ctx, Sizes)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, "38", values[0].Name)
	assert.Equal(t, "42", values[2].Name)

	assert.NoError(t, svc.Exists(ctx, Sizes, values[0].ID))
	assert.True(t, errors.Is(svc.Exists(ctx, Sizes, 12345), apperror.ErrNotFound))
	assert.True(t, errors.Is(svc.Exists(ctx, Subcategories, 1), apperror.ErrNotFound))

	_, err = svc.List(ctx, Dimension("bogus"))
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
}

func TestGetOrCreate_StoreUnavailable(t *testing.T) {
	svc, db := newTestService(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, _, err = svc.GetOrCreate(context.Background(), Brands, "Adidas")
	assert.True(t, errors.Is(err, apperror.ErrUnavailable))
}
