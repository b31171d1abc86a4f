package product

import (
	"context"
	"errors"
	"testing"

	"sapataria/core/apperror"
	"sapataria/core/database"
	"sapataria/feature/catalog"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type fixture struct {
	brand, category, subcategory, supplier, color, size int64
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, append(catalog.Models(), Models()...)...))
	return db
}

func seed(t *testing.T, db *gorm.DB) fixture {
	ctx := context.Background()
	cat := catalog.NewService(db, zap.NewNop(), nil, nil, nil)

	get := func(dim catalog.Dimension, name string) int64 {
		id, _, err := cat.GetOrCreate(ctx, dim, name)
		require.NoError(t, err)
		return id
	}
	f := fixture{
		brand:    get(catalog.Brands, "Nike"),
		category: get(catalog.Categories, "Sapatilhas"),
		supplier: get(catalog.Suppliers, "KeyInvoice Import"),
		color:    get(catalog.Colors, "Preto"),
		size:     get(catalog.Sizes, "42"),
	}
	sub, _, err := cat.GetOrCreateSubcategory(ctx, f.category, "Running")
	require.NoError(t, err)
	f.subcategory = sub
	return f
}

func (f fixture) key(name string) ModelKey {
	return ModelKey{
		DisplayName:   name,
		BrandID:       f.brand,
		CategoryID:    f.category,
		SubcategoryID: f.subcategory,
		SupplierID:    f.supplier,
	}
}

func newTestService(t *testing.T) (*Service, *gorm.DB, fixture) {
	db := setupTestDB(t)
	f := seed(t, db)
	return NewService(db, zap.NewNop(), nil, nil), db, f
}

func ptr[T any](v T) *T { return &v }

func TestResolveOrCreateModel_Reuse(t *testing.T) {
	svc, db, f := newTestService(t)
	ctx := context.Background()

	id1, created1, err := svc.ResolveOrCreateModel(ctx, f.key("Air Max"), ptr("KI-100"))
	require.NoError(t, err)
	id2, created2, err := svc.ResolveOrCreateModel(ctx, f.key(" Air Max "), ptr("KI-999"))
	require.NoError(t, err)

	assert.True(t, created1)
	assert.False(t, created2)
	assert.Equal(t, id1, id2)

	var count int64
	db.Model(&Model{}).Count(&count)
	assert.Equal(t, int64(1), count)

	m, err := svc.GetModel(ctx, id1)
	require.NoError(t, err)
	require.NotNil(t, m.ExternalRef)
	assert.Equal(t, "KI-100", *m.ExternalRef)
}

func TestResolveOrCreateModel_DistinctTuples(t *testing.T) {
	svc, db, f := newTestService(t)
	ctx := context.Background()

	other, _, err := catalog.NewService(db, zap.NewNop(), nil, nil, nil).GetOrCreate(ctx, catalog.Suppliers, "Outro")
	require.NoError(t, err)

	id1, _, err := svc.ResolveOrCreateModel(ctx, f.key("Air Max"), nil)
	require.NoError(t, err)
	key := f.key("Air Max")
	key.SupplierID = other
	id2, created, err := svc.ResolveOrCreateModel(ctx, key, nil)
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEqual(t, id1, id2)

	id3, created, err := svc.ResolveOrCreateModel(ctx, f.key("air max"), nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, id1, id3)
}

func TestResolveOrCreateModel_Invalid(t *testing.T) {
	svc, _, f := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.ResolveOrCreateModel(ctx, f.key("   "), nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	key := f.key("Air Max")
	key.BrandID = 9999
	_, _, err = svc.ResolveOrCreateModel(ctx, key, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func createVariant(t *testing.T, svc *Service, f fixture, name, gtin string) int64 {
	ctx := context.Background()
	modelID, _, err := svc.ResolveOrCreateModel(ctx, f.key(name), nil)
	require.NoError(t, err)
	id, err := svc.CreateVariant(ctx, NewVariant{ModelID: modelID, GTIN: gtin, ColorID: f.color, SizeID: f.size})
	require.NoError(t, err)
	return id
}

func TestCreateVariant_DuplicateGTIN(t *testing.T) {
	svc, db, f := newTestService(t)
	ctx := context.Background()

	first := createVariant(t, svc, f, "Air Max", "5601234567890")

	otherModel, _, err := svc.ResolveOrCreateModel(ctx, f.key("Pegasus"), nil)
	require.NoError(t, err)
	_, err = svc.CreateVariant(ctx, NewVariant{ModelID: otherModel, GTIN: " 5601234567890 ", ColorID: f.color, SizeID: f.size})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	var v Variant
	require.NoError(t, db.Take(&v, first).Error)
	assert.NotEqual(t, otherModel, v.ModelID)

	var count int64
	db.Model(&Variant{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateVariant_Invalid(t *testing.T) {
	svc, _, f := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateVariant(ctx, NewVariant{ModelID: 1, GTIN: "  ", ColorID: f.color, SizeID: f.size})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.CreateVariant(ctx, NewVariant{ModelID: 404, GTIN: "12345678", ColorID: f.color, SizeID: f.size})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	modelID, _, err := svc.ResolveOrCreateModel(ctx, f.key("Air Max"), nil)
	require.NoError(t, err)
	_, err = svc.CreateVariant(ctx, NewVariant{ModelID: modelID, GTIN: "12345678", ColorID: 404, SizeID: f.size})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFindVariantByGTIN(t *testing.T) {
	svc, _, f := newTestService(t)
	ctx := context.Background()

	id := createVariant(t, svc, f, "Air Max", "5601234567890")

	view, err := svc.FindVariantByGTIN(ctx, " 5601234567890")
	require.NoError(t, err)
	assert.Equal(t, id, view.VariantID)
	assert.Equal(t, "Air Max", view.DisplayName)
	assert.Equal(t, "Nike", view.BrandName)
	assert.Equal(t, "Sapatilhas", view.CategoryName)
	assert.Equal(t, "Running", view.SubcategoryName)
	assert.Equal(t, "KeyInvoice Import", view.SupplierName)
	assert.Equal(t, "Preto", view.ColorName)
	assert.Equal(t, "42", view.SizeValue)

	_, err = svc.FindVariantByGTIN(ctx, "00000000")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateModel_Conflict(t *testing.T) {
	svc, _, f := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.ResolveOrCreateModel(ctx, f.key("Air Max"), nil)
	require.NoError(t, err)
	pegasus, _, err := svc.ResolveOrCreateModel(ctx, f.key("Pegasus"), nil)
	require.NoError(t, err)

	_, err = svc.UpdateModel(ctx, pegasus, ModelUpdate{DisplayName: ptr("Air Max")})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	m, err := svc.UpdateModel(ctx, pegasus, ModelUpdate{DisplayName: ptr("Pegasus 40"), ExternalRef: ptr("KI-40")})
	require.NoError(t, err)
	assert.Equal(t, "Pegasus 40", m.DisplayName)

	stored, err := svc.GetModel(ctx, pegasus)
	require.NoError(t, err)
	assert.Equal(t, "Pegasus 40", stored.DisplayName)
	assert.Equal(t, "KI-40", *stored.ExternalRef)

	_, err = svc.UpdateModel(ctx, 404, ModelUpdate{DisplayName: ptr("x")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateProductDetails_AllOrNothing(t *testing.T) {
	svc, _, f := newTestService(t)
	ctx := context.Background()

	createVariant(t, svc, f, "Air Max", "5601234567890")

	_, err := svc.UpdateProductDetails(ctx, "5601234567890",
		ModelUpdate{DisplayName: ptr("Air Max 90")},
		VariantUpdate{ColorID: ptr(int64(404))})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	view, err := svc.FindVariantByGTIN(ctx, "5601234567890")
	require.NoError(t, err)
	assert.Equal(t, "Air Max", view.DisplayName)

	view, err = svc.UpdateProductDetails(ctx, "5601234567890",
		ModelUpdate{DisplayName: ptr("Air Max 90")},
		VariantUpdate{ExternalRefA: ptr(int64(77)), ExternalRefB: ptr("woo-77")})
	require.NoError(t, err)
	assert.Equal(t, "Air Max 90", view.DisplayName)
	assert.Equal(t, int64(77), *view.ExternalRefA)
	assert.Equal(t, "woo-77", *view.ExternalRefB)
}

func TestSearchVariants(t *testing.T) {
	svc, _, f := newTestService(t)
	ctx := context.Background()

	id := createVariant(t, svc, f, "Air Max", "5601234567890")
	_, err := svc.UpdateVariant(ctx, id, VariantUpdate{ExternalRefA: ptr(int64(12))})
	require.NoError(t, err)

	views, err := svc.SearchVariants(ctx, SearchExternalRefA, "12")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "5601234567890", views[0].GTIN)

	views, err = svc.SearchVariants(ctx, SearchGTIN, "999")
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = svc.SearchVariants(ctx, SearchExternalRefA, "abc")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	_, err = svc.SearchVariants(ctx, "colour", "x")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestFindVariantByGTIN_StoreFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewService(db, zap.NewNop(), nil, nil)

	mock.ExpectQuery(`(?s)SELECT .* FROM product_variants AS v JOIN product_models m .* WHERE v\.gtin = \?`).
		WillReturnError(errors.New("connection refused"))

	_, err := svc.FindVariantByGTIN(context.Background(), "12345678")
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
