package importer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"sapataria/core/apperror"
	"sapataria/core/config"
	"sapataria/core/database"
	"sapataria/core/reconcile"
	"sapataria/core/storage/mocks"
	"sapataria/feature/catalog"
	"sapataria/feature/product"
	"sapataria/feature/stock"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var sheetHeader = []any{
	"Ref. Keyinvoice", "Ref. Woocomerce", "Categoria", "Subcategoria", "Marca",
	"Nome", "Cor", "TAMANHO", "CODIGO DE BARRAS",
}

func workbook(t *testing.T, lines ...[]any) *bytes.Buffer {
	f := excelize.NewFile()
	defer f.Close()
	all := append([][]any{sheetHeader}, lines...)
	for i, line := range all {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &line))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

type testEnv struct {
	db       *gorm.DB
	svc      *Service
	catalog  *catalog.Service
	products *product.Service
	stock    *stock.Service
	client   *mocks.Client
}

func setup(t *testing.T, warehouses ...string) *testEnv {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	models := append(catalog.Models(), product.Models()...)
	require.NoError(t, database.Migrate(db, append(models, stock.Models()...)...))

	e := &testEnv{db: db, client: new(mocks.Client)}
	e.catalog = catalog.NewService(db, zap.NewNop(), nil, nil, nil)
	e.products = product.NewService(db, zap.NewNop(), nil, nil)
	e.stock = stock.NewService(db, zap.NewNop(), e.products, nil, nil)
	for _, w := range warehouses {
		_, _, err := e.catalog.GetOrCreate(context.Background(), catalog.Warehouses, w)
		require.NoError(t, err)
	}
	cfg := config.ImportConfig{DefaultSupplier: "KeyInvoice Import", InitialQuantity: 1, ReportsPrefix: "reports"}
	e.svc = NewService(e.catalog, e.products, e.stock, e.client, "inventory", cfg, zap.NewNop(), nil)
	return e
}

func confirmed() reconcile.Options { return reconcile.Options{Confirmed: true} }

func TestParseWorkbook(t *testing.T) {
	buf := workbook(t,
		[]any{"KI-1", 77, "Sapatos", "Mocassins", "Camper", "Classic", "Preto", 42, "560-001 234"},
		[]any{},
		[]any{"KI-2", "", "Sapatos", "Botas", "Camper", "Boot", "Preto", 41, "5601234567890"},
	)
	rows, err := ParseWorkbook(buf, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Index)
	assert.Equal(t, "560-001 234", rows[0].Get(FieldGTIN))
	assert.Equal(t, "77", rows[0].Get(FieldRefWooCommerce))
	assert.Equal(t, "42", rows[0].Get(FieldSize))
	assert.Equal(t, 4, rows[1].Index)
	assert.Equal(t, "5601234567890", rows[1].Get(FieldGTIN))
}

func TestCanonicalField(t *testing.T) {
	assert.Equal(t, FieldGTIN, CanonicalField(" CODIGO DE BARRAS "))
	assert.Equal(t, FieldName, CanonicalField("Nome *"))
	assert.Equal(t, FieldBrand, CanonicalField("brand"))
	assert.Equal(t, "unit_price", CanonicalField("Unit Price"))
}

func TestParseCodes(t *testing.T) {
	rows := ParseCodes("5601234567890\n 560-001 234 ;\r\n,12345678")
	require.Len(t, rows, 3)
	assert.Equal(t, "560-001 234", rows[1].Get(FieldGTIN))
	assert.Equal(t, 3, rows[2].Index)
}

func TestImport_BatchIsolation(t *testing.T) {
	e := setup(t, "Loja", "Armazem")
	ctx := context.Background()

	rows, err := ParseWorkbook(workbook(t,
		[]any{"KI-1", 77, "Sapatos", "Mocassins", "Camper", "Classic", "Preto", 42, "560-001 234"},
		[]any{"KI-2", "", "Sapatos", "Mocassins", "Camper", "Classic", "Castanho", 42, "1234"},
		[]any{"KI-3", "", "Sapatos", "Mocassins", "Camper", "Classic", "Branco", 43, ""},
		[]any{"KI-4", "", "Sapatos", "", "Camper", "Classic", "Branco", 43, "5609999999999"},
		[]any{"KI-5", "", "Sapatos", "Mocassins", "Camper", "Classic", "Branco", 43, "5608888888888"},
	), "")
	require.NoError(t, err)

	report, err := e.svc.Import(ctx, rows, confirmed())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Tally.Total)
	assert.Equal(t, 1, report.Tally.SkippedNoKey)
	assert.Equal(t, 4, report.Tally.Processed)
	assert.Equal(t, 2, report.Tally.OK)
	assert.Equal(t, 1, report.Tally.RejectedInvalidKey)
	assert.Equal(t, 1, report.Tally.RejectedError)
	assert.Equal(t, 1, report.Tally.Effects["models_created"])
	assert.Equal(t, 1, report.Tally.Effects["models_reused"])
	assert.Equal(t, 2, report.Tally.Effects["variants_created"])
	assert.Equal(t, 4, report.Tally.Effects["stock_rows_set"])

	view, err := e.products.FindVariantByGTIN(ctx, "560001234")
	require.NoError(t, err)
	assert.Equal(t, "Classic", view.DisplayName)
	assert.Equal(t, int64(77), *view.ExternalRefA)
	assert.Equal(t, "KI-1", *view.ModelExternalRef)

	d, err := e.stock.Detail(ctx, "5608888888888")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Total)

	failures := report.Failures()
	require.Len(t, failures, 3)
	assert.Equal(t, reconcile.OutcomeRejectedInvalidKey, failures[0].Outcome)
	assert.Equal(t, 3, failures[0].Index)
}

func TestImport_RerunIsIdempotent(t *testing.T) {
	e := setup(t, "Loja")
	ctx := context.Background()
	rows := []reconcile.Row{{Index: 2, Fields: map[string]string{
		FieldCategory: "Sapatos", FieldSubcategory: "Botas", FieldBrand: "Camper",
		FieldName: "Boot", FieldColor: "Preto", FieldSize: "41", FieldGTIN: "5601234567890",
	}}}

	_, err := e.svc.Import(ctx, rows, confirmed())
	require.NoError(t, err)
	report, err := e.svc.Import(ctx, rows, confirmed())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Tally.OK)
	assert.Equal(t, 1, report.Tally.Effects["variants_updated"])
	assert.Zero(t, report.Tally.Effects["brands_created"])

	qty, err := e.stock.Detail(ctx, "5601234567890")
	require.NoError(t, err)
	assert.Equal(t, 1, qty.Total)
}

func TestImport_NoWarehousesAbortsBatch(t *testing.T) {
	e := setup(t)
	rows := []reconcile.Row{{Index: 2, Fields: map[string]string{
		FieldCategory: "Sapatos", FieldSubcategory: "Botas", FieldBrand: "Camper",
		FieldName: "Boot", FieldColor: "Preto", FieldSize: "41", FieldGTIN: "5601234567890",
	}}}

	_, err := e.svc.Import(context.Background(), rows, confirmed())
	assert.Error(t, err)

	_, err = e.products.FindVariantByGTIN(context.Background(), "5601234567890")
	assert.Error(t, err)
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	e := setup(t, "Loja")
	rows := ParseCodes("5601234567890")
	rows[0].Fields[FieldCategory] = "Sapatos"
	rows[0].Fields[FieldSubcategory] = "Botas"
	rows[0].Fields[FieldBrand] = "Camper"
	rows[0].Fields[FieldName] = "Boot"
	rows[0].Fields[FieldColor] = "Preto"
	rows[0].Fields[FieldSize] = "41"

	report, err := e.svc.Import(context.Background(), rows, reconcile.Options{DryRun: true, Confirmed: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Tally.Pending)

	brands, err := e.catalog.List(context.Background(), catalog.Brands)
	require.NoError(t, err)
	assert.Empty(t, brands)
}

func seedVariant(t *testing.T, e *testEnv, gtin string, qty int) (int64, int64) {
	ctx := context.Background()
	loja, _, err := e.catalog.GetOrCreate(ctx, catalog.Warehouses, "Loja")
	require.NoError(t, err)
	rows := []reconcile.Row{{Index: 2, Fields: map[string]string{
		FieldCategory: "Sapatos", FieldSubcategory: "Botas", FieldBrand: "Camper",
		FieldName: "Boot", FieldColor: "Preto", FieldSize: "41", FieldGTIN: gtin,
	}}}
	_, err = e.svc.Import(ctx, rows, confirmed())
	require.NoError(t, err)
	view, err := e.products.FindVariantByGTIN(ctx, gtin)
	require.NoError(t, err)
	require.NoError(t, e.stock.SetStock(ctx, view.VariantID, loja, qty))
	return view.VariantID, loja
}

func TestBulkUpdate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	v, loja := seedVariant(t, e, "5601234567890", 5)

	rows := ParseCodes("5601234567890\n0000000000000\n12")
	report, err := e.svc.BulkUpdate(ctx, rows, UpdateOptions{Op: OpRemove, WarehouseID: loja, Quantity: 2}, confirmed())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tally.OK)
	assert.Equal(t, 1, report.Tally.RejectedError)
	assert.Equal(t, 1, report.Tally.RejectedInvalidKey)

	qty, err := e.stock.Quantity(ctx, v, loja)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	report, err = e.svc.BulkUpdate(ctx, ParseCodes("5601234567890"), UpdateOptions{Op: OpRemove, WarehouseID: loja, Quantity: 10}, confirmed())
	require.NoError(t, err)
	require.Len(t, report.Failures(), 1)
	assert.Equal(t, "insufficient_stock", report.Failures()[0].Kind)

	report, err = e.svc.BulkUpdate(ctx, ParseCodes("5601234567890"), UpdateOptions{Op: OpAdd, WarehouseID: loja, Quantity: 0}, confirmed())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tally.RejectedError)

	_, err = e.svc.BulkUpdate(ctx, ParseCodes("5601234567890"), UpdateOptions{Op: OpSet, WarehouseID: 999, Quantity: 1}, confirmed())
	assert.Error(t, err)

	for _, cell := range []string{"abc", "2.5"} {
		rows := ParseCodes("5601234567890")
		rows[0].Fields[FieldQuantity] = cell
		report, err := e.svc.BulkUpdate(ctx, rows, UpdateOptions{Op: OpSet, WarehouseID: loja, Quantity: 1}, confirmed())
		require.NoError(t, err)
		require.Len(t, report.Failures(), 1, cell)
		assert.Equal(t, "invalid_input", report.Failures()[0].Kind, cell)

		qty, err := e.stock.Quantity(ctx, v, loja)
		require.NoError(t, err)
		assert.Equal(t, 3, qty, cell)
	}

	rows = ParseCodes("5601234567890")
	rows[0].Fields[FieldQuantity] = "8.0"
	report, err = e.svc.BulkUpdate(ctx, rows, UpdateOptions{Op: OpSet, WarehouseID: loja, Quantity: 1}, confirmed())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tally.OK)
	qty, err = e.stock.Quantity(ctx, v, loja)
	require.NoError(t, err)
	assert.Equal(t, 8, qty)
}

// failStockWrites makes every insert into stock_entries fail.
func failStockWrites(t *testing.T, db *gorm.DB) {
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_stock_writes", func(tx *gorm.DB) {
		if tx.Statement.Table == "stock_entries" {
			_ = tx.AddError(errors.New("connection reset by peer"))
		}
	})
	require.NoError(t, err)
}

func TestImport_StockWriteFailureLeavesNoVariant(t *testing.T) {
	e := setup(t, "Loja", "Armazem")
	ctx := context.Background()
	failStockWrites(t, e.db)

	rows := []reconcile.Row{{Index: 2, Fields: map[string]string{
		FieldCategory: "Sapatos", FieldSubcategory: "Botas", FieldBrand: "Camper",
		FieldName: "Boot", FieldColor: "Preto", FieldSize: "41", FieldGTIN: "5601234567890",
	}}}
	report, err := e.svc.Import(ctx, rows, confirmed())
	require.NoError(t, err)

	require.Len(t, report.Failures(), 1)
	assert.Equal(t, "unavailable", report.Failures()[0].Kind)
	assert.Equal(t, 1, report.Tally.Effects["brands_created"])
	assert.Equal(t, 1, report.Tally.Effects["models_created"])
	assert.Equal(t, 1, report.Tally.Effects["variants_created"])
	assert.Equal(t, 1, report.Tally.Effects["variants_discarded"])

	_, err = e.products.FindVariantByGTIN(ctx, "5601234567890")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestParseOp(t *testing.T) {
	op, err := ParseOp(" Add ")
	require.NoError(t, err)
	assert.Equal(t, OpAdd, op)
	_, err = ParseOp("move")
	assert.Error(t, err)
}

func TestExportWarehouse(t *testing.T) {
	e := setup(t)
	_, loja := seedVariant(t, e, "5601234567890", 4)

	var buf bytes.Buffer
	require.NoError(t, e.svc.ExportWarehouse(context.Background(), loja, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	lines, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"GTIN", "Model", "Brand", "Color", "Size", "Quantity"}, lines[0])
	assert.Equal(t, []string{"5601234567890", "Boot", "Camper", "Preto", "41", "4"}, lines[1])
}

func TestStoreRejects(t *testing.T) {
	e := setup(t, "Loja")
	ctx := context.Background()

	report, err := e.svc.BulkUpdate(ctx, ParseCodes("12"), UpdateOptions{Op: OpAdd, WarehouseID: 1, Quantity: 1}, confirmed())
	require.NoError(t, err)

	e.client.On("PutObject", mock.Anything, "inventory", mock.MatchedBy(func(key string) bool {
		return len(key) > len("reports/rejects-") && key[:len("reports/rejects-")] == "reports/rejects-"
	}), mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil).Once()

	key, err := e.svc.StoreRejects(ctx, report)
	require.NoError(t, err)
	assert.Contains(t, key, report.RunID)
	e.client.AssertExpectations(t)
}
