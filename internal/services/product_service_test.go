package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/models"
)

func TestProductCreate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, logger.Nop())
	ctx := context.Background()

	p, err := svc.Create(ctx, ProductInput{Name: "  Farinha  ", Quantity: ptr(1000.0), PricePerGram: ptr(0.005)})
	require.NoError(t, err)
	assert.Equal(t, "Farinha", p.Name)
	assert.Equal(t, models.UnitGram, p.Unit)
	assert.NotEmpty(t, p.ID)

	tests := []struct {
		name string
		in   ProductInput
		msg  string
	}{
		{"empty name", ProductInput{Name: "  "}, MsgInvalidName},
		{"long name", ProductInput{Name: strings.Repeat("a", 101)}, MsgInvalidName},
		{"negative quantity", ProductInput{Name: "Sal", Quantity: ptr(-1.0)}, MsgInvalidQuantity},
		{"negative price", ProductInput{Name: "Sal", PricePerGram: ptr(-0.1)}, MsgInvalidPrice},
		{"bad unit", ProductInput{Name: "Sal", Unit: "barril"}, MsgInvalidUnit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}

	t.Run("unknown supplier", func(t *testing.T) {
		_, err := svc.Create(ctx, ProductInput{Name: "Sal", SupplierID: ptr("missing")})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestProductList(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		seedProduct(t, db, fmt.Sprintf("Produto %02d", i), models.UnitGram, float64(i), 0)
	}

	products, page, err := svc.List(ctx, PageRequest{Page: 2, Limit: 10, SortBy: "name", SortOrder: "ASC"})
	require.NoError(t, err)
	require.Len(t, products, 5)
	assert.Equal(t, "Produto 10", products[0].Name)
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 15, TotalPages: 2, HasNext: false, HasPrev: true}, page)

	products, page, err = svc.List(ctx, PageRequest{Limit: 500, SortBy: "id; DROP TABLE products"})
	require.NoError(t, err)
	assert.Len(t, products, 15)
	assert.Equal(t, maxPageLimit, page.Limit)
	assert.Equal(t, 1, page.Page)

	products, _, err = svc.List(ctx, PageRequest{SortBy: "quantity", SortOrder: "desc"})
	require.NoError(t, err)
	require.Len(t, products, defaultPageLimit)
	assert.Equal(t, 14.0, products[0].Quantity)
}

func TestProductUpdate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, logger.Nop())
	ctx := context.Background()

	supplier := &models.Supplier{Name: "Moinho"}
	require.NoError(t, db.Create(supplier).Error)
	p := seedProduct(t, db, "Farinha", models.UnitGram, 1000, 0.005)

	updated, err := svc.Update(ctx, p.ID, models.ProductPatch{PricePerGram: ptr(0.006), SupplierID: ptr(supplier.ID)})
	require.NoError(t, err)
	assert.Equal(t, "Farinha", updated.Name)
	assert.Equal(t, 1000.0, updated.Quantity)
	assert.Equal(t, 0.006, updated.Price())
	require.NotNil(t, updated.SupplierID)

	updated, err = svc.Update(ctx, p.ID, models.ProductPatch{SupplierID: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.SupplierID)

	_, err = svc.Update(ctx, p.ID, models.ProductPatch{Quantity: ptr(-5.0)})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Equal(t, 1000.0, quantityOf(t, db, p.ID))

	_, err = svc.Update(ctx, "missing", models.ProductPatch{Name: ptr("x")})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestProductDeleteIsSoft(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, logger.Nop())
	ctx := context.Background()
	p := seedProduct(t, db, "Farinha", models.UnitGram, 1000, 0.005)

	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err := svc.Get(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 1000.0, quantityOf(t, db, p.ID))

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(svc.Delete(ctx, p.ID)))
}

func TestProductImportCSV(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, logger.Nop())
	ctx := context.Background()
	existing := seedProduct(t, db, "Farinha", models.UnitGram, 10, 0)

	csv := "Nome;Quantidade;Unidade;Preço por Grama\n" +
		"Açúcar;500;g;0,004\n" +
		"farinha;1000;KG;0,005\n" +
		";10;g;1\n" +
		"Sal;abc;g;\n"
	encoded, err := charmap.Windows1252.NewEncoder().String(csv)
	require.NoError(t, err)

	result, err := svc.Import(ctx, "produtos.CSV", strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, []string{
		"linha 4: " + MsgInvalidName,
		"linha 5: " + MsgInvalidQuantity,
	}, result.Errors)

	var sugar models.Product
	require.NoError(t, db.Where("name = ?", "Açúcar").First(&sugar).Error)
	assert.Equal(t, 500.0, sugar.Quantity)
	assert.Equal(t, 0.004, sugar.Price())

	var flour models.Product
	require.NoError(t, db.First(&flour, "id = ?", existing.ID).Error)
	assert.Equal(t, 1000.0, flour.Quantity)
	assert.Equal(t, models.UnitKilogram, flour.Unit)
}

func TestProductImportXLSX(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProductService(db, logger.Nop())

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"name", "quantity", "unit", "pricePerGram", "minLevel"},
		{"Ovos", 30, "un", nil, 12},
		{"Manteiga", 250.5, "g", 0.04, nil},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	result, err := svc.Import(context.Background(), "estoque.xlsx", &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)

	var eggs models.Product
	require.NoError(t, db.Where("name = ?", "Ovos").First(&eggs).Error)
	assert.Equal(t, models.UnitPiece, eggs.Unit)
	assert.Equal(t, 30.0, eggs.Quantity)
	assert.Equal(t, 12.0, eggs.EffectiveMinLevel())
}

func TestProductImportRejectsUnknownFormat(t *testing.T) {
	svc := NewProductService(setupTestDB(t), logger.Nop())

	_, err := svc.Import(context.Background(), "produtos.pdf", strings.NewReader("x"))
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = svc.Import(context.Background(), "produtos.csv", strings.NewReader("foo,bar\n1,2\n"))
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"name,quantity,unit", ','},
		{"nome;quantidade;unidade\nSal;0,5;kg", ';'},
		{"name\tquantity\tunit", '\t'},
		{"name|quantity", '|'},
		{"name", ','},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectDelimiter([]byte(tt.in)), tt.in)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetJSON(ctx, "reports:stock", []int{1, 2}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, "ifood:config", map[string]string{"a": "b"}, 0))

	var got []int
	ok, err := c.GetJSON(ctx, "reports:stock", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, got)

	now = now.Add(2 * time.Minute)
	ok, err = c.GetJSON(ctx, "reports:stock", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	var cfg map[string]string
	ok, _ = c.GetJSON(ctx, "ifood:config", &cfg)
	assert.True(t, ok)

	require.NoError(t, c.SetJSON(ctx, "reports:capability", 1, 0))
	require.NoError(t, c.DeletePrefix(ctx, "reports:"))
	var n int
	ok, _ = c.GetJSON(ctx, "reports:capability", &n)
	assert.False(t, ok)
	ok, _ = c.GetJSON(ctx, "ifood:config", &cfg)
	assert.True(t, ok)
}
