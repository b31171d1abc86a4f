package importer

import (
	"fmt"
	"io"
	"strings"

	"sapataria/core/reconcile"

	"github.com/xuri/excelize/v2"
)

// Canonical field names of an import row.
const (
	FieldRefKeyInvoice  = "ref_keyinvoice"
	FieldRefWooCommerce = "ref_woocommerce"
	FieldCategory       = "category"
	FieldSubcategory    = "subcategory"
	FieldBrand          = "brand"
	FieldName           = "name"
	FieldColor          = "color"
	FieldSize           = "size"
	FieldGTIN           = "gtin"
	FieldSupplier       = "supplier"
	FieldQuantity       = "quantity"
)

// Columns is the order rejects reports list the original fields in.
var Columns = []string{
	FieldRefKeyInvoice, FieldRefWooCommerce, FieldCategory, FieldSubcategory, FieldBrand,
	FieldName, FieldColor, FieldSize, FieldGTIN, FieldSupplier, FieldQuantity,
}

var headerAliases = map[string]string{
	"ref. keyinvoice":  FieldRefKeyInvoice,
	"ref keyinvoice":   FieldRefKeyInvoice,
	"ref. woocomerce":  FieldRefWooCommerce,
	"ref. woocommerce": FieldRefWooCommerce,
	"ref woocommerce":  FieldRefWooCommerce,
	"categoria":        FieldCategory,
	"subcategoria":     FieldSubcategory,
	"marca":            FieldBrand,
	"nome":             FieldName,
	"cor":              FieldColor,
	"colour":           FieldColor,
	"tamanho":          FieldSize,
	"codigo de barras": FieldGTIN,
	"código de barras": FieldGTIN,
	"ean":              FieldGTIN,
	"barcode":          FieldGTIN,
	"fornecedor":       FieldSupplier,
	"quantidade":       FieldQuantity,
	"qty":              FieldQuantity,
}

// CanonicalField maps a spreadsheet header to its canonical field name.
// Unknown headers are lowercased with spaces replaced by underscores.
func CanonicalField(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.TrimSpace(strings.TrimSuffix(h, "*"))
	if f, ok := headerAliases[h]; ok {
		return f
	}
	return strings.ReplaceAll(h, " ", "_")
}

// ParseWorkbook reads the rows of sheet (the first sheet when empty). The first
// non-empty line is the header; Row.Index is the 1-based spreadsheet line.
func ParseWorkbook(r io.Reader, sheet string) ([]reconcile.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	// Raw values keep long barcodes out of scientific notation.
	lines, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	headerAt := -1
	for i, line := range lines {
		if !blank(line) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, nil
	}

	headers := make([]string, len(lines[headerAt]))
	for i, h := range lines[headerAt] {
		headers[i] = CanonicalField(h)
	}

	var rows []reconcile.Row
	for i := headerAt + 1; i < len(lines); i++ {
		if blank(lines[i]) {
			continue
		}
		fields := make(map[string]string, len(headers))
		for j, value := range lines[i] {
			if j < len(headers) && headers[j] != "" {
				fields[headers[j]] = strings.TrimSpace(value)
			}
		}
		rows = append(rows, reconcile.Row{Index: i + 1, Fields: fields})
	}
	return rows, nil
}

// ParseCodes turns a free-text list of codes (one per line, or separated by
// commas, semicolons or tabs) into rows carrying only a GTIN.
func ParseCodes(text string) []reconcile.Row {
	codes := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\t' || r == '\n' || r == '\r'
	})
	rows := make([]reconcile.Row, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		rows = append(rows, reconcile.Row{Index: len(rows) + 1, Fields: map[string]string{FieldGTIN: code}})
	}
	return rows
}

func blank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
