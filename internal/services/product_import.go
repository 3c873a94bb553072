package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gorm.io/gorm"

	"github.com/lchampz/saas-bakery/internal/apperr"
	"github.com/lchampz/saas-bakery/internal/models"
)

const MsgUnsupportedFile = "Formato de arquivo não suportado (use .csv ou .xlsx)"

// header aliases -> import field. Portuguese names match the CSV export.
var importColumns = map[string]string{
	"name":            "name",
	"nome":            "name",
	"quantity":        "quantity",
	"quantidade":      "quantity",
	"unit":            "unit",
	"unidade":         "unit",
	"pricepergram":    "pricePerGram",
	"preço por grama": "pricePerGram",
	"preco por grama": "pricePerGram",
	"minlevel":        "minLevel",
	"nível mínimo":    "minLevel",
	"nivel minimo":    "minLevel",
}

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// Import upserts products by name from a CSV or XLSX upload. Rows that fail
// validation are skipped and reported; the rest are written in one transaction.
func (s *ProductService) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var rows []map[string]string
	switch lower := strings.ToLower(filename); {
	case strings.HasSuffix(lower, ".csv"):
		rows, err = parseProductCSV(data)
	case strings.HasSuffix(lower, ".xlsx"):
		rows, err = parseProductXLSX(data)
	default:
		return nil, apperr.InvalidArgument(MsgUnsupportedFile)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidArgument, "Arquivo inválido", err)
	}

	result := &ImportResult{Errors: []string{}}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			line := i + 2
			if err := upsertImportRow(tx, row, result); err != nil {
				if _, ok := apperr.As(err); !ok {
					return err
				}
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("linha %d: %s", line, err.Error()))
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromGorm(err, MsgProductNotFound)
	}

	s.logger.Info("✅ Product import finished", "file", filename,
		"created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	if result.Created+result.Updated > 0 {
		invalidateReports(ctx, s.cache, s.logger)
	}
	return result, nil
}

func upsertImportRow(tx *gorm.DB, row map[string]string, result *ImportResult) error {
	name := strings.TrimSpace(row["name"])
	if name == "" {
		return apperr.InvalidArgument(MsgInvalidName)
	}

	var product models.Product
	err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&product).Error
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		return err
	}
	if isNew {
		product = models.Product{Name: name, Unit: models.UnitGram}
	}

	if v, ok, err := importNumber(row, "quantity"); err != nil {
		return apperr.InvalidArgument(MsgInvalidQuantity)
	} else if ok {
		product.Quantity = v
	}
	if u := row["unit"]; strings.TrimSpace(u) != "" {
		product.Unit = models.NormalizeUnit(u)
	}
	if v, ok, err := importNumber(row, "pricePerGram"); err != nil {
		return apperr.InvalidArgument(MsgInvalidPrice)
	} else if ok {
		product.PricePerGram = &v
	}
	if v, ok, err := importNumber(row, "minLevel"); err != nil {
		return apperr.InvalidArgument(MsgInvalidQuantity)
	} else if ok {
		product.MinLevel = &v
	}
	if err := validateProduct(&product); err != nil {
		return err
	}

	if isNew {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		result.Created++
		return nil
	}
	if err := tx.Omit("Supplier").Save(&product).Error; err != nil {
		return err
	}
	result.Updated++
	return nil
}

// importNumber reads a numeric cell; "0,005" and "0.005" are both accepted
func importNumber(row map[string]string, field string) (float64, bool, error) {
	raw := strings.TrimSpace(row[field])
	if raw == "" {
		return 0, false, nil
	}
	raw = strings.ReplaceAll(raw, " ", "")
	if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// parseProductCSV decodes Windows-1252 when the file is not valid UTF-8 and
// sniffs the delimiter from the first bytes.
func parseProductCSV(data []byte) ([]map[string]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err == nil {
			data = decoded
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return mapImportRows(records)
}

func parseProductXLSX(data []byte) ([]map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return mapImportRows(records)
}

// mapImportRows takes the first non-empty record as the header and keys every
// later record by import field. Blank rows are dropped.
func mapImportRows(records [][]string) ([]map[string]string, error) {
	headerAt := -1
	for i, rec := range records {
		if strings.TrimSpace(strings.Join(rec, "")) != "" {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, errors.New("file is empty")
	}

	fields := make([]string, len(records[headerAt]))
	known := 0
	for i, h := range records[headerAt] {
		key := strings.ToLower(strings.TrimSpace(strings.Trim(h, "\"'\t")))
		fields[i] = importColumns[key]
		if fields[i] != "" {
			known++
		}
	}
	if known == 0 {
		return nil, errors.New("no known columns in header")
	}

	rows := make([]map[string]string, 0, len(records)-headerAt-1)
	for _, rec := range records[headerAt+1:] {
		row := make(map[string]string, len(fields))
		hasData := false
		for i, value := range rec {
			if i >= len(fields) || fields[i] == "" {
				continue
			}
			v := strings.TrimSpace(strings.Trim(value, "\"'\t"))
			row[fields[i]] = v
			if v != "" {
				hasData = true
			}
		}
		if hasData {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// detectDelimiter picks the most frequent of , ; tab | in the first 1000 bytes
func detectDelimiter(data []byte) rune {
	sample := string(data)
	if len(sample) > 1000 {
		sample = sample[:1000]
	}

	delimiter, best := ',', strings.Count(sample, ",")
	for _, d := range []rune{';', '\t', '|'} {
		if n := strings.Count(sample, string(d)); n > best {
			delimiter, best = d, n
		}
	}
	return delimiter
}
