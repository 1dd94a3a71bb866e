// Command import_ingredients loads a supplier price list into the ingredient
// catalogue. It reads CSV files with a header row, or PDF price lists with one
// "name quantity unit price" entry per line. Existing ingredients (matched by
// name, ignoring case) are repriced and keep their stock.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"sagradodoce/internal/bakery"
	"sagradodoce/internal/config"
	"sagradodoce/internal/db"
	applog "sagradodoce/internal/log"
)

var (
	cleanWhitespace = regexp.MustCompile(`\s+`)
	// "Leite condensado 395 g R$ 6,49"
	priceLinePattern = regexp.MustCompile(`(?i)^(.+?)\s+(\d+(?:[.,]\d+)?)\s*(kg|kilo|g|gr|l|lt|ml|un|unidade|unit|pcs)\.?\s+(?:r\$\s*)?(\d{1,3}(?:\.\d{3})*(?:,\d+)?|\d+(?:[.,]\d+)?)$`)
)

// priceRow is one supplier entry before it becomes an IngredientSpec. Err holds
// a field that could not be read; such rows are reported and never saved.
type priceRow struct {
	Line            int
	Name            string
	PurchaseUnit    string
	PackageQuantity float64
	PackageCost     decimal.Decimal
	MinimumStock    float64
	InitialStock    float64
	Err             error
}

type importSummary struct {
	Created int
	Updated int
	Skipped []string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: import_ingredients <price-list.csv|price-list.pdf>")
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("price list path must not be empty")
	}
	rows, err := readPriceList(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	database, err := db.Configure(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	svc := bakery.New(database, bakery.Options{RetryBackoff: cfg.Database.RetryBackoff})
	summary, err := importRows(ctx, svc, rows)
	if err != nil {
		return err
	}
	applog.Info(ctx, "price list imported", "path", path, "created", summary.Created, "updated", summary.Updated, "skipped", len(summary.Skipped))
	for _, reason := range summary.Skipped {
		fmt.Fprintln(os.Stderr, "skipped:", reason)
	}
	return nil
}

func readPriceList(path string) ([]priceRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price list: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := extractTextFromPDF(data)
		if err != nil {
			return nil, fmt.Errorf("read pdf: %w", err)
		}
		return parsePriceText(text), nil
	case ".csv":
		return parseCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported price list %q: expected .csv or .pdf", filepath.Base(path))
	}
}

// importRows saves each row on its own so one bad line does not abort the file.
// Only storage failures stop the import.
func importRows(ctx context.Context, svc *bakery.Service, rows []priceRow) (importSummary, error) {
	var summary importSummary

	existing, err := svc.ListIngredients(ctx, false)
	if err != nil {
		return summary, fmt.Errorf("list ingredients: %w", err)
	}
	byName := make(map[string]uint, len(existing))
	for _, ingredient := range existing {
		byName[strings.ToLower(ingredient.Name)] = ingredient.ID
	}

	for _, row := range rows {
		if row.Err != nil {
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("line %d (%s): %v", row.Line, row.Name, row.Err))
			continue
		}
		key := strings.ToLower(row.Name)
		spec := bakery.IngredientSpec{
			ID:              byName[key],
			Name:            row.Name,
			PurchaseUnit:    row.PurchaseUnit,
			PackageQuantity: row.PackageQuantity,
			PackageCost:     row.PackageCost,
			MinimumStock:    row.MinimumStock,
			InitialStock:    row.InitialStock,
		}
		saved, err := svc.SaveIngredient(ctx, spec)
		switch {
		case errors.Is(err, bakery.ErrInvalidInput) || errors.Is(err, bakery.ErrNotFound):
			summary.Skipped = append(summary.Skipped, fmt.Sprintf("line %d (%s): %v", row.Line, row.Name, err))
			continue
		case err != nil:
			return summary, fmt.Errorf("save %q: %w", row.Name, err)
		}

		if spec.ID == 0 {
			summary.Created++
			byName[key] = saved.ID
		} else {
			summary.Updated++
		}
	}
	return summary, nil
}

// parseCSV reads a header-driven CSV. name, unit, quantity and cost are required
// columns; minimum and stock are optional.
func parseCSV(r io.Reader) ([]priceRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[columnKey(name)] = idx
	}
	for _, required := range []string{"name", "unit", "quantity", "cost"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("csv header is missing the %q column", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return normalizeValue(record[idx])
	}

	var rows []priceRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		name := field(record, "name")
		if name == "" {
			continue
		}
		row := priceRow{
			Line:            line,
			Name:            name,
			PurchaseUnit:    field(record, "unit"),
			PackageQuantity: parseNumber(field(record, "quantity")),
			MinimumStock:    parseNumber(field(record, "minimum")),
			InitialStock:    parseNumber(field(record, "stock")),
		}
		raw := field(record, "cost")
		if row.PackageCost, err = parseAmount(raw); err != nil {
			row.Err = fmt.Errorf("unreadable package cost %q", raw)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnKey(header string) string {
	switch key := strings.ToLower(normalizeValue(header)); key {
	case "ingredient", "ingrediente", "nome":
		return "name"
	case "purchase_unit", "unidade":
		return "unit"
	case "package_quantity", "qty", "quantidade":
		return "quantity"
	case "package_cost", "price", "preco", "preço":
		return "cost"
	case "minimum_stock", "min", "minimo", "mínimo":
		return "minimum"
	case "initial_stock", "on_hand", "estoque":
		return "stock"
	default:
		return key
	}
}

// parsePriceText picks the priced lines out of extracted PDF text and ignores the rest.
func parsePriceText(text string) []priceRow {
	var rows []priceRow
	for idx, raw := range strings.Split(text, "\n") {
		line := normalizeValue(raw)
		match := priceLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		cost, err := parseAmount(match[4])
		if err != nil {
			continue
		}
		rows = append(rows, priceRow{
			Line:            idx + 1,
			Name:            strings.TrimRight(match[1], " -:"),
			PurchaseUnit:    match[3],
			PackageQuantity: parseNumber(match[2]),
			PackageCost:     cost,
		})
	}
	return rows
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					builder.WriteString(" ")
				}
				builder.WriteString(word.S)
			}
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

func normalizeValue(value string) string {
	return strings.TrimSpace(cleanWhitespace.ReplaceAllString(value, " "))
}

// parseAmount accepts both "1234.56" and the Brazilian "R$ 1.234,56".
func parseAmount(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(canonicalNumber(value))
}

func parseNumber(value string) float64 {
	parsed, err := strconv.ParseFloat(canonicalNumber(value), 64)
	if err != nil {
		return 0
	}
	return parsed
}

func canonicalNumber(value string) string {
	value = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "R$"))
	value = strings.ReplaceAll(value, " ", "")
	if strings.Contains(value, ",") {
		value = strings.ReplaceAll(value, ".", "")
		value = strings.ReplaceAll(value, ",", ".")
	}
	return value
}
