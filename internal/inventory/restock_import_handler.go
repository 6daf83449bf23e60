package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"stocktier-backend/internal/auth"
	"stocktier-backend/internal/database"
	"stocktier-backend/internal/ledger"
	"stocktier-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ParsedRestockRow: one usable line from an uploaded manifest.
type ParsedRestockRow struct {
	SKU      string
	Quantity int
	UnitCost decimal.Decimal
}

// ParseRestockRows extracts (sku, quantity[, unit cost]) rows from a
// sheet. A first row that looks like a header is skipped. Unusable
// rows come back as messages, not errors.
func ParseRestockRows(rows [][]string) ([]ParsedRestockRow, []string) {
	parsed := make([]ParsedRestockRow, 0, len(rows))
	problems := make([]string, 0)

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		first := strings.ToUpper(strings.TrimSpace(rows[0][0]))
		if strings.Contains(first, "SKU") || strings.Contains(first, "PRODUCT") {
			start = 1
		}
	}

	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 2 {
			problems = append(problems, fmt.Sprintf("row %d: quantity column missing", i+1))
			continue
		}

		sku := strings.ToUpper(strings.TrimSpace(row[0]))
		qty, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || qty <= 0 {
			problems = append(problems, fmt.Sprintf("row %d: quantity %q is not a positive integer", i+1, row[1]))
			continue
		}

		out := ParsedRestockRow{SKU: sku, Quantity: qty}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			cost, err := decimal.NewFromString(strings.TrimSpace(row[2]))
			if err != nil || cost.IsNegative() {
				problems = append(problems, fmt.Sprintf("row %d: unit cost %q is not a valid amount", i+1, row[2]))
				continue
			}
			out.UnitCost = cost
		}
		parsed = append(parsed, out)
	}
	return parsed, problems
}

// POST /api/stock/restock-import?warehouse_id=
// Bulk inbound stock from an .xlsx manifest: SKU | Quantity | Unit Cost.
// Matched rows go through the ledger (one movement each); unmatched
// and unusable rows are reported without failing the batch.
func RestockImportHandler(store ledger.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		warehouseID := c.QueryInt("warehouse_id")
		if warehouseID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "warehouse_id is required")
		}
		var warehouse models.Warehouse
		if err := database.DB.First(&warehouse, warehouseID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Warehouse not found")
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File upload failed: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "File could not be opened")
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Workbook could not be read: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Workbook has no sheets")
		}
		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet could not be read: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Workbook is empty")
		}

		parsed, problems := ParseRestockRows(rows)

		actor := auth.Actor(c)
		applied := 0
		unmatched := make([]string, 0)
		for _, row := range parsed {
			var product models.Product
			if err := database.DB.Where("sku = ? AND is_active = true", row.SKU).First(&product).Error; err != nil {
				unmatched = append(unmatched, row.SKU)
				continue
			}

			_, err := store.Restock(c.Context(), ledger.RestockInput{
				ProductID:   product.ID,
				WarehouseID: uint(warehouseID),
				Quantity:    row.Quantity,
				UnitCost:    row.UnitCost,
				Reason:      fmt.Sprintf("manifest import %s", fileHeader.Filename),
				Actor:       actor,
			})
			if err != nil {
				problems = append(problems, fmt.Sprintf("sku %s: %v", row.SKU, err))
				continue
			}
			applied++
		}

		return c.JSON(fiber.Map{
			"success":       true,
			"applied":       applied,
			"unmatched_sku": unmatched,
			"problems":      problems,
		})
	}
}
