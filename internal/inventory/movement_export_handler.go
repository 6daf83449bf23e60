package inventory

import (
	"fmt"
	"time"

	"stocktier-backend/internal/database"
	"stocktier-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/stock/movements/export?warehouse_id=&from=&to=
// Streams the movement log as an .xlsx workbook.
func ExportMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.
			Preload("Product").
			Preload("Warehouse").
			Order("created_at ASC, id ASC")

		if warehouseID := c.QueryInt("warehouse_id"); warehouseID > 0 {
			q = q.Where("warehouse_id = ?", warehouseID)
		}
		if from := c.Query("from"); from != "" {
			d, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from must be 'YYYY-MM-DD'")
			}
			q = q.Where("created_at >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to must be 'YYYY-MM-DD'")
			}
			q = q.Where("created_at < ?", d.AddDate(0, 0, 1))
		}

		var movements []models.StockMovement
		if err := q.Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load movements")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := f.GetSheetName(0)
		headers := []string{"Date", "Product", "SKU", "Warehouse", "Direction", "Quantity", "Previous Stock", "New Stock", "Unit Cost", "Reference Type", "Reference ID", "Reason", "By"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(sheet, cell, h)
		}

		for i, m := range movements {
			row := i + 2
			values := []any{
				m.CreatedAt.Format("2006-01-02 15:04:05"),
				m.Product.Name,
				m.Product.SKU,
				m.Warehouse.Code,
				string(m.Direction),
				m.Quantity,
				m.PreviousStock,
				m.NewStock,
				m.UnitCost.InexactFloat64(),
				string(m.ReferenceType),
				m.ReferenceID,
				m.Reason,
				m.CreatedBy,
			}
			for j, v := range values {
				cell, _ := excelize.CoordinatesToCellName(j+1, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to build workbook")
		}

		filename := fmt.Sprintf("stock-movements-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}
