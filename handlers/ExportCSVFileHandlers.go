package handlers

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"procurement/models"
	"procurement/services"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

var quoteExportHeaders = []string{
	"Rank", "Quote Number", "Vendor", "Base Price", "GST %", "GST Amount",
	"Transport", "Landed Cost", "Delivery Days", "Status", "Submitted At",
}

// ExportRFQQuotes downloads an RFQ's quote comparison as XLSX (default) or CSV.
// @Summary Export quote comparison
// @Description Quotes are ordered cheapest landed cost first. Use format=csv for a CSV file.
// @Tags Quotes
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Security BearerAuth
// @Param rfq_id path string true "RFQ ID"
// @Param format query string false "xlsx or csv" Enums(xlsx, csv)
// @Success 200 {file} file
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfqs/{rfq_id}/quotes/export [get]
func ExportRFQQuotes(engine *services.QuoteEngine, catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := strings.ToLower(c.DefaultQuery("format", "xlsx"))
		if format != "xlsx" && format != "csv" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format", "details": "format must be xlsx or csv"})
			return
		}

		tenant := tenantFrom(c)
		rfq, quotes, err := engine.ListRFQQuotes(c.Request.Context(), tenant, c.Param("rfq_id"))
		if err != nil {
			respondError(c, "Failed to list quotes", err)
			return
		}
		// Looked up per quote so tombstoned vendors keep their names.
		vendorNames := make(map[string]string)
		for _, q := range quotes {
			if _, seen := vendorNames[q.VendorID]; seen {
				continue
			}
			vendor, err := catalog.GetVendor(c.Request.Context(), tenant, q.VendorID)
			if err != nil {
				respondError(c, "Failed to fetch vendor", err)
				return
			}
			vendorNames[q.VendorID] = vendor.Name
		}

		rows := make([][]interface{}, 0, len(quotes))
		for i, q := range quotes {
			rows = append(rows, quoteExportRow(i+1, q, vendorNames))
		}

		base := "quotes_" + rfq.ID
		if format == "csv" {
			writeQuotesCSV(c, base+".csv", rows)
			return
		}
		writeQuotesXLSX(c, base+".xlsx", rfq, rows)
	}
}

func quoteExportRow(rank int, q models.Quote, vendorNames map[string]string) []interface{} {
	vendor := vendorNames[q.VendorID]
	if vendor == "" {
		vendor = q.VendorID
	}
	var delivery interface{} = ""
	if q.DeliveryDays != nil {
		delivery = *q.DeliveryDays
	}
	return []interface{}{
		rank,
		q.QuoteNumber,
		vendor,
		q.BasePrice.InexactFloat64(),
		q.GSTPercent.InexactFloat64(),
		q.GSTAmount.InexactFloat64(),
		q.TransportCost.InexactFloat64(),
		q.LandedCost.InexactFloat64(),
		delivery,
		string(q.Status),
		q.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func setAttachment(c *gin.Context, contentType, filename string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", filename, url.PathEscape(filename)))
}

func writeQuotesCSV(c *gin.Context, filename string, rows [][]interface{}) {
	setAttachment(c, "text/csv", filename)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(quoteExportHeaders); err != nil {
		log.Printf("Error writing CSV header: %v", err)
		return
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			switch val := v.(type) {
			case float64:
				record[i] = strconv.FormatFloat(val, 'f', 2, 64)
			default:
				record[i] = fmt.Sprint(val)
			}
		}
		if err := w.Write(record); err != nil {
			log.Printf("Error writing CSV row: %v", err)
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Printf("Error flushing CSV: %v", err)
	}
}

func writeQuotesXLSX(c *gin.Context, filename string, rfq models.RFQ, rows [][]interface{}) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing Excel file: %v", err)
		}
	}()

	sheet := "Comparison"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating sheet", "details": err.Error()})
		return
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Family: "Arial"},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating title style", "details": err.Error()})
		return
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Family: "Arial"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating header style", "details": err.Error()})
		return
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating number style", "details": err.Error()})
		return
	}

	title := rfq.Title
	if title == "" {
		title = rfq.ID
	}
	f.SetCellValue(sheet, "A1", "Quote comparison: "+title)
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	f.SetCellValue(sheet, "A2", "Quantity")
	f.SetCellValue(sheet, "B2", rfq.Quantity.InexactFloat64())

	const headerRow = 4
	headerCell, _ := excelize.CoordinatesToCellName(1, headerRow)
	headers := make([]interface{}, len(quoteExportHeaders))
	for i, h := range quoteExportHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, headerCell, &headers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing header", "details": err.Error()})
		return
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(quoteExportHeaders), headerRow)
	f.SetCellStyle(sheet, headerCell, lastHeader, headerStyle)

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing row", "details": err.Error()})
			return
		}
	}
	if len(rows) > 0 {
		from, _ := excelize.CoordinatesToCellName(4, headerRow+1)
		to, _ := excelize.CoordinatesToCellName(8, headerRow+len(rows))
		f.SetCellStyle(sheet, from, to, moneyStyle)
	}
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "C", 24)
	f.SetColWidth(sheet, "D", "K", 16)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: headerRow, TopLeftCell: "A5", ActivePane: "bottomLeft"})

	setAttachment(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", filename)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Printf("Error writing Excel file: %v", err)
	}
}
