package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"laborpay-system/internal/database/models"
	"laborpay-system/internal/tax"
)

// utf8BOM makes spreadsheet tools detect the encoding of the CJK
// headers correctly.
const utf8BOM = "\uFEFF"

var csvHeader = []string{
	"公司名稱", "公司統編", "勞報單編號", "領款人姓名",
	"身分證字號", "戶籍地址", "所得類別", "所得代碼",
	"總金額", "代扣所得稅", "二代健保", "實付金額",
	"銀行名稱", "銀行帳號", "支付日期", "狀態",
}

func statusLabel(status string) string {
	switch status {
	case models.StatusSigned:
		return "已簽名"
	case models.StatusPending:
		return "待簽名"
	case models.StatusCancelled:
		return "已取消"
	default:
		return "草稿"
	}
}

// BuildReportCSV renders reports as the fixed 16-column accounting
// export, prefixed with a UTF-8 byte order mark.
func BuildReportCSV(company models.LaborCompany, reports []models.LaborReport) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range reports {
		row := []string{
			company.Name,
			company.TaxID,
			r.ReportNumber,
			r.PayeeName,
			r.PayeeIDNumber,
			r.PayeeAddress,
			tax.IncomeTypeName(r.IncomeType),
			r.IncomeType,
			strconv.FormatInt(r.GrossAmount, 10),
			strconv.FormatInt(r.IncomeTax, 10),
			strconv.FormatInt(r.HealthInsurance, 10),
			strconv.FormatInt(r.NetAmount, 10),
			r.PayeeBankName,
			r.PayeeBankAccount,
			r.PaymentDate,
			statusLabel(r.Status),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportOne downloads a single report as CSV.
func (h *ReportHandler) ExportOne(c *gin.Context) {
	id := c.Param("id")
	companyID := c.Query("company_id")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("company_id is required"))
		return
	}

	var report models.LaborReport
	err := h.db.Preload("Company").Where("id = ? AND company_id = ?", id, companyID).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Report not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var company models.LaborCompany
	if report.Company != nil {
		company = *report.Company
	}

	data, err := BuildReportCSV(company, []models.LaborReport{report})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error building CSV"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", report.ReportNumber))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

type BatchExportRequest struct {
	CompanyID int64   `json:"company_id" binding:"required"`
	IDs       []int64 `json:"ids" binding:"required,min=1"`
}

// ExportBatch downloads the selected reports as one CSV.
func (h *ReportHandler) ExportBatch(c *gin.Context) {
	var req BatchExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("ids are required"))
		return
	}

	var company models.LaborCompany
	if err := h.db.First(&company, req.CompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Company not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var reports []models.LaborReport
	err := h.db.Where("company_id = ? AND id IN ?", req.CompanyID, req.IDs).
		Order("created_at desc").
		Find(&reports).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	data, err := BuildReportCSV(company, reports)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error building CSV"))
		return
	}

	filename := fmt.Sprintf("labor_reports_%s_%s.csv", company.TaxID, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
