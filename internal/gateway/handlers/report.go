package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"laborpay-system/internal/database/models"
	"laborpay-system/internal/logger"
	"laborpay-system/internal/notify"
	"laborpay-system/internal/signing"
	"laborpay-system/internal/tax"
)

const (
	REPORT_CACHE_PREFIX      = "report:"
	REPORT_LIST_CACHE_PREFIX = "report:list:"

	CACHE_TTL_SHORT  = 5 * time.Minute
	CACHE_TTL_MEDIUM = 30 * time.Minute
)

type ReportHandler struct {
	db       *gorm.DB
	redis    *redis.Client
	notifier *notify.Client
	baseURL  string
}

func NewReportHandler(db *gorm.DB, redisClient *redis.Client, notifier *notify.Client, baseURL string) *ReportHandler {
	return &ReportHandler{
		db:       db,
		redis:    redisClient,
		notifier: notifier,
		baseURL:  baseURL,
	}
}

// invalidateReportCaches drops a company's report list cache and any
// per-report entries. Shared by every handler that mutates reports.
func invalidateReportCaches(ctx context.Context, rdb *redis.Client, companyID int64, reportIDs ...int64) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(ctx, fmt.Sprintf("%s%d", REPORT_LIST_CACHE_PREFIX, companyID))
	for _, id := range reportIDs {
		_ = rdb.Del(ctx, fmt.Sprintf("%s%d", REPORT_CACHE_PREFIX, id))
	}
}

type CreateReportRequest struct {
	CompanyID     int64   `json:"company_id" binding:"required"`
	PayeeName     string  `json:"payee_name" binding:"required"`
	ContactID     *int64  `json:"contact_id,omitempty"`
	IncomeType    string  `json:"income_type" binding:"required"`
	GrossAmount   int64   `json:"gross_amount" binding:"required,gte=0"`
	Description   string  `json:"description"`
	PeriodStart   *string `json:"period_start,omitempty"`
	PeriodEnd     *string `json:"period_end,omitempty"`
	PaymentDate   string  `json:"payment_date" binding:"required"`
	NotifyGroupID string  `json:"notify_group_id"`
}

type ListReportsQuery struct {
	CompanyID int64  `form:"company_id" binding:"required"`
	Status    string `form:"status"`
}

// SignLink builds the payee-facing one-time URL. The token is the sole
// credential; no query parameters are meaningful.
func SignLink(baseURL, token string) string {
	return fmt.Sprintf("%s/sign/%s", baseURL, token)
}

// NextReportNumber produces the human-readable sequential number,
// scoped per company per calendar year: LR-2025-0001. The sequence
// continues from the highest number already issued, so deleting a
// report never frees its number for reuse.
func NextReportNumber(tx *gorm.DB, companyID int64, now time.Time) (string, error) {
	year := now.Year()
	prefix := reportNumberPrefix(year)

	var numbers []string
	err := tx.Model(&models.LaborReport{}).
		Where("company_id = ? AND report_number LIKE ?", companyID, prefix+"%").
		Order("length(report_number) desc, report_number desc").
		Limit(1).
		Pluck("report_number", &numbers).Error
	if err != nil {
		return "", err
	}

	last := ""
	if len(numbers) > 0 {
		last = numbers[0]
	}
	return nextReportNumber(year, last), nil
}

func reportNumberPrefix(year int) string {
	return fmt.Sprintf("LR-%d-", year)
}

func nextReportNumber(year int, last string) string {
	seq := 0
	if rest, ok := strings.CutPrefix(last, reportNumberPrefix(year)); ok {
		if n, err := strconv.Atoi(rest); err == nil {
			seq = n
		}
	}
	return fmt.Sprintf("LR-%d-%04d", year, seq+1)
}

// Create computes the withholding for the payment, mints the one-time
// sign token and stores the report as pending. This is the only place
// a token is ever created.
func (h *ReportHandler) Create(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	if !tax.ValidIncomeType(req.IncomeType) {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid income type"))
		return
	}

	// A referenced contact supplies the payee snapshot and the
	// union-membership flag that feeds the calculator.
	var contact *models.LaborContact
	if req.ContactID != nil {
		var found models.LaborContact
		err := h.db.Where("id = ? AND company_id = ?", *req.ContactID, req.CompanyID).First(&found).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, errorResponse("Contact not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
			return
		}
		contact = &found
	}

	isUnionMember := contact != nil && contact.IsUnionMember
	breakdown, err := tax.Calculate(req.GrossAmount, req.IncomeType, isUnionMember)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	token, err := signing.GenerateSignToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error generating sign token"))
		return
	}

	report := models.LaborReport{
		CompanyID:       req.CompanyID,
		ContactID:       req.ContactID,
		PayeeName:       req.PayeeName,
		IncomeType:      req.IncomeType,
		Description:     req.Description,
		PeriodStart:     req.PeriodStart,
		PeriodEnd:       req.PeriodEnd,
		PaymentDate:     req.PaymentDate,
		GrossAmount:     breakdown.GrossAmount,
		IncomeTax:       breakdown.IncomeTax,
		HealthInsurance: breakdown.HealthInsurance,
		NetAmount:       breakdown.NetAmount,
		SignToken:       token,
		Status:          models.StatusPending,
	}
	if contact != nil {
		report.PayeeIDNumber = contact.IDNumber
		report.PayeeAddress = contact.Address
		report.PayeeBankName = contact.BankName
		report.PayeeBankAccount = contact.BankAccount
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		number, err := NextReportNumber(tx, req.CompanyID, time.Now())
		if err != nil {
			return err
		}
		report.ReportNumber = number
		return tx.Create(&report).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating report"))
		return
	}

	invalidateReportCaches(c.Request.Context(), h.redis, req.CompanyID)

	signLink := SignLink(h.baseURL, report.SignToken)

	// Notification delivery is best effort; the report exists either way.
	if req.NotifyGroupID != "" && h.notifier != nil {
		err := h.notifier.PushSignLink(c.Request.Context(), req.NotifyGroupID, notify.SignNotification{
			PayeeName:   report.PayeeName,
			GrossAmount: report.GrossAmount,
			NetAmount:   report.NetAmount,
			SignLink:    signLink,
		})
		if err != nil {
			log := logger.WithComponent("report")
			log.Warn().Err(err).Int64("report_id", report.ID).Msg("LINE notification failed")
		}
	}

	c.JSON(http.StatusOK, successResponse("Report created", gin.H{
		"id":               report.ID,
		"report_number":    report.ReportNumber,
		"sign_token":       report.SignToken,
		"sign_link":        signLink,
		"gross_amount":     report.GrossAmount,
		"income_tax":       report.IncomeTax,
		"health_insurance": report.HealthInsurance,
		"net_amount":       report.NetAmount,
		"status":           report.Status,
		"has_contact":      req.ContactID != nil,
	}))
}

// Preview runs the calculator without touching storage; the UI calls
// this on every keystroke and the result must match what Create will
// persist.
func (h *ReportHandler) Preview(c *gin.Context) {
	var req struct {
		IncomeType    string `form:"income_type" binding:"required"`
		GrossAmount   int64  `form:"gross_amount" binding:"gte=0"`
		IsUnionMember bool   `form:"is_union_member"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	breakdown, err := tax.Calculate(req.GrossAmount, req.IncomeType, req.IsUnionMember)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse("Calculated", breakdown))
}

func (h *ReportHandler) List(c *gin.Context) {
	var q ListReportsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("company_id is required"))
		return
	}

	filtered := q.Status != "" && q.Status != "all"
	cacheKey := fmt.Sprintf("%s%d", REPORT_LIST_CACHE_PREFIX, q.CompanyID)

	// Only the unfiltered list is cached; invalidation drops one key.
	if !filtered && h.redis != nil {
		if cached, err := h.redis.Get(c.Request.Context(), cacheKey).Result(); err == nil {
			var reports []models.LaborReport
			if json.Unmarshal([]byte(cached), &reports) == nil {
				c.JSON(http.StatusOK, successResponse("Reports", reports))
				return
			}
		}
	}

	query := h.db.Where("company_id = ?", q.CompanyID).Order("created_at desc")
	if filtered {
		query = query.Where("status = ?", q.Status)
	}

	var reports []models.LaborReport
	if err := query.Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if !filtered && h.redis != nil {
		if data, err := json.Marshal(reports); err == nil {
			_ = h.redis.Set(c.Request.Context(), cacheKey, data, CACHE_TTL_SHORT)
		}
	}

	c.JSON(http.StatusOK, successResponse("Reports", reports))
}

func (h *ReportHandler) Get(c *gin.Context) {
	id := c.Param("id")
	companyID := c.Query("company_id")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("company_id is required"))
		return
	}

	var report models.LaborReport
	err := h.db.Preload("Company").Preload("Contact").
		Where("id = ? AND company_id = ?", id, companyID).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Report not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Report", report))
}

// Cancel revokes a pending or draft report's signing link. The update
// carries the same status precondition as the sign transition, so it
// can never claw back an already-signed report.
func (h *ReportHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	companyID := c.Query("company_id")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("company_id is required"))
		return
	}

	res := h.db.Model(&models.LaborReport{}).
		Where("id = ? AND company_id = ? AND status IN ?", id, companyID, []string{models.StatusDraft, models.StatusPending}).
		Update("status", models.StatusCancelled)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, errorResponse("Report is signed or does not exist; delete and recreate instead"))
		return
	}

	cid, _ := strconv.ParseInt(companyID, 10, 64)
	invalidateReportCaches(c.Request.Context(), h.redis, cid)

	c.JSON(http.StatusOK, successResponse("Report cancelled", nil))
}

func (h *ReportHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	companyID := c.Query("company_id")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("company_id is required"))
		return
	}

	res := h.db.Where("id = ? AND company_id = ?", id, companyID).Delete(&models.LaborReport{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting report"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Report not found"))
		return
	}

	cid, _ := strconv.ParseInt(companyID, 10, 64)
	invalidateReportCaches(c.Request.Context(), h.redis, cid)

	c.JSON(http.StatusOK, successResponse("Report deleted", nil))
}

type BatchDeleteRequest struct {
	CompanyID int64   `json:"company_id" binding:"required"`
	IDs       []int64 `json:"ids" binding:"required,min=1"`
}

func (h *ReportHandler) BatchDelete(c *gin.Context) {
	var req BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("ids are required"))
		return
	}

	res := h.db.Where("company_id = ? AND id IN ?", req.CompanyID, req.IDs).Delete(&models.LaborReport{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting reports"))
		return
	}

	invalidateReportCaches(c.Request.Context(), h.redis, req.CompanyID, req.IDs...)

	c.JSON(http.StatusOK, successResponse("Reports deleted", gin.H{"deleted": res.RowsAffected}))
}
