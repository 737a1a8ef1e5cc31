package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"laborpay-system/internal/database/models"
	"laborpay-system/internal/logger"
	"laborpay-system/internal/signing"
)

// SigningHandler is the payee-facing surface. The sign token in the URL
// is the sole credential; there is no session on these routes.
type SigningHandler struct {
	store signing.Store
	redis *redis.Client
}

func NewSigningHandler(db *gorm.DB, redisClient *redis.Client) *SigningHandler {
	return &SigningHandler{
		store: signing.NewGormStore(db),
		redis: redisClient,
	}
}

type resolveResponse struct {
	ID              int64                `json:"id"`
	ReportNumber    string               `json:"report_number"`
	CompanyName     string               `json:"company_name"`
	IncomeType      string               `json:"income_type"`
	Description     string               `json:"description"`
	PeriodStart     *string              `json:"period_start"`
	PeriodEnd       *string              `json:"period_end"`
	PaymentDate     string               `json:"payment_date"`
	GrossAmount     int64                `json:"gross_amount"`
	IncomeTax       int64                `json:"income_tax"`
	HealthInsurance int64                `json:"health_insurance"`
	NetAmount       int64                `json:"net_amount"`
	PayeeName       string               `json:"payee_name"`
	Status          string               `json:"status"`
	HasContact      bool                 `json:"has_contact"`
	HasCompleteData bool                 `json:"has_complete_data"`
	Contact         *models.LaborContact `json:"contact"`
}

// Resolve serves the signing page's data. Consumed or revoked tokens
// get a plain explanatory message and never the underlying record.
func (h *SigningHandler) Resolve(c *gin.Context) {
	token := c.Param("token")

	result, err := signing.Resolve(c.Request.Context(), h.store, token)
	if err != nil {
		h.renderSigningError(c, err)
		return
	}

	report := result.Report
	resp := resolveResponse{
		ID:              report.ID,
		ReportNumber:    report.ReportNumber,
		IncomeType:      report.IncomeType,
		Description:     report.Description,
		PeriodStart:     report.PeriodStart,
		PeriodEnd:       report.PeriodEnd,
		PaymentDate:     report.PaymentDate,
		GrossAmount:     report.GrossAmount,
		IncomeTax:       report.IncomeTax,
		HealthInsurance: report.HealthInsurance,
		NetAmount:       report.NetAmount,
		PayeeName:       report.PayeeName,
		Status:          report.Status,
		HasContact:      result.HasContact,
		HasCompleteData: result.HasCompleteData,
		Contact:         report.Contact,
	}
	if report.Company != nil {
		resp.CompanyName = report.Company.Name
	}

	c.JSON(http.StatusOK, resp)
}

// Sign consumes the token. The state machine re-resolves the record and
// performs the contact upsert before the conditional status flip, so a
// retry with the same token after a partial failure is safe.
func (h *SigningHandler) Sign(c *gin.Context) {
	token := c.Param("token")

	var sub signing.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	report, err := signing.Sign(c.Request.Context(), h.store, token, sub, c.ClientIP())
	if err != nil {
		h.renderSigningError(c, err)
		return
	}

	// The record changed state and the contact was upserted; drop both
	// company caches so the back office sees the result immediately.
	invalidateReportCaches(c.Request.Context(), h.redis, report.CompanyID, report.ID)
	invalidateContactCaches(c.Request.Context(), h.redis, report.CompanyID)

	log := logger.WithComponent("signing")
	log.Info().
		Int64("report_id", report.ID).
		Str("report_number", report.ReportNumber).
		Msg("report signed")

	c.JSON(http.StatusOK, successResponse("簽名完成！", gin.H{
		"report_number": report.ReportNumber,
		"signed_at":     report.SignedAt,
	}))
}

func (h *SigningHandler) renderSigningError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, signing.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, signing.ErrTokenNotFound):
		c.JSON(http.StatusNotFound, errorResponse("找不到此勞報單或連結已失效"))
	case errors.Is(err, signing.ErrAlreadySigned):
		c.JSON(http.StatusConflict, errorResponse("此勞報單已簽名完成"))
	case errors.Is(err, signing.ErrCancelled):
		c.JSON(http.StatusConflict, errorResponse("此勞報單已取消"))
	case errors.Is(err, signing.ErrConflictingUpdate):
		c.JSON(http.StatusConflict, errorResponse("此勞報單已由他人簽署"))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("簽名失敗，請重試"))
	}
}
