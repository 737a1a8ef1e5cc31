package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"laborpay-system/internal/database/models"
	"laborpay-system/internal/logger"
	"laborpay-system/internal/notify"
)

type LineHandler struct {
	db       *gorm.DB
	notifier *notify.Client
	baseURL  string
}

func NewLineHandler(db *gorm.DB, notifier *notify.Client, baseURL string) *LineHandler {
	return &LineHandler{db: db, notifier: notifier, baseURL: baseURL}
}

// Groups lists the LINE groups the bot has joined.
func (h *LineHandler) Groups(c *gin.Context) {
	var groups []models.LaborLineGroup
	err := h.db.Where("is_active = ?", true).Order("group_name asc").Find(&groups).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Groups", groups))
}

type SendSignLinkRequest struct {
	CompanyID int64  `json:"company_id" binding:"required"`
	ReportID  int64  `json:"report_id" binding:"required"`
	GroupID   string `json:"group_id" binding:"required"`
}

// Send pushes a report's signing link to a group. The amounts and link
// are derived server-side from the stored record.
func (h *LineHandler) Send(c *gin.Context) {
	var req SendSignLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var report models.LaborReport
	err := h.db.Where("id = ? AND company_id = ?", req.ReportID, req.CompanyID).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Report not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if report.Status != models.StatusPending {
		c.JSON(http.StatusConflict, errorResponse("Report is not awaiting signature"))
		return
	}

	err = h.notifier.PushSignLink(c.Request.Context(), req.GroupID, notify.SignNotification{
		PayeeName:   report.PayeeName,
		GrossAmount: report.GrossAmount,
		NetAmount:   report.NetAmount,
		SignLink:    SignLink(h.baseURL, report.SignToken),
	})
	if err != nil {
		log := logger.WithComponent("line")
		log.Warn().Err(err).Int64("report_id", report.ID).Msg("LINE push failed")
		c.JSON(http.StatusBadGateway, errorResponse("LINE 發送失敗"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Notification sent", nil))
}

type webhookEvent struct {
	Type   string `json:"type"`
	Source struct {
		Type    string `json:"type"`
		GroupID string `json:"groupId"`
	} `json:"source"`
}

type webhookRequest struct {
	Events []webhookEvent `json:"events"`
}

// Webhook records group joins and leaves so Groups can offer a live
// destination list. Always answers 200; LINE retries anything else.
func (h *LineHandler) Webhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	log := logger.WithComponent("line")
	for _, event := range req.Events {
		if event.Source.Type != "group" || event.Source.GroupID == "" {
			continue
		}
		switch event.Type {
		case "join":
			group := models.LaborLineGroup{
				GroupID:  event.Source.GroupID,
				IsActive: true,
			}
			if err := h.db.Where("group_id = ?", event.Source.GroupID).
				Assign(map[string]interface{}{"is_active": true}).
				FirstOrCreate(&group).Error; err != nil {
				log.Warn().Err(err).Str("group_id", event.Source.GroupID).Msg("record group join failed")
			}
		case "leave":
			if err := h.db.Model(&models.LaborLineGroup{}).
				Where("group_id = ?", event.Source.GroupID).
				Update("is_active", false).Error; err != nil {
				log.Warn().Err(err).Str("group_id", event.Source.GroupID).Msg("record group leave failed")
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{})
}
