package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"laborpay-system/internal/database/models"
	"laborpay-system/internal/tax"
)

const CONTACT_LIST_CACHE_PREFIX = "contact:list:"

type ContactHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewContactHandler(db *gorm.DB, redisClient *redis.Client) *ContactHandler {
	return &ContactHandler{db: db, redis: redisClient}
}

// invalidateContactCaches drops a company's contact list cache.
// Shared by every handler that mutates contacts, including the public
// signing flow's upsert.
func invalidateContactCaches(ctx context.Context, rdb *redis.Client, companyID int64) {
	if rdb == nil {
		return
	}
	_ = rdb.Del(ctx, fmt.Sprintf("%s%d", CONTACT_LIST_CACHE_PREFIX, companyID))
}

type ContactRequest struct {
	CompanyID      int64  `json:"company_id" binding:"required"`
	Name           string `json:"name" binding:"required"`
	IDNumber       string `json:"id_number" binding:"required"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	BankName       string `json:"bank_name"`
	BankBranch     string `json:"bank_branch"`
	BankAccount    string `json:"bank_account"`
	IsUnionMember  bool   `json:"is_union_member"`
	IDCardFrontURL string `json:"id_card_front_url"`
	IDCardBackURL  string `json:"id_card_back_url"`
	BankBookURL    string `json:"bank_book_url"`
}

// ContactView augments the stored contact with the completeness flag
// and masked presentation fields for list screens.
type ContactView struct {
	models.LaborContact
	IsComplete        bool   `json:"is_complete"`
	MaskedIDNumber    string `json:"masked_id_number"`
	MaskedBankAccount string `json:"masked_bank_account"`
}

func contactView(c models.LaborContact) ContactView {
	return ContactView{
		LaborContact:      c,
		IsComplete:        c.IsComplete(),
		MaskedIDNumber:    tax.MaskIDNumber(c.IDNumber),
		MaskedBankAccount: tax.MaskBankAccount(c.BankAccount),
	}
}

func (h *ContactHandler) List(c *gin.Context) {
	var q struct {
		CompanyID int64 `form:"company_id" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("company_id is required"))
		return
	}

	cacheKey := fmt.Sprintf("%s%d", CONTACT_LIST_CACHE_PREFIX, q.CompanyID)
	if h.redis != nil {
		if cached, err := h.redis.Get(c.Request.Context(), cacheKey).Result(); err == nil {
			var views []ContactView
			if json.Unmarshal([]byte(cached), &views) == nil {
				c.JSON(http.StatusOK, successResponse("Contacts", views))
				return
			}
		}
	}

	var contacts []models.LaborContact
	err := h.db.Where("company_id = ?", q.CompanyID).Order("name asc").Find(&contacts).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	views := make([]ContactView, 0, len(contacts))
	for _, contact := range contacts {
		views = append(views, contactView(contact))
	}

	if h.redis != nil {
		if data, err := json.Marshal(views); err == nil {
			_ = h.redis.Set(c.Request.Context(), cacheKey, data, CACHE_TTL_MEDIUM)
		}
	}

	c.JSON(http.StatusOK, successResponse("Contacts", views))
}

// Lookup finds a contact by national ID so the signing form can be
// prefilled for a returning payee.
func (h *ContactHandler) Lookup(c *gin.Context) {
	var q struct {
		CompanyID int64  `form:"company_id" binding:"required"`
		IDNumber  string `form:"id_number" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("company_id and id_number are required"))
		return
	}

	var contact models.LaborContact
	err := h.db.Where("company_id = ? AND id_number = ?", q.CompanyID, q.IDNumber).First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"found": false})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"found": true, "data": contactView(contact)})
}

func (h *ContactHandler) Create(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	contact := models.LaborContact{
		CompanyID:      req.CompanyID,
		Name:           req.Name,
		IDNumber:       req.IDNumber,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		BankName:       req.BankName,
		BankBranch:     req.BankBranch,
		BankAccount:    req.BankAccount,
		IsUnionMember:  req.IsUnionMember,
		IDCardFrontURL: req.IDCardFrontURL,
		IDCardBackURL:  req.IDCardBackURL,
		BankBookURL:    req.BankBookURL,
	}
	if err := h.db.Create(&contact).Error; err != nil {
		c.JSON(http.StatusConflict, errorResponse("Contact with this ID number already exists"))
		return
	}

	invalidateContactCaches(c.Request.Context(), h.redis, req.CompanyID)
	c.JSON(http.StatusOK, successResponse("Contact created", contactView(contact)))
}

func (h *ContactHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	res := h.db.Model(&models.LaborContact{}).
		Where("id = ? AND company_id = ?", id, req.CompanyID).
		Updates(map[string]interface{}{
			"name":              req.Name,
			"id_number":         req.IDNumber,
			"phone":             req.Phone,
			"email":             req.Email,
			"address":           req.Address,
			"bank_name":         req.BankName,
			"bank_branch":       req.BankBranch,
			"bank_account":      req.BankAccount,
			"is_union_member":   req.IsUnionMember,
			"id_card_front_url": req.IDCardFrontURL,
			"id_card_back_url":  req.IDCardBackURL,
			"bank_book_url":     req.BankBookURL,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating contact"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Contact not found"))
		return
	}

	invalidateContactCaches(c.Request.Context(), h.redis, req.CompanyID)
	c.JSON(http.StatusOK, successResponse("Contact updated", nil))
}

func (h *ContactHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	var q struct {
		CompanyID int64 `form:"company_id" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("company_id is required"))
		return
	}

	res := h.db.Where("id = ? AND company_id = ?", id, q.CompanyID).Delete(&models.LaborContact{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting contact"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Contact not found"))
		return
	}

	invalidateContactCaches(c.Request.Context(), h.redis, q.CompanyID)
	c.JSON(http.StatusOK, successResponse("Contact deleted", nil))
}
