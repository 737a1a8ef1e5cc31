package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"laborpay-system/internal/database/models"
)

type CompanyHandler struct {
	db *gorm.DB
}

func NewCompanyHandler(db *gorm.DB) *CompanyHandler {
	return &CompanyHandler{db: db}
}

type CreateCompanyRequest struct {
	Name              string `json:"name" binding:"required"`
	TaxID             string `json:"tax_id" binding:"required"`
	ResponsiblePerson string `json:"responsible_person"`
}

func (h *CompanyHandler) List(c *gin.Context) {
	var companies []models.LaborCompany
	if err := h.db.Order("name").Find(&companies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Companies", companies))
}

func (h *CompanyHandler) Create(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	company := models.LaborCompany{
		Name:              req.Name,
		TaxID:             req.TaxID,
		ResponsiblePerson: req.ResponsiblePerson,
	}
	if err := h.db.Create(&company).Error; err != nil {
		c.JSON(http.StatusConflict, errorResponse("Company with this tax ID already exists"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Company created", company))
}
