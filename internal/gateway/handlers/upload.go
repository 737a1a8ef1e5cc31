package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"laborpay-system/internal/storage"
)

// Upload categories for payee documents.
const (
	CategoryIDCardFront = "id_card_front"
	CategoryIDCardBack  = "id_card_back"
	CategoryBankBook    = "bank_book"
	CategorySignature   = "signature"
)

var validCategories = map[string]bool{
	CategoryIDCardFront: true,
	CategoryIDCardBack:  true,
	CategoryBankBook:    true,
	CategorySignature:   true,
}

const maxUploadSize = 10 << 20 // 10 MiB

type UploadHandler struct {
	storage *storage.MinioService
}

func NewUploadHandler(storageService *storage.MinioService) *UploadHandler {
	return &UploadHandler{storage: storageService}
}

// ObjectName builds the stored object key for an upload.
func ObjectName(category, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("attachments/%s_%s%s", category, uuid.New().String(), ext)
}

// Upload accepts a multipart image with a category tag and returns the
// stable URL the caller stores on the contact or report.
func (h *UploadHandler) Upload(c *gin.Context) {
	category := c.PostForm("type")
	if !validCategories[category] {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid upload type"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("請選擇檔案"))
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse("File too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error reading file"))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	objectName := ObjectName(category, fileHeader.Filename)
	err = h.storage.UploadFile(c.Request.Context(), objectName, file, fileHeader.Size, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("上傳失敗"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     h.storage.GetPublicURL(objectName),
		"path":    objectName,
	})
}
