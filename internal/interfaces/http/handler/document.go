package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	outworkapp "github.com/shopfloor/backend/internal/application/outwork"
)

// DocumentHandler handles move document API endpoints
type DocumentHandler struct {
	BaseHandler
	documentService *outworkapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *outworkapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// InitiateDocumentUploadRequest represents a request to attach a document to a move
// @Description Request body for initiating a document upload
type InitiateDocumentUploadRequest struct {
	MoveID      string  `json:"move_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	ReceiptID   *string `json:"receipt_id" binding:"omitempty,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Kind        string  `json:"kind" binding:"required,oneof=challan qc_report photo other" example:"challan"`
	FileName    string  `json:"file_name" binding:"required,min=1,max=255" example:"challan-CH-2026-0042.pdf"`
	FileSize    int64   `json:"file_size" binding:"required,gt=0,max=26214400" example:"204800"` // max 25MB
	ContentType string  `json:"content_type" binding:"required" example:"application/pdf"`
}

// DownloadURLResponse represents a presigned download URL
// @Description Presigned download URL with its expiry
type DownloadURLResponse struct {
	URL       string    `json:"url" example:"https://storage.example.com/outwork/..."`
	ExpiresAt time.Time `json:"expires_at"`
}

// InitiateUpload godoc
// @ID           initiateDocumentUpload
// @Summary      Initiate a document upload
// @Description  Creates a pending document record and returns a presigned upload URL
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body InitiateDocumentUploadRequest true "Upload initiation request"
// @Success      201 {object} APIResponse[outworkapp.InitiateDocumentUploadResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse "Move not found"
// @Failure      422 {object} dto.ErrorResponse "Document limit exceeded, disallowed content type, or move voided"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/documents/upload [post]
func (h *DocumentHandler) InitiateUpload(c *gin.Context) {
	var req InitiateDocumentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	moveID, err := uuid.Parse(req.MoveID)
	if err != nil {
		h.BadRequest(c, "Invalid move ID format")
		return
	}

	appReq := outworkapp.InitiateDocumentUploadRequest{
		MoveID:      moveID,
		Kind:        req.Kind,
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
	}

	if req.ReceiptID != nil && *req.ReceiptID != "" {
		receiptID, err := uuid.Parse(*req.ReceiptID)
		if err != nil {
			h.BadRequest(c, "Invalid receipt ID format")
			return
		}
		appReq.ReceiptID = &receiptID
	}

	// Get user ID from JWT context (optional)
	userID, _ := getUserID(c)
	var uploadedBy *uuid.UUID
	if userID != uuid.Nil {
		uploadedBy = &userID
	}

	response, err := h.documentService.InitiateUpload(c.Request.Context(), appReq, uploadedBy)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, response)
}

// ConfirmUpload godoc
// @ID           confirmDocumentUpload
// @Summary      Confirm a document upload
// @Description  Verifies the upload completed and activates the document
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[outworkapp.DocumentResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse "Document not found or file not in storage"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/documents/{id}/confirm [post]
func (h *DocumentHandler) ConfirmUpload(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	response, err := h.documentService.ConfirmUpload(c.Request.Context(), documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// GetByID godoc
// @ID           getDocumentById
// @Summary      Get document by ID
// @Description  Retrieve a move document by its ID
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[outworkapp.DocumentResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	response, err := h.documentService.GetByID(c.Request.Context(), documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, response)
}

// ListByMove godoc
// @ID           listMoveDocuments
// @Summary      List documents for a move
// @Description  Retrieve all documents attached to a move
// @Tags         documents
// @Produce      json
// @Param        id path string true "Move ID" format(uuid)
// @Param        kind query string false "Document kind" Enums(challan, qc_report, photo, other)
// @Param        include_deleted query bool false "Include soft-deleted documents"
// @Success      200 {object} APIResponse[[]outworkapp.DocumentResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse "Move not found"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/moves/{id}/documents [get]
func (h *DocumentHandler) ListByMove(c *gin.Context) {
	moveID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid move ID format")
		return
	}

	var filter outworkapp.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	documents, err := h.documentService.GetByMove(c.Request.Context(), moveID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, documents)
}

// GetDownloadURL godoc
// @ID           getDocumentDownloadUrl
// @Summary      Get a download URL for a document
// @Description  Returns a fresh presigned download URL for an active document
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[DownloadURLResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse "Document is not active"
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/documents/{id}/download [get]
func (h *DocumentHandler) GetDownloadURL(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	url, expiresAt, err := h.documentService.GetDownloadURL(c.Request.Context(), documentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, DownloadURLResponse{
		URL:       url,
		ExpiresAt: expiresAt,
	})
}

// Delete godoc
// @ID           deleteDocument
// @Summary      Delete a document
// @Description  Soft delete a document (marks as deleted, file retained)
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), documentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// PermanentDelete godoc
// @ID           permanentDeleteDocument
// @Summary      Permanently delete a document
// @Description  Removes the document record and its stored file; cannot be undone
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /outwork/documents/{id}/permanent [delete]
func (h *DocumentHandler) PermanentDelete(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	if err := h.documentService.PermanentDelete(c.Request.Context(), documentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
