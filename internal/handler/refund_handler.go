package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cosmos-learn-api/internal/middleware"
	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/service"
	"github.com/noah-isme/cosmos-learn-api/pkg/response"
)

// RefundHandler handles student refund requests and their admin resolution.
type RefundHandler struct {
	service *service.RefundService
}

// NewRefundHandler constructs a refund handler.
func NewRefundHandler(svc *service.RefundService) *RefundHandler {
	return &RefundHandler{service: svc}
}

// Request godoc
// @Summary Request refund
// @Tags Refunds
// @Accept json
// @Produce json
// @Param payload body models.RefundRequest true "Refund"
// @Success 201 {object} response.Envelope
// @Router /refunds [post]
func (h *RefundHandler) Request(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}

	var req models.RefundRequest
	if !bindJSON(c, &req, "invalid refund payload") {
		return
	}

	refund, err := h.service.Request(c.Request.Context(), claims.UserID, claims.Email, req.CourseID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, refund)
}

// Get godoc
// @Summary Refund detail
// @Tags Refunds
// @Produce json
// @Param id path string true "Refund ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /refunds/{id} [get]
func (h *RefundHandler) Get(c *gin.Context) {
	refund, err := h.service.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, refund)
}

// List godoc
// @Summary List refunds
// @Tags Admin
// @Produce json
// @Param status query string false "pending|approved|rejected"
// @Success 200 {object} response.Envelope
// @Router /admin/refunds [get]
func (h *RefundHandler) List(c *gin.Context) {
	refunds, err := h.service.List(c.Request.Context(), middleware.Actor(c), models.RefundStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, refunds, map[string]interface{}{"count": len(refunds)})
}

// Resolve godoc
// @Summary Resolve refund
// @Description Approve or reject a pending refund; resolved refunds are final
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Refund ID"
// @Param payload body models.ResolveRefundRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/refunds/{id}/resolve [post]
func (h *RefundHandler) Resolve(c *gin.Context) {
	var req models.ResolveRefundRequest
	if !bindJSON(c, &req, "approved is required") {
		return
	}
	if req.Approved == nil {
		bindFailed(c, "approved is required")
		return
	}

	refund, err := h.service.Resolve(c.Request.Context(), middleware.Actor(c), c.Param("id"), *req.Approved)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, refund)
}

// Export godoc
// @Summary Export refunds
// @Tags Admin
// @Produce text/csv
// @Param status query string false "pending|approved|rejected"
// @Success 200 {file} file
// @Router /admin/refunds/export [get]
func (h *RefundHandler) Export(c *gin.Context) {
	data, filename, err := h.service.ExportCSV(c.Request.Context(), middleware.Actor(c), models.RefundStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
