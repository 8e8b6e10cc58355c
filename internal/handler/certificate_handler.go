package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cosmos-learn-api/internal/middleware"
	"github.com/noah-isme/cosmos-learn-api/internal/service"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/response"
)

// CertificateHandler lists certificates and serves rendered PDFs through signed links.
type CertificateHandler struct {
	service *service.CertificateService
}

// NewCertificateHandler constructs a certificate handler.
func NewCertificateHandler(svc *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// List godoc
// @Summary My certificates
// @Tags Certificates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /certificates [get]
func (h *CertificateHandler) List(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}

	certs, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, certs, map[string]interface{}{"count": len(certs)})
}

// Get godoc
// @Summary Certificate detail
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{id} [get]
func (h *CertificateHandler) Get(c *gin.Context) {
	cert, err := h.service.Get(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, cert)
}

// DownloadURL godoc
// @Summary Signed download link
// @Description Returns ready=false until the PDF has been rendered
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id}/download-url [get]
func (h *CertificateHandler) DownloadURL(c *gin.Context) {
	download, err := h.service.DownloadURL(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, download)
}

// Download godoc
// @Summary Download certificate PDF
// @Tags Certificates
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	cert, file, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read certificate"))
		return
	}

	filename := cert.CertificateNumber + filepath.Ext(cert.FilePath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
