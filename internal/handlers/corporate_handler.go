package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/middleware"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/levelpap/training-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// CorporateHandler handles corporate training inquiry endpoints
type CorporateHandler struct {
	corporateService *services.CorporateService
	logger           *logrus.Logger
}

// NewCorporateHandler creates a new CorporateHandler
func NewCorporateHandler(corporateService *services.CorporateService, logger *logrus.Logger) *CorporateHandler {
	return &CorporateHandler{
		corporateService: corporateService,
		logger:           logger,
	}
}

// Submit handles POST /api/v1/corporate/requests (public intake form)
func (h *CorporateHandler) Submit(c *gin.Context) {
	var req models.CreateCorporateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	request, err := h.corporateService.SubmitRequest(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// List handles GET /api/v1/admin/corporate/requests
func (h *CorporateHandler) List(c *gin.Context) {
	var status *models.CorporateRequestStatus
	if s := c.Query("status"); s != "" {
		st := models.CorporateRequestStatus(s)
		status = &st
	}

	requests, err := h.corporateService.ListRequests(status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// Get handles GET /api/v1/admin/corporate/requests/:id
func (h *CorporateHandler) Get(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	request, err := h.corporateService.GetRequest(requestID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Respond handles POST /api/v1/admin/corporate/requests/:id/respond
func (h *CorporateHandler) Respond(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req models.RespondCorporateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	request, err := h.corporateService.RespondToRequest(requestID, userCtx.UserID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, request)
}
