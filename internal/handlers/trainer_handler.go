package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/levelpap/training-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// TrainerHandler handles trainer profile endpoints
type TrainerHandler struct {
	trainerService *services.TrainerService
	logger         *logrus.Logger
}

// NewTrainerHandler creates a new TrainerHandler
func NewTrainerHandler(trainerService *services.TrainerService, logger *logrus.Logger) *TrainerHandler {
	return &TrainerHandler{
		trainerService: trainerService,
		logger:         logger,
	}
}

// List handles GET /api/v1/trainers
func (h *TrainerHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	trainers, err := h.trainerService.ListTrainers(limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trainers": trainers, "count": len(trainers)})
}

// Get handles GET /api/v1/trainers/:id
func (h *TrainerHandler) Get(c *gin.Context) {
	trainerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
		return
	}

	trainer, err := h.trainerService.GetTrainer(trainerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, trainer)
}

// Create handles POST /api/v1/admin/trainers
func (h *TrainerHandler) Create(c *gin.Context) {
	var req models.CreateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	trainer, err := h.trainerService.CreateTrainer(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, trainer)
}

// Update handles PATCH /api/v1/admin/trainers/:id
func (h *TrainerHandler) Update(c *gin.Context) {
	trainerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
		return
	}

	var req models.UpdateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	trainer, err := h.trainerService.UpdateTrainer(trainerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, trainer)
}

// Deactivate handles DELETE /api/v1/admin/trainers/:id
func (h *TrainerHandler) Deactivate(c *gin.Context) {
	trainerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
		return
	}

	if err := h.trainerService.DeactivateTrainer(trainerID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "trainer deactivated"})
}
