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

// CourseHandler handles course catalog endpoints
type CourseHandler struct {
	courseService *services.CourseService
	logger        *logrus.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courseService *services.CourseService, logger *logrus.Logger) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		logger:        logger,
	}
}

// List handles GET /api/v1/courses
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		PublishedOnly: c.Query("include_unpublished") != "true",
	}

	if category := c.Query("category"); category != "" {
		cat := models.CourseCategory(category)
		filter.Category = &cat
	}
	if audience := c.Query("audience"); audience != "" {
		aud := models.Audience(audience)
		filter.Audience = &aud
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	courses, err := h.courseService.ListCourses(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses, "count": len(courses)})
}

// Get handles GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}

	course, err := h.courseService.GetCourse(courseID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// Create handles POST /api/v1/admin/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	course, err := h.courseService.CreateCourse(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// Update handles PATCH /api/v1/admin/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}

	var req models.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	course, err := h.courseService.UpdateCourse(courseID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// Deactivate handles DELETE /api/v1/admin/courses/:id
func (h *CourseHandler) Deactivate(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}

	if err := h.courseService.DeactivateCourse(courseID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "course deactivated"})
}
