package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/service"
	"github.com/noah-isme/cosmos-learn-api/pkg/response"
)

// CommunityHandler serves course reviews and Q&A threads.
type CommunityHandler struct {
	reviews *service.ReviewService
	qa      *service.QAService
}

// NewCommunityHandler constructs a handler for reviews and questions.
func NewCommunityHandler(reviews *service.ReviewService, qa *service.QAService) *CommunityHandler {
	return &CommunityHandler{reviews: reviews, qa: qa}
}

// ListReviews godoc
// @Summary Course reviews
// @Tags Community
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/reviews [get]
func (h *CommunityHandler) ListReviews(c *gin.Context) {
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	reviews, err := h.reviews.List(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, reviews, map[string]interface{}{"count": len(reviews)})
}

// AddReview godoc
// @Summary Review course
// @Description Add a 1-5 rating and recompute the course average
// @Tags Community
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body models.ReviewRequest true "Review"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{id}/reviews [post]
func (h *CommunityHandler) AddReview(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req models.ReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}

	review, err := h.reviews.Add(c.Request.Context(), courseID, claims.UserID, claims.Name, req.Rating, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, review)
}

// ListQuestions godoc
// @Summary Course questions
// @Tags Community
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/questions [get]
func (h *CommunityHandler) ListQuestions(c *gin.Context) {
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	questions, err := h.qa.List(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, questions, map[string]interface{}{"count": len(questions)})
}

// AddQuestion godoc
// @Summary Ask question
// @Tags Community
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body models.TextRequest true "Question"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/questions [post]
func (h *CommunityHandler) AddQuestion(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}
	courseID, ok := int64Param(c, "id")
	if !ok {
		return
	}

	var req models.TextRequest
	if !bindJSON(c, &req, "invalid question payload") {
		return
	}

	question, err := h.qa.AddQuestion(c.Request.Context(), courseID, claims.UserID, claims.Name, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, question)
}

// AddAnswer godoc
// @Summary Answer question
// @Description Answers from the course instructor are flagged
// @Tags Community
// @Accept json
// @Produce json
// @Param questionId path string true "Question ID"
// @Param payload body models.TextRequest true "Answer"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /questions/{questionId}/answers [post]
func (h *CommunityHandler) AddAnswer(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		return
	}

	var req models.TextRequest
	if !bindJSON(c, &req, "invalid answer payload") {
		return
	}

	question, err := h.qa.AddAnswer(c.Request.Context(), c.Param("questionId"), claims.UserID, claims.Name, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, question)
}
