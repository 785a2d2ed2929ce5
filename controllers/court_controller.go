package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"terrainhub/middlewares"
	"terrainhub/rules"
	"terrainhub/services"
	"terrainhub/structs"
)

// CourtHandler serves /terrains and the per-user court views.
type CourtHandler struct {
	courts   *services.CourtService
	comments *services.CommentService
}

func NewCourtHandler(courts *services.CourtService, comments *services.CommentService) *CourtHandler {
	return &CourtHandler{courts: courts, comments: comments}
}

func (h *CourtHandler) List(c *gin.Context) {
	var q structs.CourtListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid filter", err)
		return
	}
	f := rules.CourtFilter{MinRating: q.MinRating, MaxDistanceKm: q.MaxDistance}
	if q.Lat != nil && q.Lng != nil {
		f.Origin = &rules.Point{Lat: *q.Lat, Lng: *q.Lng}
	}
	courts, err := h.courts.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "Failed to list courts")
		return
	}
	c.JSON(http.StatusOK, courts)
}

func (h *CourtHandler) Get(c *gin.Context) {
	court, err := h.courts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load court")
		return
	}
	c.JSON(http.StatusOK, court)
}

func (h *CourtHandler) Create(c *gin.Context) {
	var in rules.CourtInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	court, err := h.courts.Create(c.Request.Context(), middlewares.PrincipalFrom(c), in)
	if err != nil {
		respondError(c, err, "Failed to create court")
		return
	}
	c.JSON(http.StatusCreated, court)
}

func (h *CourtHandler) Rate(c *gin.Context) {
	var req structs.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	agg, err := h.courts.Rate(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id"), req.Rating)
	if err != nil {
		respondError(c, err, "Failed to rate court")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"newRating": agg,
		"remaining": remainingFromHeader(c),
	})
}

func (h *CourtHandler) Delete(c *gin.Context) {
	if err := h.courts.Delete(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete court")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Court deleted"})
}

// Mine lists the caller's latest courts.
func (h *CourtHandler) Mine(c *gin.Context) {
	courts, err := h.courts.ListByOwner(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		respondError(c, err, "Failed to list your courts")
		return
	}
	c.JSON(http.StatusOK, courts)
}

func (h *CourtHandler) Stats(c *gin.Context) {
	st, err := h.courts.Stats(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		respondError(c, err, "Failed to compute stats")
		return
	}
	c.JSON(http.StatusOK, st)
}

// remainingFromHeader echoes what the rate limiter left for this caller, or
// nil when no limiter ran.
func remainingFromHeader(c *gin.Context) any {
	n, err := strconv.Atoi(c.Writer.Header().Get("X-RateLimit-Remaining"))
	if err != nil {
		return nil
	}
	return n
}
