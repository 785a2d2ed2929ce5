package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"terrainhub/middlewares"
	"terrainhub/rules"
)

// ListComments returns the visible comments of a court, newest first.
func (h *CourtHandler) ListComments(c *gin.Context) {
	comments, err := h.comments.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to list comments")
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CourtHandler) PostComment(c *gin.Context) {
	var in rules.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	comment, err := h.comments.Post(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id"), in)
	if err != nil {
		respondError(c, err, "Failed to post comment")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CourtHandler) DeleteComment(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("commentId")); err != nil {
		respondError(c, err, "Failed to delete comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
