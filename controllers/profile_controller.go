package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"terrainhub/middlewares"
	"terrainhub/rules"
	"terrainhub/services"
	"terrainhub/structs"
)

// ProfileHandler serves the /user endpoints: points, badges, shop and profile.
type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Customization(c *gin.Context) {
	view, err := h.profiles.Customization(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		respondError(c, err, "Failed to load customization")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ProfileHandler) Customize(c *gin.Context) {
	var req structs.CustomizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Type and item id are required", err)
		return
	}
	res, err := h.profiles.Customize(c.Request.Context(), middlewares.PrincipalFrom(c), req.Type, req.ItemID)
	if err != nil {
		respondError(c, err, "Failed to update customization")
		return
	}
	verb := "equipped"
	if res.Purchased {
		verb = "unlocked and equipped"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     fmt.Sprintf("%s %q %s", res.Category, res.Item.Name, verb),
		"purchased":   res.Purchased,
		"pointsSpent": res.PointsSpent,
		"newPoints":   res.NewPoints,
	})
}

func (h *ProfileHandler) UpdateName(c *gin.Context) {
	var req structs.UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	u, err := h.profiles.UpdateName(c.Request.Context(), middlewares.PrincipalFrom(c), req.Name)
	if err != nil {
		respondError(c, err, "Failed to update name")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Name updated", "name": u.Name})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var in rules.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	u, err := h.profiles.UpdateProfile(c.Request.Context(), middlewares.PrincipalFrom(c), in)
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": u})
}
