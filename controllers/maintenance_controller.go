package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"terrainhub/internal/limiter"
	"terrainhub/services"
)

// MaintenanceHandler exposes the rate limiter backend so an external cron
// can keep a hosted Redis awake.
type MaintenanceHandler struct {
	limiter limiter.Limiter
}

func NewMaintenanceHandler(l limiter.Limiter) *MaintenanceHandler {
	return &MaintenanceHandler{limiter: l}
}

func (h *MaintenanceHandler) Status(c *gin.Context) {
	st, err := h.limiter.Status(c.Request.Context())
	if err != nil {
		slog.Warn("limiter status failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": st, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": st})
}

func (h *MaintenanceHandler) Maintain(c *gin.Context) {
	st, err := h.limiter.Maintain(c.Request.Context())
	if err != nil {
		slog.Error("limiter maintenance failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": st, "error": err.Error()})
		return
	}
	slog.Info("limiter maintenance done", "backend", st.Backend, "runs", st.MaintenanceRuns)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Maintenance completed", "status": st})
}

// GeocodeHandler proxies reverse geocoding for the court form.
type GeocodeHandler struct {
	geocoder services.Geocoder
}

func NewGeocodeHandler(g services.Geocoder) *GeocodeHandler {
	return &GeocodeHandler{geocoder: g}
}

func (h *GeocodeHandler) Reverse(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be valid coordinates"})
		return
	}
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding is not configured"})
		return
	}
	addr, err := h.geocoder.Reverse(c.Request.Context(), lat, lng)
	if err != nil {
		slog.Warn("reverse geocoding failed", "lat", lat, "lng", lng, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Geocoding failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
