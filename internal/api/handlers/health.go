package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Cache     interface{}       `json:"tts_cache,omitempty"`
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	services := map[string]string{"api": "healthy"}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			services[name] = "unhealthy"
		} else {
			services[name] = "healthy"
		}
	}

	if !h.cfg.FeatureTTS {
		services["tts"] = "disabled"
	} else if h.speech.CanSynthesize() {
		services["tts"] = "available"
	} else {
		services["tts"] = "unavailable"
	}

	overallStatus := "healthy"
	for _, status := range services {
		if status == "unhealthy" {
			overallStatus = "degraded"
			break
		}
	}

	resp := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  services,
	}
	if h.cache != nil {
		if stats, err := h.cache.Stats(); err == nil {
			resp.Cache = stats
		}
	}

	c.JSON(http.StatusOK, resp)
}
