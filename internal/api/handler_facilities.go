package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetFacilities handles GET /api/facilities.
func (h *Handler) GetFacilities(c *gin.Context) {
	facilities, err := h.reports.FacilitiesList(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load facilities"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"facilities": facilities, "count": len(facilities)})
}
