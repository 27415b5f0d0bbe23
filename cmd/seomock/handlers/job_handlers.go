package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"seo-assistant/cmd/seomock/middleware"
	"seo-assistant/cmd/seomock/services"
	"seo-assistant/dto"
)

// JobStatusHandler godoc
// @Summary      Job status
// @Description  Status of a generation job; agent_message is set once it completed.
// @Tags         jobs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "job id"
// @Success      200  {object}  dto.JobStatusResponse
// @Failure      403  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /jobs/{id}/status [get]
func JobStatusHandler(svc *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := svc.JobStatus(middleware.Subject(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HealthHandler godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponseDTO
// @Router       /health [get]
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.HealthResponseDTO{Status: "ok"})
	}
}
