package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"seo-assistant/cmd/seomock/middleware"
	"seo-assistant/cmd/seomock/repositories"
	"seo-assistant/cmd/seomock/services"
	"seo-assistant/dto"
)

// CreateSessionAsyncHandler godoc
// @Summary      Start a session
// @Description  Creates a session from its first message and queues the generation job.
// @Tags         sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SessionCreateRequest  true  "first message"
// @Success      201   {object}  dto.AsyncSessionStartResponse
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Router       /sessions/async [post]
func CreateSessionAsyncHandler(svc *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SessionCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}

		resp, err := svc.StartSession(c.Request.Context(), middleware.Subject(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// AddMessageAsyncHandler godoc
// @Summary      Add a message
// @Description  Appends a user message to a session and queues the generation job.
// @Tags         sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "session id"
// @Param        body  body      dto.MessageCreateRequest  true  "message"
// @Success      201   {object}  dto.AsyncMessageResponse
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /sessions/{id}/messages/async [post]
func AddMessageAsyncHandler(svc *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.MessageCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}

		resp, err := svc.AddMessage(c.Request.Context(), middleware.Subject(c), c.Param("id"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// ListSessionsHandler godoc
// @Summary      List sessions
// @Description  Sessions of the caller, most recent message first.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "max sessions (default 50, max 100)"
// @Param        offset  query     int  false  "sessions to skip"
// @Success      200     {array}   dto.SessionListItem
// @Router       /sessions [get]
func ListSessionsHandler(svc *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, ok := pageParams(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, svc.ListSessions(middleware.Subject(c), limit, offset))
	}
}

// ListMessagesHandler godoc
// @Summary      List messages
// @Description  Messages of a session, oldest first.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true   "session id"
// @Param        limit   query     int     false  "max messages (default 100, max 500)"
// @Param        offset  query     int     false  "messages to skip"
// @Success      200     {array}   dto.MessageOut
// @Failure      404     {object}  dto.ErrorResponseDTO
// @Router       /sessions/{id}/messages [get]
func ListMessagesHandler(svc *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, ok := pageParams(c)
		if !ok {
			return
		}
		out, err := svc.ListMessages(middleware.Subject(c), c.Param("id"), limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// UpdateSessionHandler godoc
// @Summary      Rename a session
// @Tags         sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "session id"
// @Param        body  body      dto.SessionUpdateRequest  true  "new title"
// @Success      200   {object}  dto.SessionUpdateResponse
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /sessions/{id} [patch]
func UpdateSessionHandler(svc *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SessionUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}

		resp, err := svc.UpdateSession(middleware.Subject(c), c.Param("id"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// DeleteSessionHandler godoc
// @Summary      Delete a session
// @Description  Deletes a session with its messages and jobs.
// @Tags         sessions
// @Security     BearerAuth
// @Param        id   path  string  true  "session id"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /sessions/{id} [delete]
func DeleteSessionHandler(svc *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteSession(middleware.Subject(c), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func pageParams(c *gin.Context) (limit, offset int, ok bool) {
	var err error
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_limit"})
			return 0, 0, false
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_offset"})
			return 0, 0, false
		}
	}
	return limit, offset, true
}

// writeError maps service errors onto status codes.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not_found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponseDTO{Error: "forbidden"})
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrEmptyTitle):
		c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: err.Error()})
	}
}
