package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/scanner-service/internal/application"
	"github.com/wms-platform/scanner-service/internal/capture"
	"github.com/wms-platform/scanner-service/pkg/logging"
	"github.com/wms-platform/scanner-service/pkg/middleware"
)

type startSessionRequest struct {
	OperationID string `json:"operationId" binding:"required"`
}

type keyEventRequest struct {
	Key    string `json:"key" binding:"required"`
	Target string `json:"target"`
}

type keysRequest struct {
	Events []keyEventRequest `json:"events" binding:"required,min=1,dive"`
}

type cameraScanRequest struct {
	Barcode string `json:"barcode" binding:"required,barcode"`
}

func registerRoutes(router *gin.Engine, manager *application.SessionManager, logger *logging.Logger) {
	api := router.Group("/api/v1/sessions")
	{
		api.POST("", startSessionHandler(manager, logger))
		api.GET("/:sessionId", getSessionHandler(manager, logger))
		api.POST("/:sessionId/keys", keysHandler(manager, logger))
		api.POST("/:sessionId/camera", cameraScanHandler(manager, logger))
		api.POST("/:sessionId/scan-mode/toggle", sessionCommandHandler(manager.ToggleScanMode, logger))
		api.POST("/:sessionId/reload", sessionCommandHandler(manager.Reload, logger))
		api.POST("/:sessionId/validate", sessionCommandHandler(manager.Validate, logger))
		api.DELETE("/:sessionId", sessionCommandHandler(manager.Close, logger))
	}
}

func startSessionHandler(manager *application.SessionManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req startSessionRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"operation.id": req.OperationID,
		})

		view, err := manager.Start(c.Request.Context(), application.StartSessionCommand{OperationID: req.OperationID})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, view)
	}
}

func getSessionHandler(manager *application.SessionManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sessionID := c.Param("sessionId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"session.id": sessionID,
		})

		view, err := manager.View(sessionID)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

func keysHandler(manager *application.SessionManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sessionID := c.Param("sessionId")

		var req keysRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"session.id": sessionID,
			"key.count":  len(req.Events),
		})

		events := make([]capture.KeyEvent, 0, len(req.Events))
		for _, e := range req.Events {
			events = append(events, capture.KeyEvent{Key: e.Key, Target: capture.Target(e.Target)})
		}

		cmd := application.HandleKeysCommand{SessionID: sessionID, Events: events}
		if err := manager.HandleKeys(c.Request.Context(), cmd); err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"sessionId": sessionID, "accepted": len(events)})
	}
}

func cameraScanHandler(manager *application.SessionManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sessionID := c.Param("sessionId")

		var req cameraScanRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"session.id": sessionID,
			"barcode":    req.Barcode,
		})

		view, err := manager.ScanCamera(c.Request.Context(), application.CameraScanCommand{
			SessionID: sessionID,
			Barcode:   req.Barcode,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"outcome": view.LastOutcome,
			"session": view,
		})
	}
}

// sessionCommandHandler serves the commands that take nothing but the session id
func sessionCommandHandler(run func(ctx context.Context, cmd application.SessionCommand) (application.SessionView, error), logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		sessionID := c.Param("sessionId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"session.id": sessionID,
		})

		view, err := run(c.Request.Context(), application.SessionCommand{SessionID: sessionID})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}
