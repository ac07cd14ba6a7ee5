package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/model-workshop/internal/models"
	"github.com/example/model-workshop/internal/policy"
	"github.com/example/model-workshop/internal/runs"
	"github.com/example/model-workshop/internal/selection"
	"github.com/example/model-workshop/internal/session"
	"github.com/example/model-workshop/internal/upload"
	"github.com/example/model-workshop/internal/workshop"
)

// respondError traduz erros de domínio em status HTTP. Erros inesperados são logados.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, workshop.ErrNotAuthenticated), errors.Is(err, workshop.ErrWorkspaceClosed):
		status, msg = http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, session.ErrBusy):
		status, msg = http.StatusConflict, "login already in progress"
	case errors.Is(err, workshop.ErrAlreadyAuthenticated):
		status, msg = http.StatusConflict, "already authenticated"
	case errors.Is(err, workshop.ErrLaunchInProgress):
		status, msg = http.StatusConflict, "model execution is already starting"
	case errors.Is(err, workshop.ErrUploadInProgress):
		status, msg = http.StatusConflict, "an upload is already in progress"
	case errors.Is(err, upload.ErrUploadForbidden):
		status, msg = http.StatusForbidden, upload.Message(err)
	case errors.Is(err, upload.ErrInvalidType), errors.Is(err, upload.ErrTooLarge):
		status, msg = http.StatusUnprocessableEntity, upload.Message(err)
	case errors.Is(err, runs.ErrNoFile), errors.Is(err, runs.ErrNoModel), errors.Is(err, runs.ErrNoMode):
		status, msg = http.StatusUnprocessableEntity, runs.Message(err)
	case errors.Is(err, selection.ErrRestricted):
		status, msg = http.StatusForbidden, "option not available for your role"
	case errors.Is(err, selection.ErrUnknownItem):
		status, msg = http.StatusBadRequest, "unknown option"
	case errors.Is(err, runs.ErrNotFound):
		status, msg = http.StatusNotFound, "run not found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusRequestTimeout, "request cancelled"
	}
	if status == http.StatusInternalServerError {
		logger.Error("erro ao processar requisição", zap.String("path", c.Request.URL.Path), zap.Error(err))
	} else {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

// =================================================================================
// AUTHENTICATION HANDLERS
// =================================================================================

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		user, err := currentClient(c).Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
		if err != nil {
			respondError(c, d.Logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

func logoutHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := currentClient(c).Logout(c.Request.Context()); err != nil {
			respondError(c, d.Logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	}
}

func meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := currentClient(c)
		resp := gin.H{
			"authenticated": false,
			"state":         client.State(),
			"busy":          client.Busy(),
		}
		if user, ok := client.User(); ok {
			resp["authenticated"] = true
			resp["user"] = user
		}
		c.JSON(http.StatusOK, resp)
	}
}

func notificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"notifications": currentClient(c).Notifications().Drain()})
	}
}

// =================================================================================
// CATALOG / SELECTION HANDLERS
// =================================================================================

func catalogHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, policy.Catalog(currentWorkspace(c).User().Role))
	}
}

func selectionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, currentWorkspace(c).Selection().Snapshot())
	}
}

type selectRequest struct {
	Value string `json:"value" binding:"required"`
}

func selectModelHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req selectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		ws := currentWorkspace(c)
		if err := ws.Selection().SetModel(models.ModelType(req.Value)); err != nil {
			respondError(c, d.Logger, err)
			return
		}
		c.JSON(http.StatusOK, ws.Selection().Snapshot())
	}
}

func selectModeHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req selectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		ws := currentWorkspace(c)
		if err := ws.Selection().SetMode(models.ModeType(req.Value)); err != nil {
			respondError(c, d.Logger, err)
			return
		}
		c.JSON(http.StatusOK, ws.Selection().Snapshot())
	}
}

// =================================================================================
// FILE HANDLERS
// =================================================================================

func checkFileHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cand upload.Candidate
		if err := c.ShouldBindJSON(&cand); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		if err := currentWorkspace(c).Check(cand); err != nil {
			respondError(c, d.Logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true})
	}
}

// readCandidate aceita um descriptor JSON ou um formulário multipart com o campo "file".
// Do arquivo só interessam nome, tamanho e tipo.
func readCandidate(c *gin.Context) (upload.Candidate, error) {
	if c.ContentType() == gin.MIMEJSON {
		var cand upload.Candidate
		err := c.ShouldBindJSON(&cand)
		return cand, err
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*upload.MaxSize)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return upload.Candidate{}, upload.ErrTooLarge
		}
		return upload.Candidate{}, err
	}
	return upload.Candidate{
		Name:     fh.Filename,
		Size:     fh.Size,
		MimeType: fh.Header.Get("Content-Type"),
	}, nil
}

func wantsStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

func uploadHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := currentWorkspace(c)
		cand, err := readCandidate(c)
		if errors.Is(err, upload.ErrTooLarge) {
			currentClient(c).Notifications().Error(upload.Message(err))
			respondError(c, d.Logger, err)
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		if !wantsStream(c) {
			fd, err := ws.Upload(c.Request.Context(), cand, nil)
			if err != nil {
				respondError(c, d.Logger, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"file": fd})
			return
		}

		streaming := false
		fd, err := ws.Upload(c.Request.Context(), cand, func(p float64) {
			if !streaming {
				streaming = true
				c.Header("Content-Type", "text/event-stream")
				c.Header("Cache-Control", "no-cache")
				c.Header("Connection", "keep-alive")
				c.Header("X-Accel-Buffering", "no")
				c.Status(http.StatusOK)
			}
			c.SSEvent("progress", gin.H{"percent": p})
			c.Writer.Flush()
		})
		switch {
		case err != nil && !streaming:
			respondError(c, d.Logger, err)
		case err != nil:
			c.SSEvent("error", gin.H{"error": "upload aborted"})
			c.Writer.Flush()
		default:
			c.SSEvent("done", gin.H{"file": fd})
			c.Writer.Flush()
		}
	}
}

func progressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := currentWorkspace(c).Progress()
		if !ok {
			c.JSON(http.StatusOK, gin.H{"progress": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"progress": p})
	}
}

func removeFileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		currentWorkspace(c).RemoveFile()
		c.Status(http.StatusNoContent)
	}
}

// =================================================================================
// RUN HANDLERS
// =================================================================================

func launchHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := currentWorkspace(c).Launch(c.Request.Context())
		if err != nil {
			respondError(c, d.Logger, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	}
}

func listRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"runs": currentWorkspace(c).Runs().List()})
	}
}

func getRunHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := currentWorkspace(c).Runs().Get(c.Param("id"))
		if err != nil {
			respondError(c, d.Logger, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}
