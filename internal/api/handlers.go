package api

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/bridgesync/bridgesync/internal/auth"
	"github.com/bridgesync/bridgesync/internal/model"
	"github.com/bridgesync/bridgesync/internal/navigation"
	"github.com/bridgesync/bridgesync/internal/presenter"
	"github.com/bridgesync/bridgesync/internal/queue"
	"github.com/bridgesync/bridgesync/internal/repository"
	"github.com/bridgesync/bridgesync/internal/uploader"
)

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) handleSignup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	session, err := a.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (a *API) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	session, err := a.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a *API) handleGetProfile(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c.Request.Context())
	profile, err := a.profiles.Get(c.Request.Context(), principal.ID)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type profileRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role" binding:"required"`
}

func (a *API) handlePutProfile(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c.Request.Context())
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and role are required"})
		return
	}
	role := model.ParseRole(req.Role)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be one of sales, pm, dev"})
		return
	}
	profile := &model.Profile{
		ID:    principal.ID,
		Name:  req.Name,
		Email: principal.Email,
		Role:  role,
	}
	if err := a.profiles.Upsert(c.Request.Context(), profile); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (a *API) handleMenu(c *gin.Context) {
	role := a.callerRole(c)
	c.JSON(http.StatusOK, gin.H{
		"role":  role,
		"items": navigation.MenuFor(role),
	})
}

func (a *API) handleDashboard(c *gin.Context) {
	role := a.callerRole(c)
	c.JSON(http.StatusOK, navigation.DashboardFor(role))
}

func (a *API) handleUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !a.typeAllowed(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported content type " + contentType})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	result, err := a.uploads.Upload(c.Request.Context(), file, header.Size, filename, contentType)
	if err != nil {
		a.writeError(c, err)
		return
	}

	payload := queue.ProcessPayload{
		UploadID:  result.Record.ID,
		ObjectKey: result.Record.FilePath,
		Filename:  filename,
	}
	if err := a.enqueuer.EnqueueProcess(c.Request.Context(), payload); err != nil {
		// The upload itself succeeded; the row simply stays in "uploaded".
		a.logger.Warn("enqueue processing failed", "upload", result.Record.ID, "error", err)
	}

	c.JSON(http.StatusCreated, result)
}

func (a *API) handleListUploads(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c.Request.Context())
	uploads, err := a.lister.ListUploads(c.Request.Context(), principal)
	if err != nil {
		a.writeError(c, err)
		return
	}
	if uploads == nil {
		uploads = []presenter.PresentedUpload{}
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}

func (a *API) handleSummaries(c *gin.Context) {
	summaries, err := a.summaries.List(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	if summaries == nil {
		summaries = []model.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

func (a *API) handleTasks(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c.Request.Context())
	var (
		tasks []model.Task
		err   error
	)
	// Developers see only their own tasks; project managers see everything.
	if a.callerRole(c) == model.RoleDev {
		tasks, err = a.tasks.ListAssignedTo(c.Request.Context(), principal.ID)
	} else {
		tasks, err = a.tasks.List(c.Request.Context())
	}
	if err != nil {
		a.writeError(c, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type taskPatchRequest struct {
	Status string `json:"status" binding:"required"`
}

func (a *API) handlePatchTask(c *gin.Context) {
	var req taskPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	status := model.TaskStatus(req.Status)
	switch status {
	case model.TaskPending, model.TaskInProgress, model.TaskCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of pending, in-progress, completed"})
		return
	}
	if err := a.tasks.SetStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": status})
}

func (a *API) typeAllowed(contentType string) bool {
	for _, allowed := range a.cfg.AllowedTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// writeError maps the error taxonomy onto status codes. Failures are
// reported once and never retried.
func (a *API) writeError(c *gin.Context, err error) {
	var (
		storageErr *uploader.StorageWriteError
		signErr    *uploader.SignURLError
		metaErr    *uploader.MetadataInsertError
		queryErr   *presenter.QueryError
	)
	switch {
	case errors.Is(err, uploader.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "AuthError", "message": err.Error()})
	case errors.Is(err, auth.ErrDuplicateSignup):
		c.JSON(http.StatusConflict, gin.H{"error": "AuthError", "message": err.Error()})
	case errors.As(err, &storageErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "StorageWriteFailed", "message": storageErr.Error()})
	case errors.As(err, &signErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "SignedUrlFailed", "message": signErr.Error()})
	case errors.As(err, &metaErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "MetadataInsertFailed", "message": metaErr.Error()})
	case errors.As(err, &queryErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "QueryFailed", "message": queryErr.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "NotFound"})
	default:
		a.logger.Error("unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal"})
	}
}
