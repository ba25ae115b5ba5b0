package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"menus4all-staging-api/internal/lifecycle"
	"menus4all-staging-api/internal/models"
	"menus4all-staging-api/internal/s3"
	"menus4all-staging-api/internal/socket"
)

type MenuHandler struct {
	Engine     *lifecycle.Engine
	Sessions   *lifecycle.SessionManager
	S3Uploader *s3.Uploader
	Hub        *socket.Hub
}

type SendBackRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// respondLifecycleError maps the engine's tagged failures onto HTTP statuses.
func respondLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Menu not found"})
	case errors.Is(err, lifecycle.ErrConflictRequiresConfirmation):
		c.JSON(http.StatusConflict, gin.H{
			"error":                "Menu already exists in production",
			"confirmationRequired": true,
		})
	case lifecycle.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case lifecycle.IsPrecondition(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case lifecycle.IsStoreUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Menu store is temporarily unavailable, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ListMenus returns every staging menu keyed by id.
func (h *MenuHandler) ListMenus(c *gin.Context) {
	menus, err := h.Engine.List(c.Request.Context())
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, menus)
}

// GetMenu returns a single staging menu.
func (h *MenuHandler) GetMenu(c *gin.Context) {
	menu, err := h.Engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// SearchMenus runs an equality query against one field, e.g.
// ?field=city&value=Portland.
func (h *MenuHandler) SearchMenus(c *gin.Context) {
	field := c.Query("field")
	value := c.Query("value")
	if field == "" || value == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field and value query parameters are required"})
		return
	}

	menus, err := h.Engine.Query(c.Request.Context(), field, value)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, menus)
}

// ListNeedingUpdate returns the live menus past their 90-day refresh window.
func (h *MenuHandler) ListNeedingUpdate(c *gin.Context) {
	menus, err := h.Engine.ListNeedingUpdate(c.Request.Context())
	if err != nil {
		respondLifecycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, menus)
}

// CreateMenu saves a new staging menu; the engine assigns the id.
func (h *MenuHandler) CreateMenu(c *gin.Context) {
	var rec models.MenuRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.Engine.Save(c.Request.Context(), "", rec)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.Hub.Broadcast(socket.MenuEvent{Event: "saved", MenuID: saved.ID, Status: saved.Status})
	c.JSON(http.StatusCreated, saved)
}

// UpdateMenu replaces an existing staging menu, flushing any autosave still
// pending for it first so the explicit save wins.
func (h *MenuHandler) UpdateMenu(c *gin.Context) {
	id := c.Param("id")

	var rec models.MenuRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.Sessions.Drop(id)

	saved, err := h.Engine.Save(c.Request.Context(), id, rec)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.Hub.Broadcast(socket.MenuEvent{Event: "saved", MenuID: saved.ID, Status: saved.Status})
	c.JSON(http.StatusOK, saved)
}

// Autosave accepts the editor's in-progress state. The write is debounced
// behind the session's quiet period so rapid edits collapse into one save.
func (h *MenuHandler) Autosave(c *gin.Context) {
	id := c.Param("id")

	var rec models.MenuRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := h.Sessions.Session(id)
	session.Edit(rec)

	c.JSON(http.StatusAccepted, gin.H{"status": "scheduled", "menuID": id})
}

// UploadHeroImage stores the menu's hero image in S3 and patches the record
// with the resulting URL.
func (h *MenuHandler) UploadHeroImage(c *gin.Context) {
	id := c.Param("id")

	rec, err := h.Engine.Get(c.Request.Context(), id)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	objectKey := fmt.Sprintf("hero-images/%s/%d_%s", id, time.Now().UnixMilli(), fileHeader.Filename)
	url, err := h.S3Uploader.UploadFile(c.Request.Context(), file, objectKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image", "details": err.Error()})
		return
	}

	rec.HeroImageURL = url
	saved, err := h.Engine.Save(c.Request.Context(), id, rec)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.Hub.Broadcast(socket.MenuEvent{Event: "saved", MenuID: id, Status: saved.Status})
	c.JSON(http.StatusOK, gin.H{"heroImageURL": url})
}

// AttachCSV accepts the uploaded menu CSV and derives the structured menu
// from it.
func (h *MenuHandler) AttachCSV(c *gin.Context) {
	id := c.Param("id")

	fileHeader, err := c.FormFile("csv")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "csv file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	csvText, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	saved, err := h.Engine.AttachCSV(c.Request.Context(), id, string(csvText))
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.Hub.Broadcast(socket.MenuEvent{Event: "saved", MenuID: id, Status: saved.Status})
	c.JSON(http.StatusOK, saved)
}

// MarkReady moves a draft into review.
func (h *MenuHandler) MarkReady(c *gin.Context) {
	h.statusTransition(c, "ready-for-review", func(id string) error {
		return h.Engine.MarkReady(c.Request.Context(), id)
	})
}

// Approve clears a menu for publication.
func (h *MenuHandler) Approve(c *gin.Context) {
	h.statusTransition(c, "approved", func(id string) error {
		return h.Engine.Approve(c.Request.Context(), id)
	})
}

// SendBack returns a menu to draft with reviewer notes.
func (h *MenuHandler) SendBack(c *gin.Context) {
	var req SendBackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.statusTransition(c, "draft", func(id string) error {
		return h.Engine.SendBack(c.Request.Context(), id, req.Notes)
	})
}

func (h *MenuHandler) statusTransition(c *gin.Context, target string, op func(id string) error) {
	id := c.Param("id")
	if err := op(id); err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.Hub.Broadcast(socket.MenuEvent{Event: "status-changed", MenuID: id, Status: target})
	c.JSON(http.StatusOK, gin.H{"status": "success", "menuID": id, "menuStatus": target})
}

// Publish pushes an approved menu to production. When the production path is
// already occupied the response carries confirmationRequired; retrying with
// ?overwrite=true proceeds.
func (h *MenuHandler) Publish(c *gin.Context) {
	id := c.Param("id")
	overwrite := c.Query("overwrite") == "true"

	path, err := h.Engine.Publish(c.Request.Context(), id, overwrite)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.Hub.Broadcast(socket.MenuEvent{Event: "published", MenuID: id, Status: models.StatusLive})
	c.JSON(http.StatusOK, gin.H{"status": "success", "menuID": id, "productionPath": path})
}

// DeleteMenu removes the staging record. A published production copy stays
// live; it is the public artifact.
func (h *MenuHandler) DeleteMenu(c *gin.Context) {
	id := c.Param("id")

	h.Sessions.Drop(id)
	if err := h.Engine.Delete(c.Request.Context(), id); err != nil {
		respondLifecycleError(c, err)
		return
	}

	h.Hub.Broadcast(socket.MenuEvent{Event: "deleted", MenuID: id})
	c.JSON(http.StatusOK, gin.H{"status": "success", "menuID": id})
}
