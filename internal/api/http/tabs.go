package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DannyMang/theta/internal/domain/content"
	"github.com/DannyMang/theta/internal/domain/tab"
)

// CreateTabRequest opens a tab
type CreateTabRequest struct {
	URL   string `json:"url" binding:"required"`
	Title string `json:"title"`
}

// NavigateRequest moves a tab to a new URL. With Extract the page is
// fetched and its title applied to the tab.
type NavigateRequest struct {
	URL     string `json:"url" binding:"required"`
	Extract bool   `json:"extract"`
}

// TitleRequest renames a tab
type TitleRequest struct {
	Title string `json:"title"`
}

// LoadingRequest sets the loading flag
type LoadingRequest struct {
	Loading *bool `json:"loading" binding:"required"`
}

// FaviconRequest sets or clears the favicon
type FaviconRequest struct {
	Favicon string `json:"favicon"`
}

// ListTabs lists open tabs in creation order
func (h *Handlers) ListTabs(c *gin.Context) {
	active, _ := h.app.Tabs.ActiveTabID()
	c.JSON(http.StatusOK, gin.H{
		"tabs":          h.app.Tabs.GetAllTabs(),
		"active_tab_id": active,
		"stats":         h.app.Tabs.Stats(),
	})
}

// CreateTab opens and activates a tab
func (h *Handlers) CreateTab(c *gin.Context) {
	var req CreateTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tabID := h.app.Tabs.CreateTab(req.URL, req.Title)
	t, _ := h.app.Tabs.GetTab(tabID)

	c.JSON(http.StatusCreated, gin.H{
		"tab_id": tabID,
		"tab":    t,
	})
}

// GetTab returns one tab
func (h *Handlers) GetTab(c *gin.Context) {
	t, ok := h.app.Tabs.GetTab(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tab not found"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// GetActiveTab returns the active tab
func (h *Handlers) GetActiveTab(c *gin.Context) {
	t, ok := h.app.Tabs.GetActiveTab()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active tab"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// CloseTab closes a tab
func (h *Handlers) CloseTab(c *gin.Context) {
	tabID := c.Param("id")
	success := h.app.Tabs.CloseTab(tabID)
	active, _ := h.app.Tabs.ActiveTabID()

	c.JSON(http.StatusOK, gin.H{
		"success":       success,
		"tab_id":        tabID,
		"active_tab_id": active,
	})
}

// ActivateTab makes a tab active
func (h *Handlers) ActivateTab(c *gin.Context) {
	tabID := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"success": h.app.Tabs.SetActiveTab(tabID),
		"tab_id":  tabID,
	})
}

// NavigateTab records a navigation and optionally extracts the new page
func (h *Handlers) NavigateTab(c *gin.Context) {
	tabID := c.Param("id")

	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if !h.app.Tabs.NavigateTab(tabID, req.URL) {
		c.JSON(http.StatusOK, gin.H{"success": false, "tab_id": tabID})
		return
	}

	if !req.Extract {
		t, _ := h.app.Tabs.GetTab(tabID)
		c.JSON(http.StatusOK, gin.H{"success": true, "tab_id": tabID, "tab": t})
		return
	}

	extracted, err := h.app.Extractor.ExtractFromURL(c.Request.Context(), req.URL)
	if err != nil {
		h.app.Tabs.UpdateTab(tabID, func(t *tab.Tab) {
			if t.URL == req.URL {
				t.IsLoading = false
			}
		})
		h.logger.Warn("navigation extract failed",
			zap.String("tab_id", tabID),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		t, _ := h.app.Tabs.GetTab(tabID)
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"tab_id":        tabID,
			"tab":           t,
			"extract_error": err.Error(),
		})
		return
	}

	// A newer navigation owns the tab once its URL has moved on.
	h.app.Tabs.UpdateTab(tabID, func(t *tab.Tab) {
		if t.URL != req.URL {
			return
		}
		if extracted.Title != content.DefaultTitle {
			t.Title = extracted.Title
		}
		t.IsLoading = false
	})

	t, _ := h.app.Tabs.GetTab(tabID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tab_id":  tabID,
		"tab":     t,
		"content": extracted,
	})
}

// UpdateTitle renames a tab
func (h *Handlers) UpdateTitle(c *gin.Context) {
	tabID := c.Param("id")

	var req TitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": h.app.Tabs.UpdateTabTitle(tabID, req.Title),
		"tab_id":  tabID,
	})
}

// SetLoading sets the loading flag
func (h *Handlers) SetLoading(c *gin.Context) {
	tabID := c.Param("id")

	var req LoadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": h.app.Tabs.SetTabLoading(tabID, *req.Loading),
		"tab_id":  tabID,
	})
}

// SetFavicon sets or clears the favicon
func (h *Handlers) SetFavicon(c *gin.Context) {
	tabID := c.Param("id")

	var req FaviconRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": h.app.Tabs.SetTabFavicon(tabID, req.Favicon),
		"tab_id":  tabID,
	})
}
