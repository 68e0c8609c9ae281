package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ExtractHTMLRequest carries markup to extract
type ExtractHTMLRequest struct {
	HTML string `json:"html"`
}

// URLRequest names a page to fetch
type URLRequest struct {
	URL string `json:"url" binding:"required"`
}

// PageRequest names a page to analyze. When HTML is set no fetch is made.
type PageRequest struct {
	URL  string  `json:"url" binding:"required"`
	HTML *string `json:"html"`
}

// ExtractHTML extracts text from supplied markup
func (h *Handlers) ExtractHTML(c *gin.Context) {
	var req ExtractHTMLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.app.Extractor.ExtractFromHTML(req.HTML))
}

// ExtractURL fetches a page and extracts its text
func (h *Handlers) ExtractURL(c *gin.Context) {
	var req URLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	extracted, err := h.app.Extractor.ExtractFromURL(c.Request.Context(), req.URL)
	if err != nil {
		h.fetchFailed(c, req.URL, err)
		return
	}
	c.JSON(http.StatusOK, extracted)
}

// AnalyzePage returns the full page record
func (h *Handlers) AnalyzePage(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if req.HTML != nil {
		p, err := h.app.Pages.AnalyzeHTML(req.URL, *req.HTML)
		if err != nil {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
		return
	}

	p, err := h.app.Pages.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		h.fetchFailed(c, req.URL, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
