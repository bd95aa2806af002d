package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tunebridge/internal/core"
	"tunebridge/pkg/videoid"
)

type searchRequest struct {
	Query string `json:"query"`
}

type resolveRequest struct {
	URL string `json:"url"`
}

type handler struct {
	search   core.SearchService
	resolver core.StreamResolver
	cache    urlCache
	metrics  *Metrics
	logger   *zap.Logger
}

// urlCache is what the resolve handler needs from the resolved-URL cache.
type urlCache interface {
	Get(videoID string) (string, bool)
	Add(videoID, url string)
}

func (h *handler) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordSearch("search", "invalid")
		respondError(c, "Search failed: invalid request body")
		return
	}

	results, err := h.search.Search(c.Request.Context(), req.Query)
	if err != nil {
		h.metrics.RecordSearch("search", "error")
		respondError(c, "Search failed: "+err.Error())
		return
	}

	h.metrics.RecordSearch("search", "ok")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": results,
	})
}

func (h *handler) handlePopular(c *gin.Context) {
	results, err := h.search.Popular(c.Request.Context())
	if err != nil {
		h.metrics.RecordSearch("popular", "error")
		respondError(c, "Popular fetch failed: "+err.Error())
		return
	}

	h.metrics.RecordSearch("popular", "ok")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": results,
	})
}

func (h *handler) handleRecommendations(c *gin.Context) {
	query, results, err := h.search.Recommendations(c.Request.Context())
	if err != nil {
		h.metrics.RecordSearch("recommendations", "error")
		respondError(c, "Recommendations failed: "+err.Error())
		return
	}

	h.metrics.RecordSearch("recommendations", "ok")
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"query":   query,
		"results": results,
	})
}

func (h *handler) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "Resolve failed: invalid request body")
		return
	}

	id, err := videoid.Extract(req.URL)
	if err != nil {
		respondError(c, "Resolve failed: "+err.Error())
		return
	}

	if url, ok := h.cache.Get(id); ok {
		h.metrics.CacheHitsTotal.Inc()
		c.JSON(http.StatusOK, gin.H{
			"status":    "success",
			"audio_url": url,
		})
		return
	}

	start := time.Now()
	url, err := h.resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		h.metrics.RecordResolution("exhausted", time.Since(start))
		h.logger.Warn("resolution failed",
			zap.String("video_id", id),
			zap.Error(err))
		respondError(c, "Resolve failed: "+err.Error())
		return
	}
	h.metrics.RecordResolution("resolved", time.Since(start))

	h.cache.Add(id, url)

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"audio_url": url,
	})
}

func (h *handler) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *handler) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tunebridge",
	})
}

// respondError maps every expected failure to a 400 with a readable reason.
// Nothing in the normal flow surfaces as a 500; gin's recovery middleware is
// the only path there.
func respondError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"message": message,
	})
}
