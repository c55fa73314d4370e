package httpapi

import (
	"net/http"
	"strconv"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/server/models"
	"github.com/bbelderbos/codeimages/internal/server/services"
	"github.com/gin-gonic/gin"
)

// RemainingHeader tells the client how many snippets it may still create today.
const RemainingHeader = "X-Snippets-Remaining"

// POST /create
func (h *handler) createSnippet(c *gin.Context) {
	var draft models.SnippetDraft
	if err := c.ShouldBind(&draft); err != nil {
		writeDomainError(c, h.logger, bindError(err))
		return
	}
	account := currentAccount(c)
	snippet, err := h.snippets.Create(c.Request.Context(), account, draft)
	if err != nil {
		writeDomainError(c, h.logger, err)
		return
	}
	if left, err := h.snippets.RemainingToday(c.Request.Context(), account); err == nil {
		c.Header(RemainingHeader, strconv.Itoa(left))
	} else {
		h.logger.Warn(c.Request.Context(), "remaining quota unavailable", "error", err)
	}
	c.JSON(http.StatusCreated, snippet)
}

// DELETE /:id
func (h *handler) deleteSnippet(c *gin.Context) {
	if err := h.snippets.Delete(c.Request.Context(), currentAccount(c), c.Param("id")); err != nil {
		writeDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /tips
func (h *handler) listTips(c *gin.Context) {
	page, err := pageFromQuery(c)
	if err != nil {
		writeDomainError(c, h.logger, err)
		return
	}
	list, err := h.snippets.ListPublic(c.Request.Context(), page)
	if err != nil {
		writeDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// pageFromQuery reads offset and limit, defaulting to the first page of
// DefaultPageLimit items. Range checks happen in the service.
func pageFromQuery(c *gin.Context) (models.Page, error) {
	page := models.Page{Limit: services.DefaultPageLimit}
	ve := &common.ValidationError{Fields: map[string]string{}}
	if raw, ok := c.GetQuery("offset"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ve.Fields["offset"] = "must be an integer"
		}
		page.Offset = n
	}
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ve.Fields["limit"] = "must be an integer"
		}
		page.Limit = n
	}
	if len(ve.Fields) > 0 {
		return page, ve
	}
	return page, nil
}
