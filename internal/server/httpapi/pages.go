package httpapi

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/bbelderbos/codeimages/internal/server/models"
	"github.com/bbelderbos/codeimages/internal/server/services"
	"github.com/gin-gonic/gin"
)

const homePageSize = 20

var templateFuncs = template.FuncMap{
	"date": func(s *models.Snippet) string { return s.CreatedAt.UTC().Format("2006-01-02") },
}

// GET /
func (h *handler) homePage(c *gin.Context) {
	list, err := h.snippets.ListPublic(c.Request.Context(), models.Page{Limit: homePageSize})
	if err != nil {
		h.renderPageError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.tmpl", gin.H{"Snippets": list})
}

// POST /search
func (h *handler) searchPage(c *gin.Context) {
	term := strings.TrimSpace(c.PostForm("term"))
	list, err := h.snippets.Search(c.Request.Context(), term, models.Page{Limit: services.MaxPageLimit})
	if err != nil {
		h.renderPageError(c, err)
		return
	}
	c.HTML(http.StatusOK, "search.tmpl", gin.H{"Term": term, "Snippets": list})
}

func (h *handler) renderPageError(c *gin.Context, err error) {
	h.logger.Error(c.Request.Context(), "page failed", "path", c.FullPath(), "error", err)
	c.HTML(http.StatusInternalServerError, "error.tmpl", gin.H{"Message": "Something went wrong, please try again."})
}
