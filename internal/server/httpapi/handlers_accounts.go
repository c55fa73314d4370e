package httpapi

import (
	"net/http"

	"github.com/bbelderbos/codeimages/internal/server/services"
	"github.com/gin-gonic/gin"
)

type loginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// POST /users
func (h *handler) register(c *gin.Context) {
	var in services.Registration
	if err := c.ShouldBind(&in); err != nil {
		writeDomainError(c, h.logger, bindError(err))
		return
	}
	account, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		writeDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// GET /activate/:key
func (h *handler) activate(c *gin.Context) {
	if _, err := h.accounts.Activate(c.Request.Context(), c.Param("key")); err != nil {
		writeDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_active": true})
}

// POST /token
func (h *handler) token(c *gin.Context) {
	var in loginForm
	if err := c.ShouldBind(&in); err != nil {
		writeDomainError(c, h.logger, bindError(err))
		return
	}
	tok, err := h.accounts.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		writeDomainError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}
