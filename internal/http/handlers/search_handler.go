package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// InterpretSearchRequest is a free-text product search.
type InterpretSearchRequest struct {
	Query string `json:"query" binding:"required,max=300" example:"glow-in-the-dark dog leash"`
}

// InterpretSearch godoc
// @ID          interpretSearch
// @Summary     Search and brainstorm products
// @Description Returns up to five stored products ranked by semantic similarity (exists=true), followed by model-suggested products not yet in the catalog (exists=false). Provider failures only shrink the list.
// @Tags        Search
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.InterpretSearchRequest  true  "Search query"
//
// @Success     200  {object}  services.SearchResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /interpret-search [post]
func (h *Handlers) InterpretSearch(c *gin.Context) {
	var req InterpretSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query is required")
		return
	}

	res, err := h.suggest.Interpret(c.Request.Context(), req.Query)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
