// Category HTTP handlers.
//
//   - GET    /categories                        (all categories with counts)
//   - GET    /categories/{slug}/products        (paginated, ETag support)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-backend/internal/domain"
	"github.com/tbourn/go-review-backend/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// CategoriesResponse lists every category.
type CategoriesResponse struct {
	Categories []domain.CategorySummary `json:"categories"`
}

// CategoryProductsResponse wraps a page of a category's products.
type CategoryProductsResponse struct {
	Category   string           `json:"category"`
	Products   []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// clampPagination reads page and page_size, bounding page_size to [1, 100].
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = max(utils.AtoiDefault(c.Query("page"), 1), 1)
	pageSize = utils.Clamp(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return page, pageSize
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Description Returns every category with its product count, ordered by slug.
// @Tags        Categories
// @Produce     json
//
// @Success     200  {object}  handlers.CategoriesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, CategoriesResponse{Categories: cats})
}

// ListCategoryProducts godoc
// @ID          listCategoryProducts
// @Summary     List a category's products (paginated)
// @Description Returns a page of products whose slug starts with the category slug, most recently updated first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Categories
// @Produce     json
//
// @Param       slug           path    string  true  "Category slug"               example(shoes)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.CategoryProductsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories/{slug}/products [get]
func (h *Handlers) ListCategoryProducts(c *gin.Context) {
	ctx := c.Request.Context()
	cat := c.Param("slug")
	if domain.Slugify(cat) != cat || cat == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid category slug")
		return
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.catalog.Stats(ctx, cat); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixMilli()
		}
		etag := fmt.Sprintf(`W/"cat:%s:%d:%d:%d:%d"`, cat, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.catalog.ListPage(ctx, cat, page, pageSize)
	if err != nil {
		serviceError(c, err)
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, CategoryProductsResponse{
		Category: cat,
		Products: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
