// Product HTTP handlers.
//
// This file exposes the review lifecycle endpoints:
//   - POST   /create-product       (create or return existing)
//   - POST   /regenerate-review    (append a version, 24h cooldown)
//   - POST   /verify-review        (trust vote)
//   - GET    /products/{slug}      (read)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-backend/internal/domain"
	"github.com/tbourn/go-review-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ReviewService defines the review lifecycle consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ReviewService interface {
	// Create returns the product for (name, category), generating it when it
	// does not exist yet. created reports whether this call stored it.
	Create(ctx context.Context, name, category string) (*domain.Product, bool, error)
	// Regenerate appends a new review version once the cooldown has elapsed.
	Regenerate(ctx context.Context, slug string) (domain.ReviewVersion, error)
	// Get returns the product stored under slug.
	Get(ctx context.Context, slug string) (*domain.Product, error)
}

// SuggestService answers free-text product searches.
type SuggestService interface {
	Interpret(ctx context.Context, query string) (*services.SearchResult, error)
}

// ImageService backfills and resolves product images.
type ImageService interface {
	FetchImages(ctx context.Context, slug, searchQuery string) ([]string, error)
	GenerateImage(ctx context.Context, slug, name, category string) ([]string, error)
	ResolveImage(ctx context.Context, name, category string) (string, error)
}

// VoteService records trust votes.
type VoteService interface {
	Apply(ctx context.Context, slug, action string) (int, error)
}

// CatalogService serves category browsing.
type CatalogService interface {
	Categories(ctx context.Context) ([]domain.CategorySummary, error)
	ListPage(ctx context.Context, categorySlug string, page, pageSize int) ([]domain.Product, int64, error)
	Stats(ctx context.Context, categorySlug string) (int64, *time.Time, error)
}

//
// Handler wiring
//

// Services bundles the application services the handlers depend on. ProxyClient
// is used by the image proxy; nil means a default client with a cookie jar.
// Its CheckRedirect is replaced so every hop passes the same host check.
// ProxyAllowPrivate lets the proxy reach loopback and private hosts (tests,
// local development).
type Services struct {
	Reviews           ReviewService
	Suggest           SuggestService
	Images            ImageService
	Votes             VoteService
	Catalog           CatalogService
	ProxyClient       *http.Client
	ProxyAllowPrivate bool
}

// Handlers groups the HTTP endpoints of the review API. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	reviews ReviewService
	suggest SuggestService
	images  ImageService
	votes   VoteService
	catalog CatalogService

	proxy        *http.Client
	proxyPrivate bool
}

// New constructs and returns a Handlers instance bound to the given services.
func New(s Services) *Handlers {
	proxy := &http.Client{}
	if s.ProxyClient != nil {
		*proxy = *s.ProxyClient
	} else {
		// some image hosts redirect through a cookie check
		proxy.Jar, _ = cookiejar.New(nil)
	}
	proxy.CheckRedirect = proxyRedirects(s.ProxyAllowPrivate)
	return &Handlers{
		reviews: s.Reviews,
		suggest: s.Suggest,
		images:  s.Images,
		votes:   s.Votes,
		catalog: s.Catalog,

		proxy:        proxy,
		proxyPrivate: s.ProxyAllowPrivate,
	}
}

//
// DTOs
//

// CreateProductRequest is the JSON payload for creating a product review.
type CreateProductRequest struct {
	ProductName string `json:"productName" binding:"required,max=200" example:"New Balance 574"`
	Category    string `json:"category"    binding:"required,max=100" example:"Shoes"`
}

// CreateProductResponse wraps the product with a human-readable outcome.
type CreateProductResponse struct {
	Message string          `json:"message" example:"Product created."`
	Product *domain.Product `json:"product"`
}

// RegenerateReviewRequest identifies the product to regenerate.
type RegenerateReviewRequest struct {
	ProductID string `json:"productId" binding:"required,productkey" example:"shoes/new-balance-574"`
}

// RegenerateReviewResponse carries the appended version.
type RegenerateReviewResponse struct {
	NewVersion domain.ReviewVersion `json:"newVersion"`
}

// VerifyReviewRequest is a trust vote on the product's review.
type VerifyReviewRequest struct {
	ProductID string `json:"productId" binding:"required,productkey" example:"shoes/new-balance-574"`
	Action    string `json:"action"    binding:"required,oneof=upvote downvote" example:"upvote"`
}

// VerifyReviewResponse returns the score after the vote.
type VerifyReviewResponse struct {
	NewScore int `json:"newScore" example:"3"`
}

//
// Handlers
//

// CreateProduct godoc
// @ID          createProduct
// @Summary     Create a product review
// @Description Generates and stores a review for a new product, or returns the existing product when the name and category already map to a stored slug.
// @Tags        Products
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateProductRequest  true  "Product name and category"
//
// @Success     201  {object}  handlers.CreateProductResponse  "Created"
// @Success     200  {object}  handlers.CreateProductResponse  "Already exists"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Generation failed"
// @Router      /create-product [post]
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "productName and category are required")
		return
	}

	p, created, err := h.reviews.Create(c.Request.Context(), strings.TrimSpace(req.ProductName), strings.TrimSpace(req.Category))
	if err != nil {
		serviceError(c, err)
		return
	}
	if !created {
		ok(c, http.StatusOK, CreateProductResponse{Message: "Product already exists.", Product: p})
		return
	}
	ok(c, http.StatusCreated, CreateProductResponse{Message: "Product created.", Product: p})
}

// RegenerateReview godoc
// @ID          regenerateReview
// @Summary     Regenerate a review
// @Description Appends a freshly generated review version. Allowed once per cooldown window (24h by default).
// @Tags        Products
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegenerateReviewRequest  true  "Product slug"
//
// @Success     200  {object}  handlers.RegenerateReviewResponse
// @Failure     400  {object}  handlers.ErrorResponse     "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse     "Product not found"
// @Failure     429  {object}  handlers.CooldownResponse  "Cooldown active"
// @Failure     500  {object}  handlers.ErrorResponse     "Generation failed"
// @Router      /regenerate-review [post]
func (h *Handlers) RegenerateReview(c *gin.Context) {
	var req RegenerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "productId must be a product slug")
		return
	}

	v, err := h.reviews.Regenerate(c.Request.Context(), req.ProductID)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, RegenerateReviewResponse{NewVersion: v})
}

// VerifyReview godoc
// @ID          verifyReview
// @Summary     Vote on a review
// @Description Records an upvote (+1) or downvote (-1) and returns the new verification score.
// @Tags        Products
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.VerifyReviewRequest  true  "Vote"
//
// @Success     200  {object}  handlers.VerifyReviewResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /verify-review [post]
func (h *Handlers) VerifyReview(c *gin.Context) {
	var req VerifyReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "productId and action (upvote|downvote) are required")
		return
	}

	score, err := h.votes.Apply(c.Request.Context(), req.ProductID, req.Action)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, VerifyReviewResponse{NewScore: score})
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get a product
// @Description Returns the product with its full review history. The slug contains one slash (category/name).
// @Tags        Products
// @Produce     json
//
// @Param       slug  path  string  true  "Product slug"  example(shoes/new-balance-574)
//
// @Success     200  {object}  domain.Product
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Router      /products/{slug} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	slug := strings.TrimPrefix(c.Param("slug"), "/")
	if !domain.ValidProductKey(slug) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid product slug")
		return
	}

	p, err := h.reviews.Get(c.Request.Context(), slug)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
