// Image HTTP handlers.
//
// This file exposes image backfill and delivery endpoints:
//   - POST   /fetch-images     (search images for a stored product)
//   - POST   /generate-image   (render a studio photo, search fallback)
//   - POST   /get-image-url    (one image for any name/category, cached)
//   - GET    /image-proxy      (stream a remote image under our origin)
package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-review-backend/internal/http/middleware"
)

var errBadProxyURL = errors.New("unsupported proxy url")

const (
	proxyTimeout      = 8 * time.Second
	proxyMaxRedirects = 10
	proxyUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	proxyCacheCtl     = "public, max-age=31536000, immutable"
)

// FetchImagesRequest asks for images of a stored product.
type FetchImagesRequest struct {
	ProductID   string `json:"productId"   binding:"required,productkey" example:"shoes/new-balance-574"`
	SearchQuery string `json:"searchQuery" binding:"required,max=300"    example:"new balance 574 sneaker"`
}

// GenerateImageRequest asks for a generated product photo.
type GenerateImageRequest struct {
	ProductID   string `json:"productId"   binding:"required,productkey" example:"shoes/new-balance-574"`
	ProductName string `json:"productName" binding:"required,max=200"    example:"New Balance 574"`
	Category    string `json:"category"    binding:"required,max=100"    example:"Shoes"`
}

// ImagesResponse lists image URLs, possibly empty.
type ImagesResponse struct {
	Images []string `json:"images"`
}

// ImageURLRequest resolves one image for a product that may not be stored.
type ImageURLRequest struct {
	ProductName string `json:"productName" binding:"required,max=200" example:"Lumi Leash Pro"`
	Category    string `json:"category"    binding:"required,max=100" example:"Pet Supplies"`
}

// ImageURLResponse carries a single image URL.
type ImageURLResponse struct {
	ImageURL string `json:"imageUrl"`
}

// FetchImages godoc
// @ID          fetchImages
// @Summary     Fetch product images
// @Description Reuses stored images when searchQuery matches the last search; otherwise searches and stores the result.
// @Tags        Images
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.FetchImagesRequest  true  "Product and query"
//
// @Success     200  {object}  handlers.ImagesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /fetch-images [post]
func (h *Handlers) FetchImages(c *gin.Context) {
	var req FetchImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "productId and searchQuery are required")
		return
	}

	images, err := h.images.FetchImages(c.Request.Context(), req.ProductID, req.SearchQuery)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ImagesResponse{Images: images})
}

// GenerateImage godoc
// @ID          generateImage
// @Summary     Generate a product image
// @Description Renders a studio photo and keeps it when reachable; otherwise falls back to one search image. An empty list means neither source produced an image.
// @Tags        Images
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.GenerateImageRequest  true  "Product"
//
// @Success     200  {object}  handlers.ImagesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /generate-image [post]
func (h *Handlers) GenerateImage(c *gin.Context) {
	var req GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "productId, productName and category are required")
		return
	}

	images, err := h.images.GenerateImage(c.Request.Context(), req.ProductID, req.ProductName, req.Category)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ImagesResponse{Images: images})
}

// GetImageURL godoc
// @ID          getImageUrl
// @Summary     Resolve one product image
// @Description Returns a cached or freshly searched image URL for a product name and category.
// @Tags        Images
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ImageURLRequest  true  "Name and category"
//
// @Success     200  {object}  handlers.ImageURLResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "No image found"
// @Router      /get-image-url [post]
func (h *Handlers) GetImageURL(c *gin.Context) {
	var req ImageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "productName and category are required")
		return
	}

	u, err := h.images.ResolveImage(c.Request.Context(), req.ProductName, req.Category)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ImageURLResponse{ImageURL: u})
}

// ImageProxy godoc
// @ID          imageProxy
// @Summary     Proxy a remote image
// @Description Streams an image from a remote host so browsers can embed it under this origin. Responses are immutable and cacheable for a year.
// @Tags        Images
// @Produce     image/jpeg,image/png,image/webp,image/gif
//
// @Param       url  query  string  true  "Absolute http(s) image URL"
//
// @Success     200  {file}    binary
// @Header      200  {string}  Cache-Control  "public, max-age=31536000, immutable"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad URL or not an image"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream unreachable"
// @Router      /image-proxy [get]
func (h *Handlers) ImageProxy(c *gin.Context) {
	target, err := proxyTarget(c.Query("url"), h.proxyPrivate)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "url must be an absolute public http(s) URL")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), proxyTimeout)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	req.Header.Set("User-Agent", proxyUserAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")

	resp, err := h.proxy.Do(req)
	if errors.Is(err, errBadProxyURL) {
		log.Ctx(c.Request.Context()).Warn().Str("host", target.Host).Msg("image proxy redirect rejected")
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "url redirects to a disallowed host")
		return
	}
	if err != nil {
		middleware.ObserveUpstream("image_proxy", 0)
		log.Ctx(c.Request.Context()).Warn().Err(err).Str("host", target.Host).Msg("image proxy fetch failed")
		fail(c, http.StatusBadGateway, ErrCodeUpstream, "image host unreachable")
		return
	}
	defer resp.Body.Close()
	middleware.ObserveUpstream("image_proxy", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		fail(c, resp.StatusCode, ErrCodeUpstream, "image host returned "+http.StatusText(resp.StatusCode))
		return
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "image/") {
		fail(c, http.StatusBadRequest, ErrCodeNotImage, "url does not point to an image")
		return
	}

	c.DataFromReader(http.StatusOK, resp.ContentLength, ct, resp.Body, map[string]string{
		"Cache-Control": proxyCacheCtl,
	})
}

// proxyRedirects runs every redirect hop through proxyTarget so a public URL
// cannot bounce the proxy onto a private host.
func proxyRedirects(allowPrivate bool) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= proxyMaxRedirects {
			return errors.New("stopped after too many redirects")
		}
		_, err := proxyTarget(req.URL.String(), allowPrivate)
		return err
	}
}

// proxyTarget parses raw and rejects non-http(s) URLs. Unless allowPrivate is
// set, localhost and literal private or loopback addresses are rejected too.
func proxyTarget(raw string, allowPrivate bool) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, errBadProxyURL
	}
	host := u.Hostname()
	if allowPrivate {
		return u, nil
	}
	if strings.EqualFold(host, "localhost") {
		return nil, errBadProxyURL
	}
	if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()) {
		return nil, errBadProxyURL
	}
	return u, nil
}
