package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"couponocr/models"
	"couponocr/pkg/cache"
	"couponocr/pkg/coupon"
	"couponocr/pkg/dataset"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	msgNoFile    = "이미지를 첨부해주세요."
	msgNotImage  = "이미지만 처리 가능합니다."
	auditTimeout = 3 * time.Second
)

// server carries the dependencies of the HTTP handlers.
type server struct {
	cfg      *Config
	registry *coupon.Registry
	pool     *coupon.Pool
	pipeline *coupon.Pipeline
	dataset  dataset.Dataset
	cache    cache.Cache
	audit    auditLog // nil without a database
	now      func() time.Time
}

func (s *server) setupRoutes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/healthz", s.healthHandler)
	r.POST("/token", s.tokenHandler)

	api := r.Group("")
	if s.cfg.JWTSecret != "" {
		api.Use(s.jwtAuthMiddleware())
	}
	api.POST("/", s.extractHandler)
	api.POST("/check", s.checkHandler)
}

func (s *server) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		clientID, err := parseToken([]byte(s.cfg.JWTSecret), authHeader[7:])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Set("clientID", clientID)
		c.Next()
	}
}

func (s *server) tokenHandler(c *gin.Context) {
	if s.cfg.JWTSecret == "" || len(s.cfg.APIClients) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "token issuing is disabled"})
		return
	}
	var req struct {
		ClientID     string `json:"client_id" binding:"required"`
		ClientSecret string `json:"client_secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := authenticateClient(s.cfg.APIClients, req.ClientID, req.ClientSecret); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	token, err := issueToken([]byte(s.cfg.JWTSecret), req.ClientID, s.now())
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(tokenTTL.Seconds())})
}

func (s *server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"workers":   s.pool.Len(),
		"templates": len(s.registry.Templates),
		"coupons":   s.dataset.Len(),
	})
}

// extractHandler classifies an uploaded coupon image and extracts its fields.
func (s *server) extractHandler(c *gin.Context) {
	requestID := uuid.NewString()
	c.Header("X-Request-ID", requestID)
	clientID := c.GetString("clientID")
	logger := log.With().Str("requestId", requestID).Logger()

	if c.Request.ContentLength > s.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoFile})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNotImage})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoFile})
		return
	}
	buf, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	ctx := c.Request.Context()
	key := cache.Key(buf)
	x, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Msg("cache get failed")
	}
	if !hit {
		x, err = s.pipeline.Process(ctx, buf)
		if err != nil {
			code := coupon.Code(err)
			s.record(extractionRow(requestID, clientID, fh.Filename, contentType, nil, errorLabel(code), false))
			switch code {
			case coupon.CodeInvalidImage:
				c.JSON(http.StatusBadRequest, gin.H{"error": string(code), "message": err.Error()})
			case coupon.CodeNoMatchingTemplate, coupon.CodeUnknownCouponType:
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": string(code), "message": err.Error()})
			default:
				logger.Error().Err(err).Msg("coupon processing failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
			}
			return
		}
		// a result with unread fields may only be a passing timeout; let a retry run OCR again
		if !x.Degraded && ctx.Err() == nil {
			if err := s.cache.Put(ctx, key, x); err != nil {
				logger.Warn().Err(err).Msg("cache put failed")
			}
		}
	}
	s.record(extractionRow(requestID, clientID, fh.Filename, contentType, x, "", hit))
	logger.Info().Str("couponType", x.CouponType).Int64("sortingTime", x.SortingTime).Bool("cached", hit).Msg("coupon extracted")

	c.JSON(http.StatusOK, gin.H{
		"requestId":   requestID,
		"couponType":  x.CouponType,
		"result":      x.Result,
		"sortingTime": x.SortingTime,
	})
}

func errorLabel(code coupon.ErrorCode) string {
	if code == "" {
		return "ERROR"
	}
	return string(code)
}

// record writes an audit row; failures are only logged.
func (s *server) record(row *models.Extraction) {
	if s.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	if err := s.audit.Record(ctx, row); err != nil {
		log.Warn().Err(err).Str("requestId", row.RequestID).Msg("audit record failed")
	}
}

// checkHandler reports whether a barcode belongs to a redeemable coupon.
func (s *server) checkHandler(c *gin.Context) {
	var req struct {
		Barcode string `json:"barcode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	barcode := dataset.Key(req.Barcode)
	if barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode required"})
		return
	}
	cp, ok, err := s.dataset.Lookup(c.Request.Context(), barcode)
	if err != nil {
		log.Error().Err(err).Msg("dataset lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	resp := gin.H{"barcode": barcode, "valid": ok && cp.Valid(s.now())}
	if ok {
		resp["coupon"] = cp
	}
	c.JSON(http.StatusOK, resp)
}
