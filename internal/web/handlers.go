package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/diasporabridge/bridge/internal/core"
	"github.com/diasporabridge/bridge/internal/stripe"
)

const maxWebhookBody = 1 << 20 // 1MB

// Public handlers

func (s *Server) handleListProfiles(c *gin.Context) {
	profiles, err := s.platform.ListPublicProfiles(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"profiles": profiles,
		"count":    len(profiles),
	})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	code := c.Param("code")

	profile, err := s.platform.GetPublicProfile(c.Request.Context(), code)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"profile": profile,
	})
}

func (s *Server) handleCheckout(c *gin.Context) {
	var req core.CheckoutRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	url, err := s.platform.CreateCheckout(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     url,
	})
}

// handleStripeWebhook ingests signed payment lifecycle events. Bad or
// missing signatures are rejected; everything else is acknowledged with a
// 2xx so the processor stops redelivering, including event types the
// platform ignores and sessions it has never heard of.
func (s *Server) handleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	event, err := stripe.ParseEvent(payload, signature, s.webhookSecret)
	if err != nil {
		// Opaque rejection; the verification detail stays in the logs.
		s.log.Warn("webhook rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	if err := s.platform.HandlePaymentEvent(c.Request.Context(), event); err != nil {
		if errors.Is(err, core.ErrReconciliationGap) {
			// The donor already paid; acknowledge so the processor does not
			// redeliver. The gap was logged for operator follow-up.
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		// Storage hiccup: a non-2xx makes the processor redeliver, which
		// the guarded transition absorbs safely.
		s.log.Error("webhook processing failed", "type", event.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// fail maps platform errors onto HTTP status codes with the standard
// response envelope. External-service detail is logged, not returned.
func (s *Server) fail(c *gin.Context, err error) {
	var extErr *core.ExternalServiceError

	switch {
	case core.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	case errors.Is(err, core.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, core.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
	case errors.As(err, &extErr):
		s.log.Error("external service failure", "service", extErr.Service, "error", extErr.Err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "service temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}
