// Package webhook owns the HTTP trust boundary: challenge echo, signature
// verification and envelope decoding. Event semantics live in the
// approval package.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shic-it/feishu-approval-mailer/internal/approval"
	"go.uber.org/zap"
)

// EventProcessor consumes decoded approval events.
type EventProcessor interface {
	HandleEvent(ctx context.Context, event *approval.Event) error
}

// Handler handles webhook requests
type Handler struct {
	verifier  *Verifier
	processor EventProcessor
	logger    *zap.Logger
}

// NewHandler creates a new webhook handler
func NewHandler(verifier *Verifier, processor EventProcessor, logger *zap.Logger) *Handler {
	return &Handler{
		verifier:  verifier,
		processor: processor,
		logger:    logger,
	}
}

// Handle processes incoming webhook requests. Feishu expects a fast 200,
// so event processing is handed off to a goroutine and the response is
// sent immediately.
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("Failed to read request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	// Challenge requests arrive before any event traffic, when the
	// webhook URL is first registered.
	var challengeCheck struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &challengeCheck); err == nil && challengeCheck.Type == "url_verification" {
		challenge, err := h.verifier.VerifyChallenge(body)
		if err != nil {
			h.logger.Error("Challenge verification failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Challenge verification failed"})
			return
		}

		h.logger.Info("Challenge verified successfully")
		c.JSON(http.StatusOK, gin.H{"challenge": challenge})
		return
	}

	timestamp := c.GetHeader("X-Lark-Request-Timestamp")
	nonce := c.GetHeader("X-Lark-Request-Nonce")
	signature := c.GetHeader("X-Lark-Signature")

	if !h.verifier.VerifySignature(timestamp, nonce, signature, string(body)) {
		h.logger.Warn("Invalid webhook signature",
			zap.String("timestamp", timestamp),
			zap.String("nonce", nonce))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var event approval.Event
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("Failed to parse event", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event"})
		return
	}

	h.logger.Info("Received approval event",
		zap.String("event_id", event.Header.EventID),
		zap.String("event_type", event.Header.EventType))

	go h.processEvent(&event)

	c.JSON(http.StatusOK, gin.H{"message": "Event received"})
}

// processEvent runs the approval pipeline off the request goroutine.
func (h *Handler) processEvent(event *approval.Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in event processing", zap.Any("panic", r))
		}
	}()

	if err := h.processor.HandleEvent(context.Background(), event); err != nil {
		h.logger.Error("Event processing failed",
			zap.String("event_id", event.Header.EventID),
			zap.Error(err))
	}
}
