package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/R01085B-Limaylla/webContratos/config"
	"github.com/R01085B-Limaylla/webContratos/document"
	"github.com/R01085B-Limaylla/webContratos/middleware"
	"github.com/R01085B-Limaylla/webContratos/pkg/logger"
	"github.com/R01085B-Limaylla/webContratos/pkg/textfold"
	"github.com/R01085B-Limaylla/webContratos/service"
	"github.com/gin-gonic/gin"
)

// Bot replies
const (
	NotLinkedReply = "❌ Tu número no está vinculado.\n" +
		"Pídele al admin que te registre en la tabla *whatsapp_users*.\n" +
		"Luego escribe: *contratos*"
	HelpReply = "Comandos:\n" +
		"- *contratos*\n" +
		"- *ver contratos*\n" +
		"- *eventos*\n" +
		"- *reservas*"
)

// listCommands match a folded, lower-cased message asking for the listing
var listCommands = []*regexp.Regexp{
	regexp.MustCompile(`^contratos?$`),
	regexp.MustCompile(`^(ver|mostrar|lista|listar|dame|muestrame) contratos?$`),
	regexp.MustCompile(`^mis contratos?$`),
	regexp.MustCompile(`^eventos?$`),
	regexp.MustCompile(`^(ver|mostrar|lista|listar|dame|muestrame) eventos?$`),
	regexp.MustCompile(`^mis eventos?$`),
	regexp.MustCompile(`^reservas?$`),
	regexp.MustCompile(`^(ver|mostrar|lista|listar|dame|muestrame) reservas?$`),
	regexp.MustCompile(`^mis reservas?$`),
	regexp.MustCompile(`^catering$`),
	regexp.MustCompile(`^(ver|mostrar|lista|listar) catering$`),
}

// IsListCommand reports whether text asks for the contract listing,
// ignoring case, accents and extra spaces
func IsListCommand(text string) bool {
	t := textfold.Command(text)
	for _, re := range listCommands {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// WebhookPayload is the part of a Cloud API notification the bot reads
type WebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []WebhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type WebhookMessage struct {
	From string `json:"from"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// FirstMessage returns entry[0].changes[0].value.messages[0]
func (p *WebhookPayload) FirstMessage() (*WebhookMessage, bool) {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return nil, false
	}
	msgs := p.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 {
		return nil, false
	}
	return &msgs[0], true
}

type WebhookHandler struct {
	links        service.LinkStore
	lister       ContractLister
	messenger    service.Messenger
	verifyToken  string
	maxContracts int
	maxChars     int
}

func NewWebhookHandler(cfg *config.WhatsAppConfig, links service.LinkStore, lister ContractLister, messenger service.Messenger) *WebhookHandler {
	return &WebhookHandler{
		links:        links,
		lister:       lister,
		messenger:    messenger,
		verifyToken:  cfg.VerifyToken,
		maxContracts: cfg.MaxContracts,
		maxChars:     cfg.MaxMessageChars,
	}
}

// Register mounts the webhook on group. Only the handshake is rate limited;
// notifications must always be acknowledged with a 200.
func (h *WebhookHandler) Register(group *gin.RouterGroup) {
	group.GET("", middleware.RateLimit(120, time.Minute), h.Verify)
	group.POST("", h.Receive)
}

// Verify answers the subscription handshake
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// Receive handles one notification. The platform always gets a 200; failures
// are only logged.
func (h *WebhookHandler) Receive(c *gin.Context) {
	defer func() {
		if err := recover(); err != nil {
			logger.Error(c.Request.Context(), "panic recovered in webhook",
				"error", err,
				"stack", string(debug.Stack()),
			)
			c.Status(http.StatusOK)
		}
	}()

	var payload WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.Warn(c.Request.Context(), "unreadable webhook payload", "error", err)
		c.Status(http.StatusOK)
		return
	}

	msg, ok := payload.FirstMessage()
	if !ok {
		c.Status(http.StatusOK)
		return
	}

	from := strings.TrimSpace(msg.From)
	ctx := logger.WithWaFrom(c.Request.Context(), from)
	if err := h.reply(ctx, from, strings.TrimSpace(msg.Text.Body)); err != nil {
		logger.Error(ctx, "webhook reply failed", "error", err)
	}
	c.Status(http.StatusOK)
}

func (h *WebhookHandler) reply(ctx context.Context, from, text string) error {
	if from == "" {
		return errors.New("message without sender")
	}

	linked, err := h.links.LinkedUser(ctx, from)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		return err
	}
	if linked == nil || !linked.Verified {
		logger.Info(ctx, "message from unlinked number")
		return h.messenger.Send(ctx, from, NotLinkedReply)
	}

	if !IsListCommand(text) {
		return h.messenger.Send(ctx, from, HelpReply)
	}

	cards, err := h.lister.List(ctx, h.maxContracts)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		return h.messenger.Send(ctx, from, document.EmptyListing)
	}

	if err := h.messenger.Send(ctx, from, fmt.Sprintf("🗂️ *Tus contratos (%d)*", len(cards))); err != nil {
		return err
	}
	for _, card := range cards {
		if err := service.SendChunked(ctx, h.messenger, from, card.Text(), h.maxChars); err != nil {
			return fmt.Errorf("contract %d: %w", card.Contract.ID, err)
		}
	}
	logger.Info(ctx, "contracts sent", "count", len(cards))
	return nil
}
