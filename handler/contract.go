package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/R01085B-Limaylla/webContratos/document"
	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/R01085B-Limaylla/webContratos/pkg/logger"
	"github.com/R01085B-Limaylla/webContratos/service"
	"github.com/gin-gonic/gin"
)

// NoDocument is returned when a contract has no stored PDF
const NoDocument = "Este contrato aún no tiene PDF asociado."

// ContractService is the drafting pipeline as the handlers use it
type ContractService interface {
	Get(ctx context.Context, id uint) (*model.Contract, error)
	Create(ctx context.Context, draft *model.ContractDraft, opts service.RenderOptions) (*model.Contract, error)
	Replace(ctx context.Context, id uint, draft *model.ContractDraft, opts service.RenderOptions) (*model.Contract, error)
	Delete(ctx context.Context, id uint) error
	Preview(ctx context.Context, draft *model.ContractDraft, opts service.RenderOptions) (string, error)
}

// ContractLister renders stored contracts for display
type ContractLister interface {
	List(ctx context.Context, limit int) ([]service.Card, error)
	Card(c *model.Contract) (service.Card, error)
}

type ContractHandler struct {
	contracts ContractService
	lister    ContractLister
	docs      *document.Builder
	pageSize  string
}

func NewContractHandler(contracts ContractService, lister ContractLister, docs *document.Builder, pageSize string) *ContractHandler {
	return &ContractHandler{
		contracts: contracts,
		lister:    lister,
		docs:      docs,
		pageSize:  pageSize,
	}
}

// contractView is the JSON shape of one stored contract
type contractView struct {
	ID        uint           `json:"id"`
	Type      string         `json:"tipo"`
	Client    string         `json:"cliente"`
	EventDate string         `json:"fecha_evento,omitempty"`
	PDFURL    string         `json:"pdf_url,omitempty"`
	Expired   bool           `json:"vencido"`
	Summary   string         `json:"resumen"`
	Card      string         `json:"html"`
	Contract  model.Contract `json:"contrato"`
}

func viewOf(card service.Card) contractView {
	return contractView{
		ID:        card.Contract.ID,
		Type:      card.Contract.Type,
		Client:    card.Summary.Client,
		EventDate: card.Record.EventDate,
		PDFURL:    card.PDFURL,
		Expired:   card.Summary.Expired,
		Summary:   card.Text(),
		Card:      string(card.HTML),
		Contract:  card.Contract,
	}
}

// renderOptions picks the PDF scale from the caller's viewport width. The
// width comes from the vw query parameter or the Viewport-Width client hint.
func (h *ContractHandler) renderOptions(c *gin.Context) service.RenderOptions {
	raw := c.Query("vw")
	if raw == "" {
		raw = c.GetHeader("Sec-CH-Viewport-Width")
	}
	if raw == "" {
		raw = c.GetHeader("Viewport-Width")
	}
	width, _ := strconv.Atoi(raw)
	return service.RenderOptions{
		Scale:    service.ScaleForViewport(width),
		PageSize: h.pageSize,
	}
}

func contractID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador inválido"})
		return 0, false
	}
	return uint(id), true
}

func bindDraft(c *gin.Context) (*model.ContractDraft, bool) {
	var draft model.ContractDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Solicitud inválida: " + err.Error()})
		return nil, false
	}
	return &draft, true
}

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidDraft):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrObjectExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNotReady), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "error", err)
	}
	c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// Create drafts a contract, stores its PDF and saves the row
func (h *ContractHandler) Create(c *gin.Context) {
	draft, ok := bindDraft(c)
	if !ok {
		return
	}

	contract, err := h.contracts.Create(c.Request.Context(), draft, h.renderOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contract)
}

// Replace re-drafts an existing contract
func (h *ContractHandler) Replace(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}
	draft, ok := bindDraft(c)
	if !ok {
		return
	}

	contract, err := h.contracts.Replace(c.Request.Context(), id, draft, h.renderOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// Delete removes a contract and its document
func (h *ContractHandler) Delete(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if err := h.contracts.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contrato eliminado"})
}

// List returns every stored contract with its summary
func (h *ContractHandler) List(c *gin.Context) {
	cards, err := h.lister.List(c.Request.Context(), 0)
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]contractView, len(cards))
	for i, card := range cards {
		result[i] = viewOf(card)
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Get returns one contract with its summary
func (h *ContractHandler) Get(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	card, err := h.lister.Card(contract)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewOf(card))
}

// PDF redirects to the stored document
func (h *ContractHandler) PDF(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	card, err := h.lister.Card(contract)
	if err != nil {
		respondError(c, err)
		return
	}
	if card.PDFURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": NoDocument})
		return
	}

	c.Redirect(http.StatusFound, card.PDFURL)
}

// Page renders the card listing as an HTML page
func (h *ContractHandler) Page(c *gin.Context) {
	cards, err := h.lister.List(c.Request.Context(), 0)
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]document.Card, len(cards))
	for i, card := range cards {
		entries[i] = document.Card{Card: card.HTML, PDFURL: card.PDFURL}
	}
	page, err := h.docs.Listing("Contratos", entries)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// Preview renders a draft without saving it and returns a temporary link
func (h *ContractHandler) Preview(c *gin.Context) {
	draft, ok := bindDraft(c)
	if !ok {
		return
	}

	url, err := h.contracts.Preview(c.Request.Context(), draft, h.renderOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
