package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/R01085B-Limaylla/webContratos/document"
	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/R01085B-Limaylla/webContratos/pkg/logger"
	"github.com/R01085B-Limaylla/webContratos/pkg/textfold"
	"github.com/R01085B-Limaylla/webContratos/summary"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const pdfContentType = "application/pdf"

// ContractService drafts, stores and removes contracts together with their
// printed documents
type ContractService struct {
	store      RecordStore
	blobs      BlobStore
	raster     Rasterizer
	docs       *document.Builder
	policy     *bluemonday.Policy
	previewTTL time.Duration
	now        func() time.Time
}

func NewContractService(store RecordStore, blobs BlobStore, raster Rasterizer, docs *document.Builder, previewTTL time.Duration) *ContractService {
	if previewTTL <= 0 {
		previewTTL = time.Minute
	}
	return &ContractService{
		store:      store,
		blobs:      blobs,
		raster:     raster,
		docs:       docs,
		policy:     bluemonday.StrictPolicy(),
		previewTTL: previewTTL,
		now:        time.Now,
	}
}

// ObjectPath names the stored document of a new contract
func ObjectPath(at time.Time, typ model.ContractType, client string) string {
	name := textfold.Slug(client)
	if name == "" {
		name = "sin_nombre"
	}
	return fmt.Sprintf("contracts/%d_%s_%s.pdf", at.UnixMilli(), typ, name)
}

func (s *ContractService) Get(ctx context.Context, id uint) (*model.Contract, error) {
	return s.store.Get(ctx, id)
}

// Create renders the draft, uploads the document and inserts the row.
// When the insert fails the uploaded document stays behind and the error
// wraps ErrOrphanedDocument.
func (s *ContractService) Create(ctx context.Context, draft *model.ContractDraft, opts RenderOptions) (*model.Contract, error) {
	c, err := s.build(draft)
	if err != nil {
		return nil, err
	}

	path, err := s.publish(ctx, c, opts)
	if err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, c); err != nil {
		logger.Error(ctx, "contract row not saved, document left orphaned", "pdf_path", path, "error", err)
		return nil, fmt.Errorf("Error al guardar en DB: %w (%s): %w", ErrOrphanedDocument, path, err)
	}

	logger.Info(ctx, "contract saved", "id", c.ID, "tipo", c.Type, "pdf_path", path)
	return c, nil
}

// Replace overwrites a stored contract with a new draft and document. The
// previous document is removed only after the row points at the new one.
func (s *ContractService) Replace(ctx context.Context, id uint, draft *model.ContractDraft, opts RenderOptions) (*model.Contract, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	c, err := s.build(draft)
	if err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt

	path, err := s.publish(ctx, c, opts)
	if err != nil {
		return nil, err
	}

	if err := s.store.Replace(ctx, c); err != nil {
		logger.Error(ctx, "contract row not replaced, document left orphaned", "id", id, "pdf_path", path, "error", err)
		return nil, fmt.Errorf("Error al guardar en DB: %w (%s): %w", ErrOrphanedDocument, path, err)
	}

	if existing.PDFPath != "" && existing.PDFPath != path {
		s.removeQuietly(ctx, existing.PDFPath)
	}

	logger.Info(ctx, "contract replaced", "id", c.ID, "pdf_path", path)
	return c, nil
}

// Delete removes the row, then its document. A document that cannot be
// removed is only logged.
func (s *ContractService) Delete(ctx context.Context, id uint) error {
	c, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if c.PDFPath != "" {
		s.removeQuietly(ctx, c.PDFPath)
	}
	logger.Info(ctx, "contract deleted", "id", id)
	return nil
}

// Preview renders the draft without storing it and returns a short-lived
// link. The preview document is removed once the link expires.
func (s *ContractService) Preview(ctx context.Context, draft *model.ContractDraft, opts RenderOptions) (string, error) {
	c, err := s.build(draft)
	if err != nil {
		return "", err
	}

	pdf, err := s.render(ctx, c, opts)
	if err != nil {
		return "", err
	}

	path := "previews/" + uuid.NewString() + ".pdf"
	if err := s.blobs.Upload(ctx, path, pdf, pdfContentType); err != nil {
		return "", fmt.Errorf("Error al subir PDF: %w", err)
	}

	url, err := s.blobs.PresignedURL(ctx, path, s.previewTTL)
	if err != nil {
		s.removeQuietly(ctx, path)
		return "", fmt.Errorf("failed to sign preview url: %w", err)
	}

	// the request context is gone by the time the timer fires
	log := logger.WithContext(ctx)
	time.AfterFunc(s.previewTTL, func() {
		if err := s.blobs.Remove(context.Background(), path); err != nil {
			log.Warn("preview not removed", "pdf_path", path, "error", err)
		}
	})

	return url, nil
}

// publish renders and uploads the document of c and points c at it
func (s *ContractService) publish(ctx context.Context, c *model.Contract, opts RenderOptions) (string, error) {
	pdf, err := s.render(ctx, c, opts)
	if err != nil {
		return "", err
	}

	path := ObjectPath(s.now(), model.ContractType(c.Type), c.ClientName)
	if err := s.blobs.Upload(ctx, path, pdf, pdfContentType); err != nil {
		return "", fmt.Errorf("Error al subir PDF: %w", err)
	}
	c.PDFPath = path
	c.PDFURL = s.blobs.PublicURL(path)
	return path, nil
}

func (s *ContractService) render(ctx context.Context, c *model.Contract, opts RenderOptions) ([]byte, error) {
	rec := summary.Normalize(summary.SourceOf(c))
	doc, err := s.docs.Contract(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to build contract document: %w", err)
	}
	pdf, err := s.raster.Render(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("Error al generar PDF: %w", err)
	}
	return pdf, nil
}

func (s *ContractService) removeQuietly(ctx context.Context, path string) {
	if err := s.blobs.Remove(ctx, path); err != nil {
		logger.Warn(ctx, "document not removed", "pdf_path", path, "error", err)
	}
}

// build validates and sanitizes a draft into an unsaved row
func (s *ContractService) build(d *model.ContractDraft) (*model.Contract, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: borrador vacío", ErrInvalidDraft)
	}
	typ, ok := model.ParseType(d.Type)
	if !ok {
		return nil, fmt.Errorf("%w: tipo %q no reconocido", ErrInvalidDraft, d.Type)
	}
	date := strings.TrimSpace(d.EventDate)
	if date != "" {
		if _, ok := summary.ParseCalendarDate(date); !ok {
			return nil, fmt.Errorf("%w: fecha %q no es AAAA-MM-DD", ErrInvalidDraft, d.EventDate)
		}
	}
	for name, v := range map[string]decimal.Decimal{"total": d.Total, "adelanto": d.Advance, "movilidad": d.MobilityAmount} {
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: %s no puede ser negativo", ErrInvalidDraft, name)
		}
		// decimal(10,2)
		if !summary.InRange(v) || !v.Equal(v.Round(2)) {
			return nil, fmt.Errorf("%w: %s fuera de rango", ErrInvalidDraft, name)
		}
	}

	remaining := d.Total.Sub(d.Advance)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	p := model.Payload{
		Tipo:                 string(typ),
		Cliente:              s.clean(d.ClientName),
		DNICliente:           s.clean(d.ClientDNI),
		Fecha:                date,
		FechaTexto:           s.clean(d.DateText),
		Direccion:            s.clean(d.Address),
		Referencia:           s.clean(d.Reference),
		Adelanto:             &d.Advance,
		Resta:                &remaining,
		Total:                &d.Total,
		HoraComidaTexto:      s.clean(d.MealTime.Text),
		HoraComidaIndefinida: d.MealTime.Undefined,
		HoraCoctelTexto:      s.clean(d.CocktailTime.Text),
		HoraCoctelIndefinida: d.CocktailTime.Undefined,
		MovOn:                d.Mobility,
		Servicios:            s.cleanAll(d.Services),
		CantidadCatering:     d.DishCount,
		PlatosDescripcion:    s.clean(d.MealDescription),
		Extras:               s.clean(d.Extras),
		FirmaCatering:        s.clean(d.CateringSigner),
	}
	if d.Mobility {
		p.MovilidadMonto = &d.MobilityAmount
	}
	if d.Cocktails != nil {
		ck := *d.Cocktails
		ck.Modo = s.clean(ck.Modo)
		ck.TipoVajilla = s.clean(ck.TipoVajilla)
		ck.Variedades = s.cleanAll(ck.Variedades)
		p.Cocteles = &ck
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	c := &model.Contract{
		Type:       string(typ),
		ClientName: p.Cliente,
		ClientDNI:  p.DNICliente,
		Address:    p.Direccion,
		Reference:  p.Referencia,
		Total:      decimal.NewNullDecimal(d.Total),
		Advance:    decimal.NewNullDecimal(d.Advance),
		Remaining:  decimal.NewNullDecimal(remaining),
		Payload:    datatypes.JSON(raw),
	}
	if date != "" {
		c.EventDate = &date
	}
	return c, nil
}

// clean strips markup and leaves plain text
func (s *ContractService) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func (s *ContractService) cleanAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := s.clean(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
