package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/R01085B-Limaylla/webContratos/document"
	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/R01085B-Limaylla/webContratos/summary"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a RecordStore kept in memory
type memStore struct {
	mu        sync.Mutex
	rows      map[uint]model.Contract
	order     []uint
	next      uint
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{rows: map[uint]model.Contract{}, next: 1}
}

func (m *memStore) List(_ context.Context, limit int) ([]model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Contract
	for _, id := range m.order {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.rows[id])
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, id uint) (*model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *memStore) Insert(_ context.Context, c *model.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	c.ID = m.next
	m.next++
	c.CreatedAt = time.Now()
	m.rows[c.ID] = *c
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memStore) Replace(_ context.Context, c *model.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return ErrNotFound
	}
	m.rows[c.ID] = *c
	return nil
}

func (m *memStore) Delete(_ context.Context, id uint) (*model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.rows, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return &c, nil
}

func (m *memStore) Ping(context.Context) error { return nil }

// memBlobs is a BlobStore kept in memory
type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	removeErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (b *memBlobs) Upload(_ context.Context, path string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploadErr != nil {
		return b.uploadErr
	}
	if _, ok := b.objects[path]; ok {
		return ErrObjectExists
	}
	b.objects[path] = data
	return nil
}

func (b *memBlobs) Remove(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.removeErr != nil {
		return b.removeErr
	}
	delete(b.objects, path)
	return nil
}

func (b *memBlobs) PublicURL(path string) string {
	return "https://files.test/" + path
}

func (b *memBlobs) PresignedURL(_ context.Context, path string, expiry time.Duration) (string, error) {
	return "https://files.test/" + path + "?expires=" + expiry.String(), nil
}

func (b *memBlobs) has(path string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[path]
	return ok
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// stubRaster returns the document markup as the "PDF"
type stubRaster struct {
	mu   sync.Mutex
	last RenderOptions
	err  error
}

func (r *stubRaster) Render(_ context.Context, html string, opts RenderOptions) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = opts
	if r.err != nil {
		return nil, r.err
	}
	return []byte(html), nil
}

func newTestContractService(ttl time.Duration) (*ContractService, *memStore, *memBlobs, *stubRaster) {
	store := newMemStore()
	blobs := newMemBlobs()
	raster := &stubRaster{}
	docs := document.NewBuilder(summary.PeruvianSpanish, document.Options{
		BusinessName: "Eventos Lima",
		Signer:       "Rosa Limaylla",
		BarSigner:    "Carlos Barra",
	})
	svc := NewContractService(store, blobs, raster, docs, ttl)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, store, blobs, raster
}

func cateringDraft() *model.ContractDraft {
	return &model.ContractDraft{
		Type:            "Catering",
		ClientName:      "Ana <b>María</b>",
		ClientDNI:       "12345678",
		EventDate:       "2030-05-10",
		Address:         "Av. Sol 123",
		Total:           decimal.NewFromInt(1500),
		Advance:         decimal.NewFromInt(2000),
		Services:        []string{"Buffet criollo", "<script>x</script>", "Mozos"},
		DishCount:       80,
		MealDescription: "Lomo saltado &amp; ají de gallina",
	}
}

func TestContractServiceCreate(t *testing.T) {
	svc, store, blobs, raster := newTestContractService(time.Minute)
	ctx := context.Background()

	c, err := svc.Create(ctx, cateringDraft(), RenderOptions{Scale: 1.25})
	require.NoError(t, err)

	assert.Equal(t, uint(1), c.ID)
	assert.Equal(t, "catering", c.Type)
	assert.Equal(t, "Ana María", c.ClientName)
	assert.Equal(t, "contracts/1700000000000_catering_Ana_Maria.pdf", c.PDFPath)
	assert.Equal(t, "https://files.test/"+c.PDFPath, c.PDFURL)
	assert.True(t, blobs.has(c.PDFPath))
	assert.Equal(t, 1.25, raster.last.Scale)

	// advance above total leaves nothing to pay
	assert.True(t, c.Remaining.Valid)
	assert.True(t, c.Remaining.Decimal.IsZero())

	stored, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	p := stored.PayloadMap()
	assert.Equal(t, "catering", p["tipo"])
	assert.Equal(t, []any{"Buffet criollo", "Mozos"}, p["servicios"])
	assert.Equal(t, "Lomo saltado & ají de gallina", p["platosDescripcion"])

	doc := string(blobs.objects[c.PDFPath])
	assert.Contains(t, doc, "Ana María")
	assert.Contains(t, doc, "Rosa Limaylla")
}

func TestContractServiceCreateInvalid(t *testing.T) {
	tests := []struct {
		name  string
		draft func(d *model.ContractDraft)
	}{
		{"unknown type", func(d *model.ContractDraft) { d.Type = "banquete" }},
		{"bad date", func(d *model.ContractDraft) { d.EventDate = "10/05/2030" }},
		{"impossible date", func(d *model.ContractDraft) { d.EventDate = "2030-02-31" }},
		{"negative total", func(d *model.ContractDraft) { d.Total = decimal.NewFromInt(-1) }},
		{"negative mobility", func(d *model.ContractDraft) { d.MobilityAmount = decimal.NewFromInt(-5) }},
		{"exponent total", func(d *model.ContractDraft) { d.Total = decimal.RequireFromString("1e5000000") }},
		{"total over column", func(d *model.ContractDraft) { d.Total = decimal.RequireFromString("100000000") }},
		{"tiny advance", func(d *model.ContractDraft) { d.Advance = decimal.RequireFromString("1e-5000000") }},
		{"three decimals", func(d *model.ContractDraft) { d.MobilityAmount = decimal.RequireFromString("10.005") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, blobs, _ := newTestContractService(time.Minute)
			d := cateringDraft()
			tt.draft(d)

			_, err := svc.Create(context.Background(), d, RenderOptions{})
			assert.ErrorIs(t, err, ErrInvalidDraft)
			assert.Zero(t, blobs.count())
		})
	}
}

func TestContractServiceCreateColumnMaximum(t *testing.T) {
	svc, _, _, _ := newTestContractService(time.Minute)
	d := cateringDraft()
	d.Total = decimal.RequireFromString("99999999.99")
	d.Advance = decimal.RequireFromString("0.50")

	c, err := svc.Create(context.Background(), d, RenderOptions{})
	require.NoError(t, err)
	assert.True(t, c.Total.Decimal.Equal(d.Total))
}

func TestContractServiceCreateUploadFails(t *testing.T) {
	svc, store, blobs, _ := newTestContractService(time.Minute)
	blobs.uploadErr = errors.New("bucket offline")

	_, err := svc.Create(context.Background(), cateringDraft(), RenderOptions{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Error al subir PDF: "))

	rows, _ := store.List(context.Background(), 0)
	assert.Empty(t, rows)
}

func TestContractServiceCreateRenderFails(t *testing.T) {
	svc, _, blobs, raster := newTestContractService(time.Minute)
	raster.err = errors.New("chrome crashed")

	_, err := svc.Create(context.Background(), cateringDraft(), RenderOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome crashed")
	assert.Zero(t, blobs.count())
}

func TestContractServiceCreateInsertFails(t *testing.T) {
	svc, store, blobs, _ := newTestContractService(time.Minute)
	store.insertErr = errors.New("disk full")

	_, err := svc.Create(context.Background(), cateringDraft(), RenderOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrphanedDocument)
	assert.True(t, strings.HasPrefix(err.Error(), "Error al guardar en DB: "))
	assert.Contains(t, err.Error(), "disk full")
	// the uploaded document is left in place
	assert.True(t, blobs.has("contracts/1700000000000_catering_Ana_Maria.pdf"))
}

func TestContractServiceReplace(t *testing.T) {
	svc, store, blobs, _ := newTestContractService(time.Minute)
	ctx := context.Background()

	original, err := svc.Create(ctx, cateringDraft(), RenderOptions{})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.UnixMilli(1700000005000) }
	d := cateringDraft()
	d.Type = "ambos"
	d.Cocktails = &model.Cocktails{Modo: "total", Total: 40, TipoVajilla: "Cristalería"}

	updated, err := svc.Replace(ctx, original.ID, d, RenderOptions{})
	require.NoError(t, err)

	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "ambos", updated.Type)
	assert.Equal(t, "contracts/1700000005000_ambos_Ana_Maria.pdf", updated.PDFPath)
	assert.True(t, blobs.has(updated.PDFPath))
	assert.False(t, blobs.has(original.PDFPath))

	stored, err := store.Get(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.PDFPath, stored.PDFPath)
}

func TestContractServiceReplaceMissing(t *testing.T) {
	svc, _, blobs, _ := newTestContractService(time.Minute)

	_, err := svc.Replace(context.Background(), 42, cateringDraft(), RenderOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, blobs.count())
}

func TestContractServiceDelete(t *testing.T) {
	svc, store, blobs, _ := newTestContractService(time.Minute)
	ctx := context.Background()

	c, err := svc.Create(ctx, cateringDraft(), RenderOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.False(t, blobs.has(c.PDFPath))
	_, err = store.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, c.ID), ErrNotFound)
}

func TestContractServiceDeleteKeepsGoingWhenBlobRemains(t *testing.T) {
	svc, store, blobs, _ := newTestContractService(time.Minute)
	ctx := context.Background()

	c, err := svc.Create(ctx, cateringDraft(), RenderOptions{})
	require.NoError(t, err)
	blobs.removeErr = errors.New("access denied")

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = store.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, blobs.has(c.PDFPath))
}

func TestContractServicePreview(t *testing.T) {
	svc, store, blobs, _ := newTestContractService(50 * time.Millisecond)

	url, err := svc.Preview(context.Background(), cateringDraft(), RenderOptions{Scale: 1.5})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://files.test/previews/"))
	assert.Contains(t, url, ".pdf?expires=50ms")
	assert.Equal(t, 1, blobs.count())

	rows, _ := store.List(context.Background(), 0)
	assert.Empty(t, rows)

	assert.Eventually(t, func() bool { return blobs.count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestObjectPath(t *testing.T) {
	at := time.UnixMilli(1712345678901)
	tests := []struct {
		typ      model.ContractType
		client   string
		expected string
	}{
		{model.TypeBarman, "Luis Peña", "contracts/1712345678901_barman_Luis_Pena.pdf"},
		{model.TypeBoth, "", "contracts/1712345678901_ambos_sin_nombre.pdf"},
		{model.TypeCatering, "  Ana   Torres ", "contracts/1712345678901_catering_Ana_Torres.pdf"},
	}

	for _, tt := range tests {
		if got := ObjectPath(at, tt.typ, tt.client); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}
