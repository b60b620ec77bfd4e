package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/R01085B-Limaylla/webContratos/service"
	"github.com/R01085B-Limaylla/webContratos/summary"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memRecords is an in-memory RecordStore and LinkStore
type memRecords struct {
	mu      sync.Mutex
	rows    map[uint]model.Contract
	links   map[string]model.WhatsAppUser
	next    uint
	listErr error
	linkErr error
}

func newMemRecords() *memRecords {
	return &memRecords{rows: map[uint]model.Contract{}, links: map[string]model.WhatsAppUser{}, next: 1}
}

func (m *memRecords) List(_ context.Context, limit int) ([]model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]int, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var out []model.Contract
	for _, id := range ids {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.rows[uint(id)])
	}
	return out, nil
}

func (m *memRecords) Get(_ context.Context, id uint) (*model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &c, nil
}

func (m *memRecords) Insert(_ context.Context, c *model.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.next
	m.next++
	m.rows[c.ID] = *c
	return nil
}

func (m *memRecords) Replace(_ context.Context, c *model.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return service.ErrNotFound
	}
	m.rows[c.ID] = *c
	return nil
}

func (m *memRecords) Delete(_ context.Context, id uint) (*model.Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	delete(m.rows, id)
	return &c, nil
}

func (m *memRecords) Ping(context.Context) error { return nil }

func (m *memRecords) LinkedUser(_ context.Context, phone string) (*model.WhatsAppUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.linkErr != nil {
		return nil, m.linkErr
	}
	u, ok := m.links[phone]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &u, nil
}

// fakeBlobs hands out predictable URLs
type fakeBlobs struct{}

func (fakeBlobs) Upload(context.Context, string, []byte, string) error { return nil }

func (fakeBlobs) Remove(context.Context, string) error { return nil }

func (fakeBlobs) PublicURL(path string) string { return "https://files.test/" + path }

func (fakeBlobs) PresignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://files.test/" + path + "?signed", nil
}

func newTestLister(records *memRecords) *service.Lister {
	now := func() time.Time { return time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC) }
	return service.NewLister(records, fakeBlobs{}, summary.NewRenderer(summary.PeruvianSpanish, now), 2)
}

// stubContracts records calls and returns canned results
type stubContracts struct {
	records *memRecords

	lastDraft *model.ContractDraft
	lastOpts  service.RenderOptions
	err       error
}

func (s *stubContracts) Get(ctx context.Context, id uint) (*model.Contract, error) {
	return s.records.Get(ctx, id)
}

func (s *stubContracts) Create(ctx context.Context, draft *model.ContractDraft, opts service.RenderOptions) (*model.Contract, error) {
	s.lastDraft, s.lastOpts = draft, opts
	if s.err != nil {
		return nil, s.err
	}
	c := &model.Contract{Type: draft.Type, ClientName: draft.ClientName, PDFPath: "contracts/1_x.pdf"}
	if err := s.records.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *stubContracts) Replace(ctx context.Context, id uint, draft *model.ContractDraft, opts service.RenderOptions) (*model.Contract, error) {
	s.lastDraft, s.lastOpts = draft, opts
	if s.err != nil {
		return nil, s.err
	}
	c := &model.Contract{ID: id, Type: draft.Type, ClientName: draft.ClientName}
	if err := s.records.Replace(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *stubContracts) Delete(ctx context.Context, id uint) error {
	if s.err != nil {
		return s.err
	}
	_, err := s.records.Delete(ctx, id)
	return err
}

func (s *stubContracts) Preview(_ context.Context, draft *model.ContractDraft, opts service.RenderOptions) (string, error) {
	s.lastDraft, s.lastOpts = draft, opts
	if s.err != nil {
		return "", s.err
	}
	return "https://files.test/previews/abc.pdf?signed", nil
}

// chatLog captures outgoing messages
type chatLog struct {
	mu     sync.Mutex
	to     []string
	bodies []string
	err    error
}

func (l *chatLog) Send(_ context.Context, to, body string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.to = append(l.to, to)
	l.bodies = append(l.bodies, body)
	return nil
}
