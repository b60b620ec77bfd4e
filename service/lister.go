package service

import (
	"context"
	"fmt"
	"html/template"

	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/R01085B-Limaylla/webContratos/summary"
	"golang.org/x/sync/errgroup"
)

// Card is one stored contract ready for display
type Card struct {
	Contract model.Contract
	Record   summary.Record
	Summary  summary.Summary
	HTML     template.HTML
	PDFURL   string
}

// Text is the chat rendition of the card
func (c Card) Text() string {
	return c.Summary.Text()
}

// Lister loads stored contracts and renders their summaries
type Lister struct {
	store    RecordStore
	blobs    BlobStore
	renderer *summary.Renderer
	workers  int
}

func NewLister(store RecordStore, blobs BlobStore, renderer *summary.Renderer, workers int) *Lister {
	if workers <= 0 {
		workers = 4
	}
	return &Lister{store: store, blobs: blobs, renderer: renderer, workers: workers}
}

// List renders up to limit contracts in store order
func (l *Lister) List(ctx context.Context, limit int) ([]Card, error) {
	rows, err := l.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	cards := make([]Card, len(rows))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			card, err := l.card(&rows[i])
			if err != nil {
				return fmt.Errorf("contract %d: %w", rows[i].ID, err)
			}
			cards[i] = card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}

// Card renders a single stored contract
func (l *Lister) Card(c *model.Contract) (Card, error) {
	return l.card(c)
}

func (l *Lister) card(c *model.Contract) (Card, error) {
	rec := summary.Normalize(summary.SourceOf(c))
	sum := l.renderer.Render(rec)
	html, err := sum.HTML()
	if err != nil {
		return Card{}, err
	}
	return Card{
		Contract: *c,
		Record:   rec,
		Summary:  sum,
		HTML:     html,
		PDFURL:   l.documentURL(rec),
	}, nil
}

// documentURL prefers the stored link and falls back to the stored path
func (l *Lister) documentURL(rec summary.Record) string {
	if rec.PDFURL != "" {
		return rec.PDFURL
	}
	if rec.PDFPath != "" && l.blobs != nil {
		return l.blobs.PublicURL(rec.PDFPath)
	}
	return ""
}
