package summary

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/R01085B-Limaylla/webContratos/model"
)

// ExpiredNote is shown on contracts whose event date has passed
const ExpiredNote = "⚠ Este contrato ya pasó de fecha. Te recomendamos eliminarlo."

// Fallback labels for facts every card shows
const (
	NoType    = "Sin tipo"
	NoClient  = "Sin nombre"
	NoAddress = "Sin dirección registrada"
)

// Summary is the canonical display of one contract. Text and HTML render
// the same content with different markup.
type Summary struct {
	Title     string
	ID        string
	Client    string
	ClientDNI string
	Lines     []Line // date, address, reference, money, mobility
	Blocks    []Block
	Expired   bool
}

// Renderer turns normalized records into summaries
type Renderer struct {
	locale Locale
	now    func() time.Time
}

// NewRenderer creates a renderer. now defaults to time.Now and is only read
// for the expiry check.
func NewRenderer(locale Locale, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{locale: locale, now: now}
}

// Locale returns the renderer's display vocabulary
func (r *Renderer) Locale() Locale {
	return r.locale
}

// Render builds the summary of rec
func (r *Renderer) Render(rec Record) Summary {
	l := r.locale
	s := Summary{
		Title:     orDefault(rec.TypeLabel, NoType),
		ID:        rec.ID,
		Client:    orDefault(rec.Client, NoClient),
		ClientDNI: rec.ClientDNI,
		Expired:   r.Expired(rec),
	}

	s.Lines = append(s.Lines,
		Line{Icon: "📅", Fields: []Field{{Value: r.dateLine(rec)}}},
		Line{Icon: "📍", Fields: []Field{{Value: orDefault(rec.Address, NoAddress)}}},
	)
	if rec.Reference != "" {
		s.Lines = append(s.Lines, Line{Icon: "📌", Fields: []Field{{Value: "Ref: " + rec.Reference}}})
	}
	s.Lines = append(s.Lines, Line{Icon: "💰", Fields: []Field{
		{Label: "Adelanto", Value: l.Money(rec.Advance)},
		{Label: "Resta", Value: l.Money(rec.Remaining)},
		{Label: "Total", Value: l.Money(rec.Total)},
	}})
	if rec.MobilityOn && rec.MobilityAmount.Valid && !rec.MobilityAmount.Decimal.IsZero() {
		s.Lines = append(s.Lines, labeled("🚐", "Movilidad", l.Money(rec.MobilityAmount)))
	}

	if b := l.CateringBlock(rec); b != nil {
		s.Blocks = append(s.Blocks, *b)
	}
	if b := l.CocktailBlock(rec); b != nil {
		s.Blocks = append(s.Blocks, *b)
	}
	return s
}

// dateLine appends the service time for single-service contracts. Combined
// contracts show the times inside their blocks.
func (r *Renderer) dateLine(rec Record) string {
	line := r.locale.LongDate(rec.EventDate, rec.DateText)
	var slot string
	switch rec.Type {
	case model.TypeCatering:
		slot = r.locale.TimeLabel(rec.MealTime)
	case model.TypeBarman:
		slot = r.locale.TimeLabel(rec.CocktailTime)
	}
	if slot != "" && slot != emDash {
		line += ", " + slot
	}
	return line
}

// Expired reports whether rec is dated strictly before today. Undated and
// unparseable dates never expire.
func (r *Renderer) Expired(rec Record) bool {
	date, ok := ParseCalendarDate(rec.EventDate)
	if !ok {
		return false
	}
	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return date.Before(today)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Text renders the summary with messaging markup: *bold* labels, a blank
// line before each service block and before the expiry note.
func (s Summary) Text() string {
	var lines []string
	title := "📄 *" + s.Title + "*"
	if s.ID != "" {
		title += "  (#" + s.ID + ")"
	}
	lines = append(lines, title, "👤 *Cliente:* "+s.Client)
	if s.ClientDNI != "" {
		lines = append(lines, "🪪 *DNI (cliente):* "+s.ClientDNI)
	}
	for _, line := range s.Lines {
		lines = append(lines, line.text())
	}
	for _, b := range s.Blocks {
		lines = append(lines, "")
		for _, line := range b.Lines {
			lines = append(lines, line.text())
		}
	}
	if s.Expired {
		lines = append(lines, "", ExpiredNote)
	}
	return strings.Join(lines, "\n")
}

func (l Line) text() string {
	parts := make([]string, 0, len(l.Fields))
	for _, f := range l.Fields {
		if f.Label == "" {
			parts = append(parts, f.Value)
			continue
		}
		parts = append(parts, "*"+f.Label+":* "+f.Value)
	}
	body := strings.Join(parts, "  —  ")
	if l.Icon == "" {
		return body
	}
	return l.Icon + " " + body
}

var cardTemplate = template.Must(template.New("card").Parse(`
<article class="contract-card{{if .Expired}} contract-card--expired{{end}}">
  <header class="contract-card-header">
    <div>
      <h3 class="contract-type">{{.Title}}{{with .ID}} <span class="contract-id">#{{.}}</span>{{end}}</h3>
      <p class="contract-client">Cliente: {{.Client}}</p>
      {{- with .ClientDNI}}
      <p class="contract-client">DNI (cliente): {{.}}</p>
      {{- end}}
    </div>
  </header>
  <div class="contract-body">
    {{- range .Lines}}
    {{template "line" .}}
    {{- end}}
    {{- range .Blocks}}
    <div class="contract-block {{.Kind}}-block">
      {{- range .Lines}}
      {{template "line" .}}
      {{- end}}
    </div>
    {{- end}}
    {{- if .Expired}}
    <p class="contract-expired-note">` + ExpiredNote + `</p>
    {{- end}}
  </div>
</article>
{{- define "line"}}<p class="contract-line">{{with .Icon}}<span class="emoji">{{.}}</span> {{end}}
{{- range $i, $f := .Fields}}{{if $i}} &nbsp;—&nbsp; {{end}}{{with $f.Label}}<strong>{{.}}:</strong> {{end}}{{$f.Value}}{{end}}</p>
{{- end}}`))

// HTML renders the summary as an escaped card fragment
func (s Summary) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("render card: %w", err)
	}
	return template.HTML(strings.TrimSpace(buf.String())), nil
}
