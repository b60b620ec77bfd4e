// Package document renders the printable contract and the contract listing
// page. The printable contract is the input of the PDF rasterizer.
package document

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/R01085B-Limaylla/webContratos/summary"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// EmptyListing is shown on the listing page when nothing is stored
const EmptyListing = "No hay contratos registrados."

// Options carries the business facts printed on every contract
type Options struct {
	BusinessName string
	Signer       string // default signer for every contract
	BarSigner    string // co-signer of bar-only contracts
}

// Signer is one signature slot
type Signer struct {
	Name string
	DNI  string
}

// Contract is the view model of the printable contract
type Contract struct {
	Business       string
	Title          string
	ServiceLabel   string
	Client         string
	ClientDNI      string
	Services       []string
	Items          string
	Total          string
	Mobility       string
	MobilityAmount string
	Advance        string
	Remaining      string
	EventKind      string
	Date           string
	Time           string
	Address        string
	Reference      string
	Signers        []Signer
}

// Card is one entry of the listing page
type Card struct {
	Card   template.HTML
	PDFURL string
}

type listing struct {
	Title string
	Cards []Card
	Empty string
}

// Builder renders documents for one business
type Builder struct {
	locale summary.Locale
	opts   Options
}

func NewBuilder(locale summary.Locale, opts Options) *Builder {
	return &Builder{locale: locale, opts: opts}
}

// View builds the printable contract view of rec
func (b *Builder) View(rec summary.Record) Contract {
	l := b.locale
	v := Contract{
		Business:  b.opts.BusinessName,
		Client:    orDefault(rec.Client, summary.NoClient),
		ClientDNI: rec.ClientDNI,
		Total:     l.Money(rec.Total),
		Advance:   l.Money(rec.Advance),
		Remaining: l.Money(rec.Remaining),
		Mobility:  "No",
		Date:      l.LongDate(rec.EventDate, rec.DateText),
		Address:   orDefault(rec.Address, summary.NoAddress),
		Reference: rec.Reference,
	}
	if rec.MobilityOn {
		v.Mobility = "Sí"
		if rec.MobilityAmount.Valid && !rec.MobilityAmount.Decimal.IsZero() {
			v.MobilityAmount = l.Money(rec.MobilityAmount)
		}
	}

	switch rec.Type {
	case model.TypeCatering:
		v.ServiceLabel, v.Items, v.EventKind = "Catering", "Platos", "Comida"
		v.Time = timeOrEmpty(l.TimeLabel(rec.MealTime))
	case model.TypeBarman:
		v.ServiceLabel, v.Items, v.EventKind = "Barman", "Cocteles", "Cocteles"
		v.Time = timeOrEmpty(l.TimeLabel(rec.CocktailTime))
	case model.TypeBoth:
		v.ServiceLabel, v.Items, v.EventKind = "Catering y Barman", "Cocteles y Platos", "Cocteles y comida"
		v.Time = fmt.Sprintf("comida %s · cocteles %s", l.TimeLabel(rec.MealTime), l.TimeLabel(rec.CocktailTime))
	default:
		v.ServiceLabel, v.Items, v.EventKind = strings.ToLower(orDefault(rec.TypeLabel, "evento")), "Servicio", "Evento"
	}
	v.Title = "CONTRATO DE SERVICIO DE " + strings.ToUpper(v.ServiceLabel)
	v.Services = services(rec)
	v.Signers = b.signers(rec)
	return v
}

// Contract renders the printable HTML document of rec
func (b *Builder) Contract(rec summary.Record) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "contract.html", b.View(rec)); err != nil {
		return "", fmt.Errorf("render contract document: %w", err)
	}
	return buf.String(), nil
}

// Listing renders the card page
func (b *Builder) Listing(title string, cards []Card) (string, error) {
	var buf bytes.Buffer
	data := listing{Title: title, Cards: cards, Empty: EmptyListing}
	if err := templates.ExecuteTemplate(&buf, "cards.html", data); err != nil {
		return "", fmt.Errorf("render listing: %w", err)
	}
	return buf.String(), nil
}

// services lists the contracted items, bar first as on the printed form
func services(rec summary.Record) []string {
	var out []string
	if rec.Type.HasCocktails() {
		out = append(out, rec.BarItems...)
		if q := summary.CocktailQuantity(rec.Cocktails); q.Show() {
			out = append(out, "Cocteles: "+q.Text)
		}
		if rec.Cocktails != nil && len(rec.Cocktails.Variants) > 0 {
			out = append(out, "Variedades: "+strings.Join(rec.Cocktails.Variants, ", "))
		}
	}
	if rec.Type.HasCatering() {
		out = append(out, rec.DetailItems...)
		if rec.DishCount != "" {
			out = append(out, "Cantidad: "+rec.DishCount)
		}
		if rec.MealDescription != "" {
			out = append(out, "Platos: "+rec.MealDescription)
		}
	}
	if rec.Extras != "" {
		out = append(out, "Extras: "+rec.Extras)
	}
	return out
}

func (b *Builder) signers(rec summary.Record) []Signer {
	house := Signer{Name: orDefault(b.opts.Signer, b.opts.BusinessName)}
	switch rec.Type {
	case model.TypeCatering:
		if rec.Signer != "" {
			house.Name = rec.Signer
		}
		return []Signer{house}
	case model.TypeBarman:
		if b.opts.BarSigner == "" {
			return []Signer{house}
		}
		return []Signer{house, {Name: b.opts.BarSigner}}
	}
	return []Signer{house, {Name: orDefault(rec.Client, summary.NoClient), DNI: rec.ClientDNI}}
}

func timeOrEmpty(label string) string {
	if label == "—" {
		return ""
	}
	return label
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
