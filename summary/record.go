package summary

import (
	"strings"

	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/shopspring/decimal"
)

// Cocktail container modes and glassware tags
const (
	ModeSeparate = "separate"
	ModeTotal    = "total"

	VesselAcrylic = "Acrílico"
	VesselGlass   = "Cristalería"
)

// Record is the normalized contract every renderer works from. It is built
// once per stored row and never inspects which shape a value came from.
type Record struct {
	ID        string
	Type      model.ContractType // empty when the stored type is unknown
	TypeLabel string
	Client    string
	ClientDNI string
	EventDate string // as stored; may not be a valid calendar date
	DateText  string // author-supplied override for the date line
	Address   string
	Reference string

	Advance   decimal.NullDecimal
	Remaining decimal.NullDecimal
	Total     decimal.NullDecimal

	MobilityOn     bool
	MobilityAmount decimal.NullDecimal

	MealTime     model.TimeSlot
	CocktailTime model.TimeSlot

	DishCount       string
	MealDescription string
	DetailItems     []string
	BarItems        []string
	Extras          string
	Cocktails       *Cocktails

	Services []string
	Signer   string
	PDFPath  string
	PDFURL   string
}

// Cocktails is the normalized container-count object
type Cocktails struct {
	Mode     string
	Acrylic  int64
	Glass    int64
	Total    int64
	Vessel   string
	Variants []string
}

// Field priority lists. Flat columns win over the payload for identity,
// place and money; the payload wins for the service type and for every
// service fact, with the legacy services object as the last resort.
var (
	idKeys             = []key{flat("id")}
	typeKeys           = []key{payload("tipo"), flat("tipo"), flat("type")}
	clientKeys         = []key{flat("cliente"), payload("cliente"), flat("contratante")}
	dniKeys            = []key{flat("dni"), payload("dniCliente"), flat("dni_contratante")}
	eventDateKeys      = []key{flat("fecha_evento"), payload("fecha")}
	dateTextKeys       = []key{payload("fechaTexto")}
	addressKeys        = []key{flat("direccion"), payload("direccion")}
	referenceKeys      = []key{flat("referencia"), payload("referencia")}
	advanceKeys        = []key{flat("adelanto"), payload("adelanto")}
	remainingKeys      = []key{flat("resta"), payload("resta")}
	totalKeys          = []key{flat("total"), payload("total"), flat("precio_total")}
	mobilityOnKeys     = []key{payload("movOn"), flat("movilidad")}
	mobilityAmountKeys = []key{payload("movilidadMonto")}
	mealTimeKeys       = []key{payload("horaComidaTexto"), flat("hora_evento")}
	mealUndefinedKeys  = []key{payload("horaComidaIndefinida")}
	cocktailTimeKeys   = []key{payload("horaCoctelTexto"), flat("hora_evento")}
	cocktailUndefKeys  = []key{payload("horaCoctelIndefinida")}
	servicesKeys       = []key{payload("servicios"), payload("services"), flat("servicios"), flat("services")}
	dishCountKeys      = []key{payload("cantidadCatering"), legacy("cantidadCatering")}
	mealDescKeys       = []key{payload("platosDescripcion"), legacy("platosDescripcion")}
	extrasKeys         = []key{payload("extras")}
	cocktailsKeys      = []key{payload("cocteles"), payload("cocktails")}
	legacyVariantKeys  = []key{legacy("varCoctel")}
	signerKeys         = []key{payload("firmaCatering"), flat("firma")}
	pdfPathKeys        = []key{flat("pdf_path"), flat("storage_path")}
	pdfURLKeys         = []key{flat("pdf_url")}
)

// Normalize resolves every display fact of a stored contract
func Normalize(src Source) Record {
	var rec Record

	rec.ID, _ = src.Text(idKeys...)
	if raw, ok := src.Text(typeKeys...); ok {
		rec.Type, _ = model.ParseType(raw)
		rec.TypeLabel = strings.ToUpper(raw)
	}
	rec.Client, _ = src.Text(clientKeys...)
	rec.ClientDNI, _ = src.Text(dniKeys...)
	rec.EventDate, _ = src.Text(eventDateKeys...)
	rec.DateText, _ = src.Text(dateTextKeys...)
	rec.Address, _ = src.Text(addressKeys...)
	rec.Reference, _ = src.Text(referenceKeys...)

	rec.Advance = nullAmount(src, advanceKeys)
	rec.Remaining = nullAmount(src, remainingKeys)
	rec.Total = nullAmount(src, totalKeys)

	rec.MobilityOn = src.Flag(mobilityOnKeys...)
	rec.MobilityAmount = nullAmount(src, mobilityAmountKeys)

	rec.MealTime.Text, _ = src.Text(mealTimeKeys...)
	rec.MealTime.Undefined = src.Flag(mealUndefinedKeys...)
	rec.CocktailTime.Text, _ = src.Text(cocktailTimeKeys...)
	rec.CocktailTime.Undefined = src.Flag(cocktailUndefKeys...)

	rec.Services = serviceList(src)

	rec.DishCount = dishCount(src, rec.Services)
	if desc, ok := src.Text(mealDescKeys...); ok {
		rec.MealDescription = desc
	} else {
		rec.MealDescription, _ = scrapeFirst(rec.Services, mealPattern)
	}
	rec.DetailItems = scrapeAll(rec.Services, detailPatterns)
	rec.BarItems = scrapeAll(rec.Services, barDetailPatterns)
	rec.Extras = extras(src, rec.Services)
	rec.Cocktails = cocktails(src)

	rec.Signer, _ = src.Text(signerKeys...)
	rec.PDFPath, _ = src.Text(pdfPathKeys...)
	rec.PDFURL, _ = src.Text(pdfURLKeys...)

	return rec
}

func nullAmount(src Source, keys []key) decimal.NullDecimal {
	d, ok := src.Amount(keys...)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// serviceList returns the legacy service list, falling back to the checklists
// of the first drafting page
func serviceList(src Source) []string {
	if list, ok := src.List(servicesKeys...); ok {
		return list
	}
	var out []string
	for _, name := range []string{"cateringChecks", "barmanChecks"} {
		if list, ok := src.List(legacy(name)); ok {
			out = append(out, list...)
		}
	}
	return out
}

// dishCount treats a zero count as not recorded
func dishCount(src Source, services []string) string {
	if v, ok := src.Text(dishCountKeys...); ok {
		if d, numeric := ParseAmount(v); !numeric || !d.IsZero() {
			return v
		}
	}
	n, _ := scrapeFirst(services, dishCountPattern)
	return n
}

// extras prefers the structured field over the "Extras:" service entry
func extras(src Source, services []string) string {
	if v, ok := src.Text(extrasKeys...); ok {
		return v
	}
	v, _ := scrapeFirst(services, extrasPattern)
	return v
}

func cocktails(src Source) *Cocktails {
	obj, ok := src.Object(cocktailsKeys...)
	if !ok {
		if variants, ok := src.List(legacyVariantKeys...); ok {
			return &Cocktails{Variants: variants}
		}
		return nil
	}
	sub := Source{Payload: obj}
	c := &Cocktails{
		Acrylic: count(sub, payload("acrilico"), payload("acrylic")),
		Glass:   count(sub, payload("cristaleria"), payload("glass")),
		Total:   count(sub, payload("total")),
	}
	mode, _ := sub.Text(payload("modo"), payload("mode"))
	switch strings.ToLower(mode) {
	case "separado", ModeSeparate:
		c.Mode = ModeSeparate
	case ModeTotal:
		c.Mode = ModeTotal
	default:
		c.Mode = mode
	}
	c.Vessel, _ = sub.Text(payload("tipoVajilla"), payload("vessel"))
	c.Variants, _ = sub.List(payload("variedades"), payload("variants"))
	return c
}

func count(src Source, keys ...key) int64 {
	d, ok := src.Amount(keys...)
	if !ok {
		return 0
	}
	return d.IntPart()
}
