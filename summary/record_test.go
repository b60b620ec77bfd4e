package summary

import (
	"testing"

	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestNormalizeFlatOnly(t *testing.T) {
	date := "2025-03-14"
	c := &model.Contract{
		ID:         3,
		Type:       "Catering",
		ClientName: "Luis",
		ClientDNI:  "70112233",
		EventDate:  &date,
		Address:    "Jr. Lima 450",
		Total:      decimal.NewNullDecimal(decimal.NewFromInt(800)),
		Advance:    decimal.NewNullDecimal(decimal.NewFromInt(300)),
		Remaining:  decimal.NewNullDecimal(decimal.NewFromInt(500)),
	}

	rec := Normalize(SourceOf(c))

	assert.Equal(t, "3", rec.ID)
	assert.Equal(t, model.TypeCatering, rec.Type)
	assert.Equal(t, "CATERING", rec.TypeLabel)
	assert.Equal(t, "Luis", rec.Client)
	assert.Equal(t, "70112233", rec.ClientDNI)
	assert.Equal(t, "2025-03-14", rec.EventDate)
	assert.Equal(t, "Jr. Lima 450", rec.Address)
	assert.Equal(t, "500", rec.Remaining.Decimal.String())
	assert.Empty(t, rec.Services)
	assert.Empty(t, rec.Extras)
	assert.Nil(t, rec.Cocktails)
}

func TestNormalizePayloadOnly(t *testing.T) {
	c := &model.Contract{Payload: datatypes.JSON(`{
		"tipo": "barman",
		"cliente": "Marta",
		"dniCliente": "44556677",
		"fecha": "2025-01-05",
		"fechaTexto": "Domingo 5 de enero",
		"adelanto": 100,
		"horaCoctelTexto": "9pm",
		"movOn": true,
		"movilidadMonto": "50",
		"cocteles": {"modo": "separado", "acrilico": 40, "cristaleria": 10, "variedades": ["Pisco sour"]}
	}`)}

	rec := Normalize(SourceOf(c))

	assert.Equal(t, model.TypeBarman, rec.Type)
	assert.Equal(t, "Marta", rec.Client)
	assert.Equal(t, "44556677", rec.ClientDNI)
	assert.Equal(t, "2025-01-05", rec.EventDate)
	assert.Equal(t, "Domingo 5 de enero", rec.DateText)
	assert.True(t, rec.Advance.Valid)
	assert.False(t, rec.Total.Valid)
	assert.Equal(t, "9pm", rec.CocktailTime.Text)
	assert.True(t, rec.MobilityOn)
	assert.Equal(t, "50", rec.MobilityAmount.Decimal.String())

	require.NotNil(t, rec.Cocktails)
	assert.Equal(t, ModeSeparate, rec.Cocktails.Mode)
	assert.Equal(t, int64(40), rec.Cocktails.Acrylic)
	assert.Equal(t, int64(10), rec.Cocktails.Glass)
	assert.Equal(t, []string{"Pisco sour"}, rec.Cocktails.Variants)
}

func TestNormalizeFlatWinsOverPayload(t *testing.T) {
	c := &model.Contract{
		Type:       "barman",
		ClientName: "Columna",
		Payload:    datatypes.JSON(`{"tipo":"ambos","cliente":"Payload"}`),
	}

	rec := Normalize(SourceOf(c))

	assert.Equal(t, "Columna", rec.Client)
	assert.Equal(t, model.TypeBoth, rec.Type, "the payload decides the service type")
}

func TestNormalizeServiceScraping(t *testing.T) {
	c := &model.Contract{Payload: datatypes.JSON(`{
		"tipo": "catering",
		"cantidadCatering": 0,
		"servicios": [
			"Cantidad de platos: 120",
			"Comida: Ají de gallina",
			"Servilletas (color: rojo)",
			"Ayudante de barra",
			"Extras: Torta",
			"Algo libre"
		]
	}`)}

	rec := Normalize(SourceOf(c))

	assert.Equal(t, "120", rec.DishCount, "a zero structured count falls back to the list")
	assert.Equal(t, "Ají de gallina", rec.MealDescription)
	assert.Equal(t, []string{"Servilletas (color: rojo)"}, rec.DetailItems)
	assert.Equal(t, []string{"Ayudante de barra"}, rec.BarItems)
	assert.Equal(t, "Torta", rec.Extras)
}

func TestNormalizeStructuredBeatsScraped(t *testing.T) {
	c := &model.Contract{Payload: datatypes.JSON(`{
		"tipo": "ambos",
		"cantidadCatering": 60,
		"platosDescripcion": "Buffet criollo",
		"extras": "Pista de baile",
		"servicios": ["Cantidad de platos: 120", "Comida: Otro", "Extras: Torta"]
	}`)}

	rec := Normalize(SourceOf(c))

	assert.Equal(t, "60", rec.DishCount)
	assert.Equal(t, "Buffet criollo", rec.MealDescription)
	assert.Equal(t, "Pista de baile", rec.Extras)
}

func TestNormalizeLegacyServicesObject(t *testing.T) {
	c := &model.Contract{Payload: datatypes.JSON(`{
		"tipo": "ambos",
		"services": {
			"cateringChecks": ["Copas", "Mozos: 2"],
			"barmanChecks": ["Barra móvil"],
			"varCoctel": ["Mojito", "Chilcano"],
			"platosDescripcion": "Pollo a la brasa"
		}
	}`)}

	rec := Normalize(SourceOf(c))

	assert.Equal(t, []string{"Copas", "Mozos: 2", "Barra móvil"}, rec.Services)
	assert.Equal(t, []string{"Copas", "Mozos: 2"}, rec.DetailItems)
	assert.Equal(t, []string{"Barra móvil"}, rec.BarItems)
	assert.Equal(t, "Pollo a la brasa", rec.MealDescription)
	require.NotNil(t, rec.Cocktails)
	assert.Equal(t, []string{"Mojito", "Chilcano"}, rec.Cocktails.Variants)
}

func TestNormalizeUnknownType(t *testing.T) {
	rec := Normalize(SourceOf(&model.Contract{Type: "buffet"}))
	assert.Equal(t, model.ContractType(""), rec.Type)
	assert.Equal(t, "BUFFET", rec.TypeLabel)

	rec = Normalize(Source{})
	assert.Empty(t, rec.TypeLabel)
}
