package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ContractType is the service family a contract covers
type ContractType string

const (
	TypeCatering ContractType = "catering"
	TypeBarman   ContractType = "barman"
	TypeBoth     ContractType = "ambos" // catering and barman combined
)

// ParseType canonicalizes a case-insensitive type name
func ParseType(s string) (ContractType, bool) {
	switch t := ContractType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeCatering, TypeBarman, TypeBoth:
		return t, true
	}
	return "", false
}

// HasCatering reports whether the contract includes the catering service
func (t ContractType) HasCatering() bool {
	return t == TypeCatering || t == TypeBoth
}

// HasCocktails reports whether the contract includes the bar service
func (t ContractType) HasCocktails() bool {
	return t == TypeBarman || t == TypeBoth
}

// Contract is one row of the contratos table. Flat columns and the nested
// payload may both carry the same fact; readers resolve the overlap.
type Contract struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	Type       string              `gorm:"column:tipo;size:16" json:"tipo"`
	ClientName string              `gorm:"column:cliente" json:"cliente,omitempty"`
	ClientDNI  string              `gorm:"column:dni" json:"dni,omitempty"`
	EventDate  *string             `gorm:"column:fecha_evento;type:varchar(10);index" json:"fecha_evento,omitempty"`
	Address    string              `gorm:"column:direccion" json:"direccion,omitempty"`
	Reference  string              `gorm:"column:referencia" json:"referencia,omitempty"`
	Total      decimal.NullDecimal `gorm:"column:total;type:decimal(10,2)" json:"total"`
	Advance    decimal.NullDecimal `gorm:"column:adelanto;type:decimal(10,2)" json:"adelanto"`
	Remaining  decimal.NullDecimal `gorm:"column:resta;type:decimal(10,2)" json:"resta"`
	Payload    datatypes.JSON      `gorm:"column:payload" json:"payload,omitempty"`
	PDFPath    string              `gorm:"column:pdf_path" json:"pdf_path,omitempty"`
	PDFURL     string              `gorm:"column:pdf_url" json:"pdf_url,omitempty"`
	CreatedAt  time.Time           `gorm:"column:fecha_creado;autoCreateTime" json:"fecha_creado"`
}

func (Contract) TableName() string {
	return "contratos"
}

// Columns exposes the flat top-level shape keyed by column name.
// Null columns are left out.
func (c *Contract) Columns() map[string]any {
	cols := map[string]any{
		"tipo":       c.Type,
		"cliente":    c.ClientName,
		"dni":        c.ClientDNI,
		"direccion":  c.Address,
		"referencia": c.Reference,
		"pdf_path":   c.PDFPath,
		"pdf_url":    c.PDFURL,
	}
	if c.ID != 0 {
		cols["id"] = c.ID
	}
	if c.EventDate != nil {
		cols["fecha_evento"] = *c.EventDate
	}
	if c.Total.Valid {
		cols["total"] = c.Total.Decimal
	}
	if c.Advance.Valid {
		cols["adelanto"] = c.Advance.Decimal
	}
	if c.Remaining.Valid {
		cols["resta"] = c.Remaining.Decimal
	}
	return cols
}

// PayloadMap decodes the nested payload. Payloads saved as a JSON string
// holding JSON are unwrapped once; anything unreadable yields nil.
func (c *Contract) PayloadMap() map[string]any {
	if len(c.Payload) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(c.Payload, &v); err != nil {
		return nil
	}
	if s, ok := v.(string); ok {
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil
		}
	}
	m, _ := v.(map[string]any)
	return m
}

// Payload is the structured shape written by the drafting endpoint
type Payload struct {
	Tipo                 string           `json:"tipo,omitempty"`
	Cliente              string           `json:"cliente,omitempty"`
	DNICliente           string           `json:"dniCliente,omitempty"`
	Fecha                string           `json:"fecha,omitempty"`
	FechaTexto           string           `json:"fechaTexto,omitempty"`
	Direccion            string           `json:"direccion,omitempty"`
	Referencia           string           `json:"referencia,omitempty"`
	Adelanto             *decimal.Decimal `json:"adelanto,omitempty"`
	Resta                *decimal.Decimal `json:"resta,omitempty"`
	Total                *decimal.Decimal `json:"total,omitempty"`
	HoraComidaTexto      string           `json:"horaComidaTexto,omitempty"`
	HoraComidaIndefinida bool             `json:"horaComidaIndefinida,omitempty"`
	HoraCoctelTexto      string           `json:"horaCoctelTexto,omitempty"`
	HoraCoctelIndefinida bool             `json:"horaCoctelIndefinida,omitempty"`
	MovOn                bool             `json:"movOn,omitempty"`
	MovilidadMonto       *decimal.Decimal `json:"movilidadMonto,omitempty"`
	Servicios            []string         `json:"servicios,omitempty"`
	CantidadCatering     int              `json:"cantidadCatering,omitempty"`
	PlatosDescripcion    string           `json:"platosDescripcion,omitempty"`
	Extras               string           `json:"extras,omitempty"`
	Cocteles             *Cocktails       `json:"cocteles,omitempty"`
	FirmaCatering        string           `json:"firmaCatering,omitempty"`
}

// Cocktails records how many drinks are served and in which glassware
type Cocktails struct {
	Modo        string   `json:"modo,omitempty"` // separado | total
	Acrilico    int      `json:"acrilico,omitempty"`
	Cristaleria int      `json:"cristaleria,omitempty"`
	Total       int      `json:"total,omitempty"`
	TipoVajilla string   `json:"tipoVajilla,omitempty"`
	Variedades  []string `json:"variedades,omitempty"`
}

// TimeSlot is a free-text time with a "to be defined" flag
type TimeSlot struct {
	Text      string `json:"texto"`
	Undefined bool   `json:"indefinida"`
}

// ContractDraft is the input accepted when a contract is drafted or replaced
type ContractDraft struct {
	Type            string          `json:"tipo" binding:"required"`
	ClientName      string          `json:"cliente"`
	ClientDNI       string          `json:"dni"`
	EventDate       string          `json:"fecha_evento"`
	DateText        string          `json:"fecha_texto"`
	MealTime        TimeSlot        `json:"hora_comida"`
	CocktailTime    TimeSlot        `json:"hora_coctel"`
	Address         string          `json:"direccion"`
	Reference       string          `json:"referencia"`
	Total           decimal.Decimal `json:"total"`
	Advance         decimal.Decimal `json:"adelanto"`
	Mobility        bool            `json:"movilidad"`
	MobilityAmount  decimal.Decimal `json:"movilidad_monto"`
	Services        []string        `json:"servicios"`
	DishCount       int             `json:"cantidad_platos"`
	MealDescription string          `json:"platos_descripcion"`
	Extras          string          `json:"extras"`
	Cocktails       *Cocktails      `json:"cocteles"`
	CateringSigner  string          `json:"firma_catering"`
}

// WhatsAppUser links a messaging number to a client DNI
type WhatsAppUser struct {
	Phone    string  `gorm:"column:phone;primaryKey" json:"phone"`
	UserID   *string `gorm:"column:user_id" json:"user_id,omitempty"`
	DNI      string  `gorm:"column:dni" json:"dni,omitempty"`
	Verified bool    `gorm:"column:verified" json:"verified"`
}

func (WhatsAppUser) TableName() string {
	return "whatsapp_users"
}
