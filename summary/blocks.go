package summary

import (
	"strconv"
	"strings"
)

// BlockKind names a service block. The value doubles as the card CSS prefix.
type BlockKind string

const (
	BlockCatering  BlockKind = "catering"
	BlockCocktails BlockKind = "barman"
)

// Field is one emphasized label with its value. An empty label renders the
// value alone.
type Field struct {
	Label string
	Value string
}

// Line is one display line: an optional icon followed by its fields
type Line struct {
	Icon   string
	Fields []Field
}

func labeled(icon, label, value string) Line {
	return Line{Icon: icon, Fields: []Field{{Label: label, Value: value}}}
}

// Block is the ordered line list of one service family
type Block struct {
	Kind  BlockKind
	Lines []Line
}

// Quantity is the rendered container count of a cocktail object. Zero marks
// a rendering that only states an empty amount.
type Quantity struct {
	Text string
	Zero bool
}

// Show reports whether the quantity deserves a line
func (q Quantity) Show() bool {
	return q.Text != "" && !q.Zero
}

// CocktailQuantity applies the container-counting rule
func CocktailQuantity(c *Cocktails) Quantity {
	if c == nil {
		return Quantity{}
	}
	switch c.Mode {
	case ModeSeparate:
		var parts []string
		if c.Acrylic != 0 {
			parts = append(parts, strconv.FormatInt(c.Acrylic, 10)+" "+VesselAcrylic)
		}
		if c.Glass != 0 {
			parts = append(parts, strconv.FormatInt(c.Glass, 10)+" "+VesselGlass)
		}
		return Quantity{Text: strings.Join(parts, " · ")}
	case ModeTotal:
		text := strconv.FormatInt(c.Total, 10)
		if c.Vessel == VesselAcrylic || c.Vessel == VesselGlass {
			text += " " + c.Vessel
		}
		return Quantity{Text: text, Zero: c.Total == 0}
	}
	return Quantity{}
}

// CateringBlock composes the meal block. It returns nil when the contract
// type has no catering.
func (l Locale) CateringBlock(rec Record) *Block {
	if !rec.Type.HasCatering() {
		return nil
	}
	b := &Block{Kind: BlockCatering}
	b.add(labeled("🍽️", "Catering", l.TimeLabel(rec.MealTime)))
	if rec.DishCount != "" {
		b.add(labeled("", "Cantidad", rec.DishCount))
	}
	if rec.MealDescription != "" {
		b.add(labeled("", "Comida", rec.MealDescription))
	}
	if len(rec.DetailItems) > 0 {
		b.add(labeled("", "Detalles", strings.Join(rec.DetailItems, " · ")))
	}
	if rec.Extras != "" {
		b.add(labeled("", "Extras", rec.Extras))
	}
	return b
}

// CocktailBlock composes the bar block. It returns nil when the contract
// type has no bar service.
func (l Locale) CocktailBlock(rec Record) *Block {
	if !rec.Type.HasCocktails() {
		return nil
	}
	b := &Block{Kind: BlockCocktails}
	b.add(labeled("🍹", "Cocteles", l.TimeLabel(rec.CocktailTime)))
	if q := CocktailQuantity(rec.Cocktails); q.Show() {
		b.add(labeled("", "Cantidad", q.Text))
	}
	if rec.Cocktails != nil && len(rec.Cocktails.Variants) > 0 {
		b.add(labeled("", "Cocteles", strings.Join(rec.Cocktails.Variants, ", ")))
	}
	if len(rec.BarItems) > 0 {
		b.add(labeled("", "Detalles coctel", strings.Join(rec.BarItems, " · ")))
	}
	if rec.Extras != "" {
		b.add(labeled("", "Extras", rec.Extras))
	}
	return b
}

func (b *Block) add(line Line) {
	b.Lines = append(b.Lines, line)
}
