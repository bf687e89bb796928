// Package game implements the spin resolution and payline settlement
// engine for the 5x3, 10-line fruit cabinet.
// Compliant with GLI-19 §4.4, §4.5, §4.6
package game

import "sort"

// Symbol is a canonical catalog symbol name.
type Symbol string

const (
	SymbolCherry     Symbol = "Cherry"
	SymbolLemon      Symbol = "Lemon"
	SymbolOrange     Symbol = "Orange"
	SymbolPlum       Symbol = "Plum"
	SymbolBell       Symbol = "Bell"
	SymbolGrape      Symbol = "Grape"
	SymbolWatermelon Symbol = "Watermelon"
	SymbolSeven      Symbol = "Seven"
	SymbolWild       Symbol = "Wild"
	SymbolStar       Symbol = "Star"
	SymbolCrown      Symbol = "Crown"

	// SymbolUnknown marks a window entry whose image identifier is not in
	// the catalog. It never matches on a payline and always breaks a run.
	SymbolUnknown Symbol = "Unknown"
)

// catalog lists all symbols in asset order. The first entry is the
// fallback for unmapped strip tokens.
var catalog = []Symbol{
	SymbolCherry,
	SymbolLemon,
	SymbolOrange,
	SymbolPlum,
	SymbolBell,
	SymbolGrape,
	SymbolWatermelon,
	SymbolSeven,
	SymbolWild,
	SymbolStar,
	SymbolCrown,
}

// symbolImages maps each catalog symbol to the sprite-atlas image
// identifier the rendering layer displays.
var symbolImages = map[Symbol]string{
	SymbolCherry:     "00.png",
	SymbolLemon:      "01.png",
	SymbolOrange:     "02.png",
	SymbolPlum:       "03.png",
	SymbolBell:       "04.png",
	SymbolGrape:      "05.png",
	SymbolWatermelon: "06.png",
	SymbolSeven:      "07.png",
	SymbolWild:       "08.png",
	SymbolStar:       "09.png",
	SymbolCrown:      "10.png",
}

var imageSymbols = func() map[string]Symbol {
	m := make(map[string]Symbol, len(symbolImages))
	for sym, img := range symbolImages {
		m[img] = sym
	}
	return m
}()

// wildImage is the window entry written by wild expansion.
var wildImage = symbolImages[SymbolWild]

// fallbackImage is substituted for strip tokens with no mapping entry.
var fallbackImage = symbolImages[catalog[0]]

// SymbolForImage translates an image identifier back to its catalog
// symbol. Unrecognized identifiers yield SymbolUnknown.
func SymbolForImage(image string) Symbol {
	if sym, ok := imageSymbols[image]; ok {
		return sym
	}
	return SymbolUnknown
}

// ImageForSymbol returns the image identifier for a catalog symbol, or
// the fallback image for anything outside the catalog.
func ImageForSymbol(sym Symbol) string {
	if img, ok := symbolImages[sym]; ok {
		return img
	}
	return fallbackImage
}

// Catalog returns the symbol catalog in asset order.
func Catalog() []Symbol {
	out := make([]Symbol, len(catalog))
	copy(out, catalog)
	return out
}

// sortSymbols orders symbols lexically; the evaluator relies on this for
// its deterministic tie-break.
func sortSymbols(syms []Symbol) {
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
}
