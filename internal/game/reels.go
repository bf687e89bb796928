package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrBadConfig indicates missing or malformed reel/mapping data. The
// engine refuses to spin on a bad configuration rather than guess.
var ErrBadConfig = errors.New("game: invalid reel configuration")

// SymbolMapping translates raw authored strip tokens to image identifiers.
type SymbolMapping map[string]string

// TokenWarning records a strip token with no mapping entry. The token was
// replaced by the fallback symbol, which skews payout fairness if it goes
// unnoticed, so loaders must surface these (GLI-19 §2.8.8).
type TokenWarning struct {
	Reel     int    `json:"reel"`
	Position int    `json:"position"`
	Token    string `json:"token"`
}

// Variant is one complete, immutable engine configuration: a set of five
// translated reel strips plus the paytable and scaling mode evaluated
// against them. Variants are built once at startup and shared read-only
// across concurrent spins.
type Variant struct {
	Name     string
	Strips   [NumReels][]string // image identifiers, translated at load
	Paytable Paytable
	Scaled   bool
}

// reelFile is the on-disk shape of a reel configuration.
type reelFile struct {
	Reel1 []string `json:"reel1"`
	Reel2 []string `json:"reel2"`
	Reel3 []string `json:"reel3"`
	Reel4 []string `json:"reel4"`
	Reel5 []string `json:"reel5"`
}

// LoadSymbolMapping reads the token-to-image mapping file.
func LoadSymbolMapping(path string) (SymbolMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading symbol mapping: %v", ErrBadConfig, err)
	}

	var mapping SymbolMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("%w: parsing symbol mapping: %v", ErrBadConfig, err)
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("%w: symbol mapping is empty", ErrBadConfig)
	}
	return mapping, nil
}

// LoadVariant reads a reel configuration file and builds a Variant,
// translating every strip token through the mapping up front so that spin
// evaluation never touches raw tokens. Unmapped tokens are substituted
// with the first catalog symbol and reported as warnings; callers must
// log and count them, never swallow them.
func LoadVariant(name, reelPath string, mapping SymbolMapping, paytable Paytable, scaled bool) (*Variant, []TokenWarning, error) {
	data, err := os.ReadFile(reelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading reels %q: %v", ErrBadConfig, reelPath, err)
	}

	var file reelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("%w: parsing reels %q: %v", ErrBadConfig, reelPath, err)
	}

	raw := [NumReels][]string{file.Reel1, file.Reel2, file.Reel3, file.Reel4, file.Reel5}
	return NewVariant(name, raw, mapping, paytable, scaled)
}

// NewVariant builds a Variant from in-memory strips. Exposed so tests and
// tools can construct synthetic configurations without touching disk.
func NewVariant(name string, raw [NumReels][]string, mapping SymbolMapping, paytable Paytable, scaled bool) (*Variant, []TokenWarning, error) {
	if len(paytable) == 0 {
		return nil, nil, fmt.Errorf("%w: empty paytable", ErrBadConfig)
	}

	v := &Variant{Name: name, Paytable: paytable, Scaled: scaled}
	var warnings []TokenWarning

	for reel, strip := range raw {
		if len(strip) == 0 {
			return nil, nil, fmt.Errorf("%w: reel%d is missing or empty", ErrBadConfig, reel+1)
		}

		translated := make([]string, len(strip))
		for pos, token := range strip {
			image, ok := mapping[token]
			if !ok {
				warnings = append(warnings, TokenWarning{Reel: reel, Position: pos, Token: token})
				image = fallbackImage
			}
			translated[pos] = image
		}
		v.Strips[reel] = translated
	}

	return v, warnings, nil
}

// DefaultSymbolMapping returns the built-in mapping from authored token
// names to image identifiers, matching the shipped configuration files.
func DefaultSymbolMapping() SymbolMapping {
	m := make(SymbolMapping, len(catalog))
	for _, sym := range catalog {
		m[tokenForSymbol(sym)] = symbolImages[sym]
	}
	return m
}

func tokenForSymbol(sym Symbol) string {
	switch sym {
	case SymbolCherry:
		return "cherry"
	case SymbolLemon:
		return "lemon"
	case SymbolOrange:
		return "orange"
	case SymbolPlum:
		return "plum"
	case SymbolBell:
		return "bell"
	case SymbolGrape:
		return "grape"
	case SymbolWatermelon:
		return "watermelon"
	case SymbolSeven:
		return "seven"
	case SymbolWild:
		return "wild"
	case SymbolStar:
		return "star"
	default:
		return "crown"
	}
}
