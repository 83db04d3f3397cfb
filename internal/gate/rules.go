package gate

import "github.com/mlgudi/chance-man-sub000/internal/item"

// RuneType names one rune kind consumed by spell casts.
type RuneType string

const (
	RuneAir    RuneType = "air"
	RuneWater  RuneType = "water"
	RuneEarth  RuneType = "earth"
	RuneFire   RuneType = "fire"
	RuneMind   RuneType = "mind"
	RuneChaos  RuneType = "chaos"
	RuneDeath  RuneType = "death"
	RuneNature RuneType = "nature"
	RuneLaw    RuneType = "law"
	RuneCosmic RuneType = "cosmic"
	RuneBlood  RuneType = "blood"
	RuneAstral RuneType = "astral"
)

// Rules is the static exception-rule table: tool verbs to qualifying
// tool-name keywords, rune types to the items that satisfy them, staves to
// the rune types they provide unconditionally, and items exempt from
// generic use gating. Loaded once, never mutated.
type Rules struct {
	ToolKeywords  map[string][]string
	RuneItems     map[RuneType][]item.ID
	StaffProvides map[item.ID][]RuneType
	Exempt        map[item.ID]struct{}
}

// DefaultRules builds the rule table for the stock item catalog.
func DefaultRules() *Rules {
	return &Rules{
		ToolKeywords: map[string][]string{
			"mine": {"pickaxe"},
			// " axe" with the leading space so pickaxes do not qualify.
			"chop":       {" axe"},
			"fish":       {"rod", "harpoon", "net", "pot", "cage"},
			"smith":      {"hammer"},
			"craft":      {"needle", "chisel"},
			"firemaking": {"tinderbox"},
		},
		RuneItems: map[RuneType][]item.ID{
			RuneAir:    {556},
			RuneWater:  {555},
			RuneEarth:  {557},
			RuneFire:   {554},
			RuneMind:   {558},
			RuneChaos:  {562},
			RuneDeath:  {560},
			RuneNature: {561},
			RuneLaw:    {563},
			RuneCosmic: {564},
			RuneBlood:  {565},
			RuneAstral: {9075},
		},
		StaffProvides: map[item.ID][]RuneType{
			1381: {RuneAir},
			1383: {RuneWater},
			1385: {RuneEarth},
			1387: {RuneFire},
		},
		Exempt: map[item.ID]struct{}{
			995:   {}, // Coins
			13204: {}, // Platinum token
			11941: {}, // Looting bag
			12791: {}, // Rune pouch
		},
	}
}

func (r *Rules) exempt(id item.ID) bool {
	_, ok := r.Exempt[id]
	return ok
}

func (r *Rules) staffProvides(id item.ID, rt RuneType) bool {
	for _, provided := range r.StaffProvides[id] {
		if provided == rt {
			return true
		}
	}
	return false
}
