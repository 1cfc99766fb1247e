// Package catalog holds the configurable rate tables that drive pricing:
// per-service base rates, feature add-on costs, video duration multipliers,
// web maintenance fees and the shared client-tier multipliers. All amounts
// are expressed in the base currency (INR).
package catalog

import (
	"fmt"
	"sort"
)

// Catalog is a full snapshot of the rate tables. Calculations receive a
// snapshot by value; persistence of edits is owned by Store.
type Catalog struct {
	WebBaseRates             map[string]float64 `json:"webBaseRates"`
	WebFeatureCosts          map[string]float64 `json:"webFeatureCosts"`
	DesignBaseRates          map[string]float64 `json:"designBaseRates"`
	DesignFeatureCosts       map[string]float64 `json:"designFeatureCosts"`
	VideoBaseRates           map[string]float64 `json:"videoBaseRates"`
	VideoFeatureCosts        map[string]float64 `json:"videoFeatureCosts"`
	VideoDurationMultipliers map[string]float64 `json:"videoDurationMultipliers"`
	MaintenanceCosts         map[string]float64 `json:"maintenanceCosts"`
	ClientMultipliers        map[string]float64 `json:"clientMultipliers"`
}

// Canonical display order for feature add-ons within a breakdown. Features
// introduced through overrides that are not listed here sort after these,
// alphabetically.
var (
	webFeatureOrder = []string{
		"contactForm", "gallery", "responsive", "slideshow", "map",
		"seo", "social", "analytics", "firebase", "fireAuth",
	}
	designFeatureOrder = []string{
		"sourceFiles", "variations", "socialSizes", "printReady",
	}
	videoFeatureOrder = []string{
		"scriptwriting", "voiceover", "music", "animation", "captions",
		"multiple-formats",
	}
)

// Default returns the built-in rate tables.
func Default() Catalog {
	return Catalog{
		WebBaseRates: map[string]float64{
			"landing":   3000,
			"business":  6000,
			"advanced":  10000,
			"catalog":   12000,
			"ecommerce": 18000,
		},
		WebFeatureCosts: map[string]float64{
			"contactForm": 500,
			"gallery":     1000,
			"responsive":  1500,
			"slideshow":   1200,
			"map":         800,
			"seo":         1500,
			"social":      1000,
			"analytics":   800,
			"firebase":    3500,
			"fireAuth":    2500,
		},
		DesignBaseRates: map[string]float64{
			"logo":      5000,
			"branding":  12000,
			"social":    3000,
			"banner":    2500,
			"print":     4000,
			"packaging": 8000,
		},
		DesignFeatureCosts: map[string]float64{
			"sourceFiles": 1000,
			"variations":  2000,
			"socialSizes": 1500,
			"printReady":  1000,
		},
		VideoBaseRates: map[string]float64{
			"explainer":   15000,
			"promo":       12000,
			"social":      8000,
			"tutorial":    10000,
			"testimonial": 7000,
			"corporate":   20000,
		},
		VideoFeatureCosts: map[string]float64{
			"scriptwriting":    3000,
			"voiceover":        4000,
			"music":            2000,
			"animation":        5000,
			"captions":         1500,
			"multiple-formats": 2500,
		},
		VideoDurationMultipliers: map[string]float64{
			"short":    1.0,
			"medium":   1.5,
			"long":     2.0,
			"extended": 2.5,
		},
		MaintenanceCosts: map[string]float64{
			"basic":    500,
			"standard": 1000,
		},
		ClientMultipliers: map[string]float64{
			"startup":    0.8,
			"standard":   1.0,
			"corporate":  1.3,
			"enterprise": 1.5,
		},
	}
}

// MergedWith overlays o on top of c, key by key within each table. Keys
// missing from o retain c's values; a nil table in o leaves c's table
// untouched. Neither input is mutated.
func (c Catalog) MergedWith(o Catalog) Catalog {
	return Catalog{
		WebBaseRates:             mergeTable(c.WebBaseRates, o.WebBaseRates),
		WebFeatureCosts:          mergeTable(c.WebFeatureCosts, o.WebFeatureCosts),
		DesignBaseRates:          mergeTable(c.DesignBaseRates, o.DesignBaseRates),
		DesignFeatureCosts:       mergeTable(c.DesignFeatureCosts, o.DesignFeatureCosts),
		VideoBaseRates:           mergeTable(c.VideoBaseRates, o.VideoBaseRates),
		VideoFeatureCosts:        mergeTable(c.VideoFeatureCosts, o.VideoFeatureCosts),
		VideoDurationMultipliers: mergeTable(c.VideoDurationMultipliers, o.VideoDurationMultipliers),
		MaintenanceCosts:         mergeTable(c.MaintenanceCosts, o.MaintenanceCosts),
		ClientMultipliers:        mergeTable(c.ClientMultipliers, o.ClientMultipliers),
	}
}

func mergeTable(base, override map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing map state.
func (c Catalog) Clone() Catalog {
	return Catalog{}.MergedWith(c)
}

// Validate checks the catalog invariants: monetary amounts must be
// non-negative and multipliers strictly positive.
func (c Catalog) Validate() error {
	amounts := map[string]map[string]float64{
		"webBaseRates":       c.WebBaseRates,
		"webFeatureCosts":    c.WebFeatureCosts,
		"designBaseRates":    c.DesignBaseRates,
		"designFeatureCosts": c.DesignFeatureCosts,
		"videoBaseRates":     c.VideoBaseRates,
		"videoFeatureCosts":  c.VideoFeatureCosts,
		"maintenanceCosts":   c.MaintenanceCosts,
	}
	for table, values := range amounts {
		for key, v := range values {
			if v < 0 {
				return fmt.Errorf("%s.%s must be greater than or equal to 0", table, key)
			}
		}
	}

	multipliers := map[string]map[string]float64{
		"videoDurationMultipliers": c.VideoDurationMultipliers,
		"clientMultipliers":        c.ClientMultipliers,
	}
	for table, values := range multipliers {
		for key, v := range values {
			if v <= 0 {
				return fmt.Errorf("%s.%s must be greater than 0", table, key)
			}
		}
	}

	return nil
}

// WebFeatureKeys returns the web feature cost keys in display order.
func (c Catalog) WebFeatureKeys() []string {
	return orderedKeys(c.WebFeatureCosts, webFeatureOrder)
}

// DesignFeatureKeys returns the design feature cost keys in display order.
func (c Catalog) DesignFeatureKeys() []string {
	return orderedKeys(c.DesignFeatureCosts, designFeatureOrder)
}

// VideoFeatureKeys returns the video feature cost keys in display order.
func (c Catalog) VideoFeatureKeys() []string {
	return orderedKeys(c.VideoFeatureCosts, videoFeatureOrder)
}

func orderedKeys(table map[string]float64, canonical []string) []string {
	keys := make([]string, 0, len(table))
	seen := make(map[string]bool, len(table))
	for _, k := range canonical {
		if _, ok := table[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}

	var extra []string
	for k := range table {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	return append(keys, extra...)
}
