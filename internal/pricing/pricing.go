// Package pricing computes itemized price estimates for web, design and
// video projects from a catalog snapshot and a request. All calculations
// are pure: same catalog and request always produce the same estimate.
//
// Each engine shares the same shape: resolve the base rate, accumulate
// additive add-ons into a subtotal, then apply a chain of independent
// multipliers to that subtotal and round once at the end. Per-line
// percentage deltas in the breakdown are rounded independently for display
// and are never fed back into the total.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/thelpatil/quotal/internal/catalog"
)

// ErrUnknownVariant is returned when a priced enum selection is not
// present in the catalog. Unknown feature flags, by contrast, are ignored.
var ErrUnknownVariant = errors.New("unknown variant")

// Line is one itemized entry of a price breakdown, in display order.
// Additive entries carry Amount; multiplier entries carry Percent and,
// where the original tool showed one, a display-only currency Delta.
// Monthly marks a recurring fee that is excluded from the total.
type Line struct {
	Label   string  `json:"label"`
	Amount  float64 `json:"amount,omitempty"`
	Percent float64 `json:"percent,omitempty"`
	Delta   float64 `json:"delta,omitempty"`
	Monthly bool    `json:"monthly,omitempty"`
}

// Estimate is the full output of a pricing calculation.
type Estimate struct {
	Breakdown          []Line  `json:"breakdown"`
	Subtotal           float64 `json:"subtotal"`
	Total              float64 `json:"total"`
	MonthlyMaintenance float64 `json:"monthlyMaintenance,omitempty"`
}

// WebRequest describes a web development project.
type WebRequest struct {
	SiteType          string   `json:"siteType"`
	Pages             int      `json:"pages"`
	BackendComplexity string   `json:"backendComplexity"`
	Features          []string `json:"features"`
	Complexity        string   `json:"complexity"`
	Timeline          string   `json:"timeline"`
	Maintenance       string   `json:"maintenance"`
	ClientProfile     string   `json:"clientProfile"`
}

// DesignRequest describes a design project.
type DesignRequest struct {
	DesignType    string   `json:"designType"`
	Complexity    string   `json:"designComplexity"`
	Revisions     string   `json:"revisions"`
	Timeline      string   `json:"designTimeline"`
	Features      []string `json:"features"`
	AIAssisted    string   `json:"aiAssisted"`
	ClientProfile string   `json:"clientProfile"`
}

// VideoRequest describes a video production project.
type VideoRequest struct {
	VideoType     string   `json:"videoType"`
	Duration      string   `json:"videoDuration"`
	Complexity    string   `json:"videoComplexity"`
	Features      []string `json:"features"`
	Timeline      string   `json:"videoTimeline"`
	Revisions     string   `json:"videoRevisions"`
	ClientProfile string   `json:"clientProfile"`
}

const extraPageRate = 800

var siteTypeLabels = map[string]string{
	"landing":   "Landing Page",
	"business":  "Basic Business Site",
	"advanced":  "Advanced Business Site",
	"catalog":   "Product Catalog",
	"ecommerce": "Simple E-commerce",
}

var designTypeLabels = map[string]string{
	"logo":      "Logo Design",
	"branding":  "Brand Identity Package",
	"social":    "Social Media Graphics",
	"banner":    "Website Banner/Header",
	"print":     "Print Materials",
	"packaging": "Product Packaging",
}

var videoTypeLabels = map[string]string{
	"explainer":   "Explainer Video",
	"promo":       "Promotional Video",
	"social":      "Social Media Video",
	"tutorial":    "Tutorial/How-To",
	"testimonial": "Testimonial/Interview",
	"corporate":   "Corporate Video",
}

var featureLabels = map[string]string{
	"contactForm":      "Contact Form",
	"gallery":          "Image Gallery",
	"responsive":       "Responsive Design",
	"slideshow":        "Image Slideshow",
	"map":              "Location Map",
	"seo":              "SEO Optimization",
	"social":           "Social Media Integration",
	"analytics":        "Analytics Integration",
	"firebase":         "Firebase Integration",
	"fireAuth":         "User Authentication",
	"sourceFiles":      "Source Files",
	"variations":       "Design Variations",
	"socialSizes":      "Social Media Sizes",
	"printReady":       "Print-Ready Files",
	"scriptwriting":    "Scriptwriting",
	"voiceover":        "Professional Voiceover",
	"music":            "Background Music",
	"animation":        "Custom Animation",
	"captions":         "Captions/Subtitles",
	"multiple-formats": "Multiple Formats",
}

var maintenanceLabels = map[string]string{
	"basic":    "Basic Maintenance Package",
	"standard": "Standard Maintenance Package",
}

var durationLabels = map[string]string{
	"medium":   "Medium Duration (1-3 minutes)",
	"long":     "Long Duration (3-5 minutes)",
	"extended": "Extended Duration (5+ minutes)",
}

// Web prices a web development project.
func Web(cat catalog.Catalog, req WebRequest) (Estimate, error) {
	basePrice, ok := cat.WebBaseRates[req.SiteType]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: site type %q", ErrUnknownVariant, req.SiteType)
	}

	profileMultiplier, ok := cat.ClientMultipliers[req.ClientProfile]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: client profile %q", ErrUnknownVariant, req.ClientProfile)
	}

	breakdown := []Line{{
		Label:  "Base Price (" + labelFor(siteTypeLabels, req.SiteType) + ")",
		Amount: basePrice,
	}}

	// Landing pages are single-page by definition; every other site type
	// includes a page allowance, with extra pages billed per unit.
	pagePrice := 0.0
	if req.SiteType != "landing" {
		included := includedPages(req.SiteType)
		if req.Pages > included {
			extra := req.Pages - included
			pagePrice = float64(extra) * extraPageRate
			breakdown = append(breakdown, Line{
				Label:  fmt.Sprintf("Additional Pages (%d)", extra),
				Amount: pagePrice,
			})
		}
	}

	backendPrice := 0.0
	switch req.BackendComplexity {
	case "basic":
		backendPrice = 2000
		breakdown = append(breakdown, Line{Label: "Basic Backend Integration", Amount: backendPrice})
	case "medium":
		backendPrice = 5000
		breakdown = append(breakdown, Line{Label: "Medium Backend Integration", Amount: backendPrice})
	case "complex":
		backendPrice = 10000
		breakdown = append(breakdown, Line{Label: "Complex Backend Integration", Amount: backendPrice})
	}

	featuresPrice, featureLines := priceFeatures(cat.WebFeatureCosts, cat.WebFeatureKeys(), req.Features)
	breakdown = append(breakdown, featureLines...)

	subtotal := basePrice + pagePrice + backendPrice + featuresPrice

	// Web display deltas reference the full additive subtotal.
	complexityMultiplier := 1.0
	switch req.Complexity {
	case "simple":
		complexityMultiplier = 0.8
		breakdown = append(breakdown, percentLine("Simple Design/Complexity Discount", complexityMultiplier, subtotal))
	case "complex":
		complexityMultiplier = 1.3
		breakdown = append(breakdown, percentLine("Complex Design/Functionality Premium", complexityMultiplier, subtotal))
	}

	timelineMultiplier := 1.0
	switch req.Timeline {
	case "rush":
		timelineMultiplier = 1.2
		breakdown = append(breakdown, percentLine("Rush Delivery (1-2 weeks)", timelineMultiplier, subtotal))
	case "urgent":
		timelineMultiplier = 1.35
		breakdown = append(breakdown, percentLine("Urgent Delivery (Less than 1 week)", timelineMultiplier, subtotal))
	}

	monthly := 0.0
	if req.Maintenance != "" && req.Maintenance != "none" {
		cost, ok := cat.MaintenanceCosts[req.Maintenance]
		if !ok {
			return Estimate{}, fmt.Errorf("%w: maintenance package %q", ErrUnknownVariant, req.Maintenance)
		}
		monthly = cost
		breakdown = append(breakdown, Line{
			Label:   labelFor(maintenanceLabels, req.Maintenance),
			Amount:  cost,
			Monthly: true,
		})
	}

	if req.ClientProfile != "standard" {
		breakdown = append(breakdown, clientProfileLine(req.ClientProfile, profileMultiplier))
	}

	total := math.Round(subtotal * complexityMultiplier * timelineMultiplier * profileMultiplier)

	return Estimate{
		Breakdown:          breakdown,
		Subtotal:           subtotal,
		Total:              total,
		MonthlyMaintenance: monthly,
	}, nil
}

// Design prices a design project.
func Design(cat catalog.Catalog, req DesignRequest) (Estimate, error) {
	basePrice, ok := cat.DesignBaseRates[req.DesignType]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: design type %q", ErrUnknownVariant, req.DesignType)
	}

	profileMultiplier, ok := cat.ClientMultipliers[req.ClientProfile]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: client profile %q", ErrUnknownVariant, req.ClientProfile)
	}

	breakdown := []Line{{
		Label:  "Base Price (" + labelFor(designTypeLabels, req.DesignType) + ")",
		Amount: basePrice,
	}}

	featuresPrice, featureLines := priceFeatures(cat.DesignFeatureCosts, cat.DesignFeatureKeys(), req.Features)
	breakdown = append(breakdown, featureLines...)

	// Design and video display deltas reference the base price only.
	complexityMultiplier := 1.0
	switch req.Complexity {
	case "basic":
		complexityMultiplier = 0.8
		breakdown = append(breakdown, percentLine("Simple Design/Complexity Discount", complexityMultiplier, basePrice))
	case "premium":
		complexityMultiplier = 1.5
		breakdown = append(breakdown, percentLine("Premium Design Complexity", complexityMultiplier, basePrice))
	}

	revisionMultiplier := 1.0
	if req.Revisions == "unlimited" {
		revisionMultiplier = 1.3
		breakdown = append(breakdown, percentLine("Unlimited Revisions", revisionMultiplier, basePrice))
	}

	timelineMultiplier := 1.0
	switch req.Timeline {
	case "rush":
		timelineMultiplier = 1.2
		breakdown = append(breakdown, percentLine("Rush Delivery (2-4 days)", timelineMultiplier, basePrice))
	case "urgent":
		timelineMultiplier = 1.35
		breakdown = append(breakdown, percentLine("Urgent Delivery (24-48 hours)", timelineMultiplier, basePrice))
	}

	aiDiscount := 0.0
	switch req.AIAssisted {
	case "partial":
		aiDiscount = 0.15
		breakdown = append(breakdown, percentLine("Partial AI Assistance Discount", 1-aiDiscount, basePrice))
	case "heavy":
		aiDiscount = 0.3
		breakdown = append(breakdown, percentLine("Heavy AI Assistance Discount", 1-aiDiscount, basePrice))
	}

	if req.ClientProfile != "standard" {
		breakdown = append(breakdown, clientProfileLine(req.ClientProfile, profileMultiplier))
	}

	subtotal := basePrice + featuresPrice
	total := math.Round(subtotal * complexityMultiplier * revisionMultiplier * timelineMultiplier * (1 - aiDiscount) * profileMultiplier)

	return Estimate{Breakdown: breakdown, Subtotal: subtotal, Total: total}, nil
}

// Video prices a video production project.
func Video(cat catalog.Catalog, req VideoRequest) (Estimate, error) {
	basePrice, ok := cat.VideoBaseRates[req.VideoType]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: video type %q", ErrUnknownVariant, req.VideoType)
	}

	durationMultiplier, ok := cat.VideoDurationMultipliers[req.Duration]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: video duration %q", ErrUnknownVariant, req.Duration)
	}

	profileMultiplier, ok := cat.ClientMultipliers[req.ClientProfile]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: client profile %q", ErrUnknownVariant, req.ClientProfile)
	}

	breakdown := []Line{{
		Label:  "Base Price (" + labelFor(videoTypeLabels, req.VideoType) + ")",
		Amount: basePrice,
	}}

	featuresPrice, featureLines := priceFeatures(cat.VideoFeatureCosts, cat.VideoFeatureKeys(), req.Features)
	breakdown = append(breakdown, featureLines...)

	complexityMultiplier := 1.0
	switch req.Complexity {
	case "basic":
		complexityMultiplier = 0.8
		breakdown = append(breakdown, percentLine("Simple Design/Complexity Discount", complexityMultiplier, basePrice))
	case "premium":
		complexityMultiplier = 1.5
		breakdown = append(breakdown, percentLine("Premium Production Complexity", complexityMultiplier, basePrice))
	}

	revisionMultiplier := 1.0
	if req.Revisions == "unlimited" {
		revisionMultiplier = 1.4
		breakdown = append(breakdown, percentLine("Unlimited Revisions", revisionMultiplier, basePrice))
	}

	timelineMultiplier := 1.0
	switch req.Timeline {
	case "rush":
		timelineMultiplier = 1.25
		breakdown = append(breakdown, percentLine("Rush Delivery (3-5 days)", timelineMultiplier, basePrice))
	case "urgent":
		timelineMultiplier = 1.5
		breakdown = append(breakdown, percentLine("Urgent Delivery (1-2 days)", timelineMultiplier, basePrice))
	}

	if req.Duration != "short" {
		breakdown = append(breakdown, percentLine(labelFor(durationLabels, req.Duration), durationMultiplier, basePrice))
	}

	if req.ClientProfile != "standard" {
		breakdown = append(breakdown, clientProfileLine(req.ClientProfile, profileMultiplier))
	}

	subtotal := basePrice + featuresPrice
	total := math.Round(subtotal * durationMultiplier * complexityMultiplier * timelineMultiplier * revisionMultiplier * profileMultiplier)

	return Estimate{Breakdown: breakdown, Subtotal: subtotal, Total: total}, nil
}

// priceFeatures sums the requested feature flags that exist in the cost
// table, in the catalog's display order. Requested flags unknown to the
// catalog are ignored.
func priceFeatures(costs map[string]float64, order []string, requested []string) (float64, []Line) {
	selected := make(map[string]bool, len(requested))
	for _, f := range requested {
		selected[f] = true
	}

	var total float64
	var lines []Line
	for _, key := range order {
		if !selected[key] {
			continue
		}
		cost := costs[key]
		total += cost
		lines = append(lines, Line{Label: labelFor(featureLabels, key), Amount: cost})
	}

	return total, lines
}

func percentLine(label string, multiplier, reference float64) Line {
	return Line{
		Label:   label,
		Percent: math.Round((multiplier - 1) * 100),
		Delta:   math.Round(reference * (multiplier - 1)),
	}
}

func clientProfileLine(profile string, multiplier float64) Line {
	labels := map[string]string{
		"startup":    "Startup/Small Business Discount",
		"corporate":  "Corporate Client Premium",
		"enterprise": "Enterprise Client Premium",
	}
	label, ok := labels[profile]
	if !ok {
		label = capitalize(profile) + " Client Adjustment"
	}
	return Line{Label: label, Percent: math.Round((multiplier - 1) * 100)}
}

func includedPages(siteType string) int {
	switch siteType {
	case "business":
		return 3
	case "advanced":
		return 6
	default:
		return 5
	}
}

func labelFor(labels map[string]string, key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return capitalize(key)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
