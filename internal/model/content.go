package model

// FeatureItem is one entry of the features section. Order is display order.
type FeatureItem struct {
	Icon        string `json:"icon"` // Emoji or SVG markup
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PricingTier is one pricing plan. Price is a display string, not a number.
type PricingTier struct {
	Name       string   `json:"name"`
	Price      string   `json:"price"`
	Features   []string `json:"features"`
	IsFeatured bool     `json:"isFeatured"`
}

// FAQItem is a single question/answer pair.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// HeroSection is the top banner of the homepage.
type HeroSection struct {
	Title        string `json:"title"`
	SubtitleHTML string `json:"subtitle"`
	CTALabel     string `json:"cta"`
}

// FeaturesSection lists the selling points of the site.
type FeaturesSection struct {
	Title        string        `json:"title"`
	SubtitleHTML string        `json:"subtitle"`
	Items        []FeatureItem `json:"items"`
}

// ProductsSection holds the heading shown above the product catalog.
type ProductsSection struct {
	Title        string `json:"title"`
	SubtitleHTML string `json:"subtitle"`
}

// PricingSection holds the pricing tiers. More than one tier may be featured.
type PricingSection struct {
	Title        string        `json:"title"`
	SubtitleHTML string        `json:"subtitle"`
	Tiers        []PricingTier `json:"tiers"`
}

// FAQSection holds the frequently asked questions.
type FAQSection struct {
	Title string    `json:"title"`
	Items []FAQItem `json:"items"`
}

// CTASection is the closing call to action.
type CTASection struct {
	Title        string `json:"title"`
	SubtitleHTML string `json:"subtitle"`
	ButtonLabel  string `json:"buttonText"`
}

// SiteContent is the singleton record holding every editable homepage section.
// It is always replaced as a whole, never partially persisted.
type SiteContent struct {
	Hero     HeroSection     `json:"hero"`
	Features FeaturesSection `json:"features"`
	Products ProductsSection `json:"products"`
	Pricing  PricingSection  `json:"pricing"`
	FAQ      FAQSection      `json:"faq"`
	CTA      CTASection      `json:"cta"`
}

// Clone returns a deep copy of the content. The copy shares no slices with c.
func (c SiteContent) Clone() SiteContent {
	out := c
	if c.Features.Items != nil {
		out.Features.Items = make([]FeatureItem, len(c.Features.Items))
		copy(out.Features.Items, c.Features.Items)
	}
	if c.Pricing.Tiers != nil {
		out.Pricing.Tiers = make([]PricingTier, len(c.Pricing.Tiers))
		for i, tier := range c.Pricing.Tiers {
			out.Pricing.Tiers[i] = tier.Clone()
		}
	}
	if c.FAQ.Items != nil {
		out.FAQ.Items = make([]FAQItem, len(c.FAQ.Items))
		copy(out.FAQ.Items, c.FAQ.Items)
	}
	return out
}

// Clone returns a copy of the tier with its own features slice.
func (t PricingTier) Clone() PricingTier {
	out := t
	if t.Features != nil {
		out.Features = make([]string, len(t.Features))
		copy(out.Features, t.Features)
	}
	return out
}

// FeaturedTiers returns the indexes of every tier marked as featured.
func (p PricingSection) FeaturedTiers() []int {
	var idx []int
	for i, tier := range p.Tiers {
		if tier.IsFeatured {
			idx = append(idx, i)
		}
	}
	return idx
}
