package types

// Product is the canonical catalog shape at the core boundary. Upstream
// payloads with divergent field names are normalized into this struct
// once, at the edge; engine logic never sees raw payloads.
type Product struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PriceCents int      `json:"price_cents"`
	Image      string   `json:"image,omitempty"`
	Category   string   `json:"category,omitempty"`
	Colors     []string `json:"colors,omitempty"`
	Sizes      []string `json:"sizes,omitempty"`
	OnSale     bool     `json:"on_sale"`
	IsNew      bool     `json:"is_new"`
}
