package domain

// Collection scopes the marketplace views to tokens issued by a known set of
// issuers and chooses the unit rates are displayed in.
type Collection struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Issuers      []string `json:"issuers"`
	RateUnit     RateUnit `json:"rate_unit"`
	RateModeOnly bool     `json:"rate_mode_only"` // floor price only considers rate-mode tokens
	HideFilters  bool     `json:"hide_filters"`
	NotifyEmail  string   `json:"-"`
}

// Includes reports whether a token from issuer belongs to the collection. A
// collection without issuers includes everything.
func (c *Collection) Includes(issuer string) bool {
	if c == nil || len(c.Issuers) == 0 {
		return true
	}
	for _, i := range c.Issuers {
		if i == issuer {
			return true
		}
	}
	return false
}
