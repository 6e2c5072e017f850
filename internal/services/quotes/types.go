package quotes

// Suggestion is one entry from the origin's autocomplete endpoint. The feed
// is loosely typed; only the fields we match on are declared.
type Suggestion struct {
	DisplayName string `json:"pdt_dis_nm"`
	ScID        string `json:"sc_id"`
	StockName   string `json:"stock_name"`
	Symbol      string `json:"symbol"`
}

// Name returns the best display name the suggestion carries.
func (s Suggestion) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	if s.StockName != "" {
		return s.StockName
	}
	return s.Symbol
}
