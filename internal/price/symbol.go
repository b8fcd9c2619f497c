package price

import "strings"

// SymbolResolver maps a stored ticker to the identifier the oracle understands.
// Overrides win over the suffix rule, e.g. NIFTY -> ^NSEI.
type SymbolResolver struct {
	Suffix    string
	Overrides map[string]string
}

// NewSymbolResolver normalizes override keys to upper case.
func NewSymbolResolver(suffix string, overrides map[string]string) SymbolResolver {
	normalized := make(map[string]string, len(overrides))
	for k, v := range overrides {
		normalized[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return SymbolResolver{Suffix: suffix, Overrides: normalized}
}

// Resolve returns the market symbol for ticker.
func (r SymbolResolver) Resolve(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if mapped, ok := r.Overrides[ticker]; ok && mapped != "" {
		return mapped
	}
	if r.Suffix == "" || strings.HasSuffix(ticker, strings.ToUpper(r.Suffix)) {
		return ticker
	}
	return ticker + strings.ToUpper(r.Suffix)
}
