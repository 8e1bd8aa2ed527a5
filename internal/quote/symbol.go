package quote

import "strings"

// Each source spells index and share-class symbols differently.
// The pipeline always works with the canonical (Yahoo-style) symbol, e.g. ^GSPC, BRK-B.

var yahooAliases = map[string]string{
	"SPX":    "^GSPC",
	"SP500":  "^GSPC",
	"SPX500": "^GSPC",
}

// YahooSymbol maps a canonical symbol to the Yahoo chart API form.
func YahooSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := yahooAliases[s]; ok {
		return mapped
	}
	// 클래스 주식: BRK.B → BRK-B
	return strings.ReplaceAll(s, ".", "-")
}

var stooqIndices = map[string]string{
	"^GSPC": "^spx",
	"^DJI":  "^dji",
	"^IXIC": "^ndq",
	"^NDX":  "^ndx",
}

// StooqSymbol maps a canonical symbol to Stooq's form: lower case, US market suffix.
func StooqSymbol(symbol string) string {
	s := YahooSymbol(symbol)
	if mapped, ok := stooqIndices[s]; ok {
		return mapped
	}
	if strings.HasPrefix(s, "^") {
		return strings.ToLower(s)
	}
	s = strings.ToLower(strings.ReplaceAll(s, "-", "."))
	if !strings.HasSuffix(s, ".us") {
		s += ".us"
	}
	return s
}

// HTMLSymbol maps a canonical symbol to the historical-table page form,
// where a leading caret is written as a dash.
func HTMLSymbol(symbol string) string {
	return strings.ReplaceAll(YahooSymbol(symbol), "^", "-")
}
