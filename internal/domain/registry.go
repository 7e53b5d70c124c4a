package domain

// feedSymbolTable is the single source of truth for the asset id to feed
// symbol mapping. Not every tracked asset trades on the streaming feed;
// those assets only ever receive baseline data.
var feedSymbolTable = map[string]string{
	"bitcoin":       "btcusdt",
	"ethereum":      "ethusdt",
	"solana":        "solusdt",
	"ripple":        "xrpusdt",
	"cardano":       "adausdt",
	"dogecoin":      "dogeusdt",
	"polkadot":      "dotusdt",
	"avalanche-2":   "avaxusdt",
	"chainlink":     "linkusdt",
	"matic-network": "maticusdt",
}

// assetIDTable is the reverse mapping, built once at init. If two assets
// ever claimed the same feed symbol the first one would win; the table is
// static so collisions are caught in review, not at runtime.
var assetIDTable map[string]string

func init() {
	assetIDTable = make(map[string]string, len(feedSymbolTable))
	for assetID, symbol := range feedSymbolTable {
		if _, taken := assetIDTable[symbol]; !taken {
			assetIDTable[symbol] = assetID
		}
	}
}

// SupportedAssets lists all tracked asset ids.
var SupportedAssets = []string{
	"bitcoin", "ethereum", "solana", "ripple", "cardano",
	"dogecoin", "polkadot", "avalanche-2", "chainlink", "matic-network",
}

// FeedSymbol resolves an asset id to its streaming feed symbol.
// An unknown asset simply has no live feed; that is not an error.
func FeedSymbol(assetID string) (string, bool) {
	symbol, ok := feedSymbolTable[assetID]
	return symbol, ok
}

// AssetID resolves a streaming feed symbol back to the asset id.
func AssetID(feedSymbol string) (string, bool) {
	assetID, ok := assetIDTable[feedSymbol]
	return assetID, ok
}

// IsSupported reports whether an asset id is in the tracked set.
func IsSupported(assetID string) bool {
	for _, id := range SupportedAssets {
		if id == assetID {
			return true
		}
	}
	return false
}
