package stream

import (
	"encoding/json"
	"fmt"
	"strings"

	"coinpulse/internal/domain"
)

const tickerSuffix = "@ticker"

// envelope is the combined-stream frame: the stream name identifies which
// feed symbol the payload belongs to.
type envelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// tickerPayload mirrors the feed's 24h ticker event. Fields arrive as
// strings or numbers depending on the provider; FloatField absorbs both.
type tickerPayload struct {
	LastPrice   domain.FloatField `json:"c"`
	ChangePct   domain.FloatField `json:"P"`
	ChangeAbs   domain.FloatField `json:"p"`
	BaseVolume  domain.FloatField `json:"v"`
	QuoteVolume domain.FloatField `json:"q"`
}

// parseTickerMessage decodes a combined-stream frame into the asset id it
// belongs to and the tick fields it carried. Errors mean the whole frame
// is unusable; callers drop and log, they never propagate.
func parseTickerMessage(raw []byte) (string, domain.Tick, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", domain.Tick{}, fmt.Errorf("decode envelope: %w", err)
	}

	symbol, ok := strings.CutSuffix(env.Stream, tickerSuffix)
	if !ok || symbol == "" {
		return "", domain.Tick{}, fmt.Errorf("not a ticker stream: %q", env.Stream)
	}

	assetID, ok := domain.AssetID(symbol)
	if !ok {
		return "", domain.Tick{}, fmt.Errorf("unknown feed symbol: %q", symbol)
	}

	var payload tickerPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return "", domain.Tick{}, fmt.Errorf("decode ticker payload for %s: %w", symbol, err)
	}

	tick := domain.Tick{
		Price:       payload.LastPrice,
		ChangePct:   payload.ChangePct,
		ChangeAbs:   payload.ChangeAbs,
		Volume:      payload.BaseVolume,
		QuoteVolume: payload.QuoteVolume,
	}
	if !tick.HasData() {
		return "", domain.Tick{}, fmt.Errorf("empty ticker payload for %s", symbol)
	}
	return assetID, tick, nil
}

// streamPath builds the combined-stream request path for a symbol set.
func streamPath(symbols []string) string {
	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		streams = append(streams, s+tickerSuffix)
	}
	return "/stream?streams=" + strings.Join(streams, "/")
}
