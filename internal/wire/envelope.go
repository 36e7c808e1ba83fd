// Package wire defines the JSON envelope exchanged over the streaming
// protocol: inbound frames, outbound commands, and the per-type payloads
// carried in a frame's msg field.
package wire

import "encoding/json"

// Frame type discriminants. Values exactly match the exchange's wire
// protocol; anything else is logged and ignored by the dispatcher.
const (
	TypeOrderbookSnapshot = "orderbook_snapshot"
	TypeOrderbookDelta    = "orderbook_delta"
	TypeTrade             = "trade"
	TypeLifecycleV2       = "market_lifecycle_v2"
	TypeLifecycle         = "market_lifecycle"
	TypeSubscribed        = "subscribed"
	TypeUnsubscribed      = "unsubscribed"
	TypeError             = "error"
)

// Channels the collector subscribes to.
const (
	ChannelLifecycle = "market_lifecycle_v2"
	ChannelTrade     = "trade"
	ChannelOrderbook = "orderbook_delta"
)

// Envelope is the common shape of every inbound frame:
// { "type": ..., "sid": ..., "seq": ..., "msg": { ... } }
type Envelope struct {
	Type string          `json:"type"`
	SID  int64           `json:"sid"`
	Seq  int64           `json:"seq"`
	Msg  json.RawMessage `json:"msg"`
}

// PeekType extracts just the type field, for fast dispatch without
// unmarshaling the full envelope twice.
func PeekType(data []byte) (string, error) {
	var e struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return "", err
	}
	return e.Type, nil
}

// Command is an outbound subscribe/unsubscribe request.
// { "id": <monotonic int>, "cmd": "subscribe"|"unsubscribe", "params": {...} }
type Command struct {
	ID     int64         `json:"id"`
	Cmd    string        `json:"cmd"`
	Params CommandParams `json:"params"`
}

// CommandParams carries the channel list and, for orderbook_delta, the
// ticker filter. Channels not scoped to a ticker (lifecycle, trade) omit
// MarketTickers.
type CommandParams struct {
	Channels      []string `json:"channels"`
	MarketTickers []string `json:"market_tickers,omitempty"`
}

const (
	CmdSubscribe   = "subscribe"
	CmdUnsubscribe = "unsubscribe"
)
