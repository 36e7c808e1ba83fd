package wire

import "encoding/json"

// PriceLevel is a single (price_cents, quantity) pair as carried on the
// wire inside yes_levels/no_levels arrays.
type PriceLevel struct {
	PriceCents int
	Quantity   int
}

// UnmarshalJSON accepts the wire's [price_cents, quantity] pair form.
func (p *PriceLevel) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	p.PriceCents = pair[0]
	p.Quantity = pair[1]
	return nil
}

// MarshalJSON emits the [price_cents, quantity] pair form.
func (p PriceLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.PriceCents, p.Quantity})
}

// SnapshotPayload is the msg payload of an orderbook_snapshot frame.
type SnapshotPayload struct {
	MarketTicker string       `json:"market_ticker"`
	YesLevels    []PriceLevel `json:"yes_levels"`
	NoLevels     []PriceLevel `json:"no_levels"`
	Ts           int64        `json:"ts"`
}

// DeltaPayload is the msg payload of an orderbook_delta frame.
type DeltaPayload struct {
	MarketTicker string `json:"market_ticker"`
	PriceCents   int    `json:"price_cents"`
	DeltaAmount  int    `json:"delta_amount"`
	Side         string `json:"side"` // "yes" or "no"
	Ts           int64  `json:"ts"`
}

// TradePayload is the msg payload of a trade frame.
type TradePayload struct {
	MarketTicker string `json:"market_ticker"`
	TradeID      string `json:"trade_id"`
	YesPrice     int    `json:"yes_price"`
	NoPrice      int    `json:"no_price"`
	Count        int    `json:"count"`
	TakerSide    string `json:"taker_side"` // "yes" or "no"
	Ts           int64  `json:"ts"`
}

// LifecyclePayload is the msg payload of a market_lifecycle(_v2) frame.
type LifecyclePayload struct {
	MarketTicker string `json:"market_ticker"`
	EventTicker  string `json:"event_ticker"`
	EventType    string `json:"event_type"` // create, activate, deactivate, determined, settled, close_date_updated
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
	Result       string `json:"result"`
	Ts           int64  `json:"ts"`
}

// Lifecycle event types. Active-inducing events grow the subscription set;
// terminal events shrink it.
const (
	LifecycleCreate           = "create"
	LifecycleActivate         = "activate"
	LifecycleDeactivate       = "deactivate"
	LifecycleDetermined       = "determined"
	LifecycleSettled          = "settled"
	LifecycleCloseDateUpdated = "close_date_updated"
)

// SubscribedPayload is the msg payload of a subscribed ack frame.
type SubscribedPayload struct {
	Channel      string `json:"channel"`
	MarketTicker string `json:"market_ticker"`
}

// UnsubscribedPayload is the msg payload of an unsubscribed ack frame.
type UnsubscribedPayload struct {
	Channel      string `json:"channel"`
	MarketTicker string `json:"market_ticker"`
}

// ErrorPayload is the msg payload of an error frame.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

// Side booleans, matching model's true=YES/false=NO convention.
func SideIsYes(side string) bool {
	return side == "yes"
}
