package model

import "github.com/google/uuid"

// -----------------------------------------------------------------------------
// Relational types
// -----------------------------------------------------------------------------

// Series represents a collection of related events (e.g., "US Presidential Election").
type Series struct {
	Ticker            string            // Primary key
	Title             string            // Display title
	Category          string            // Category (e.g., "Politics")
	Frequency         string            // Update frequency
	Tags              map[string]string // Arbitrary tags
	SettlementSources []string          // Data sources for settlement
	UpdatedAt         int64             // Last update (µs since epoch)
}

// Event represents a specific event within a series.
type Event struct {
	EventTicker  string // Primary key
	SeriesTicker string // Foreign key to Series
	Title        string // Display title
	Category     string // Category
	SubTitle     string // Optional subtitle
	CreatedTS    int64  // Creation time (µs since epoch)
	UpdatedAt    int64  // Last update (µs since epoch)
}

// Market represents a tradeable prediction market. Created on first lifecycle
// event, updated on every subsequent one, never deleted. At most one row per
// ticker.
type Market struct {
	Ticker        string // Primary key
	EventTicker   string // Foreign key to Event, may be empty
	SeriesTicker  string // Denormalized foreign key to Series, may be empty
	Title         string
	Subtitle      string
	MarketStatus  string // initialized, inactive, active, closed, determined, disputed, amended, finalized
	TradingStatus string
	MarketType    string // "binary" or "scalar"
	Result        string // settlement result: yes/no/empty

	YesBid    int // hundred-thousandths, 0-100,000
	YesAsk    int
	LastPrice int

	Volume       int64
	Volume24h    int64
	OpenInterest int64

	OpenTS       int64 // µs since epoch
	CloseTS      int64
	ExpirationTS int64
	CreatedTS    int64
	UpdatedAt    int64
}

// Settlement holds the final result of a market. One row per ticker, merged
// with COALESCE(new, old) on upsert so a partial enrichment never clobbers a
// previously known field with null.
type Settlement struct {
	Ticker          string
	EventTicker     string
	Result          string // yes/no/empty
	SettlementValue int64  // hundred-thousandths, payout per contract
	DeterminedAt    int64  // µs since epoch, 0 if not yet determined
	SettledAt       int64  // µs since epoch, 0 if not yet settled
	Source          string // e.g. "side_channel"
	Metadata        map[string]string
}

// -----------------------------------------------------------------------------
// Time-series types
// -----------------------------------------------------------------------------

// Trade represents an executed trade. Partitioned by day of ExchangeTS.
type Trade struct {
	TradeID    uuid.UUID // exchange-unique
	ExchangeTS int64     // µs since epoch
	ReceivedAt int64     // µs since epoch
	Ticker     string
	Price      int // hundred-thousandths, YES price
	NoPrice    int // hundred-thousandths, NO price (100,000 - Price when binary)
	Size       int // contract count
	TakerSide  bool // true = YES taker, false = NO taker
}

// OrderbookDelta represents a signed change to a single price level. Between
// two consecutive snapshots for the same (Ticker, SID), Seq values form a
// contiguous ascending range.
type OrderbookDelta struct {
	ExchangeTS int64 // µs since epoch
	ReceivedAt int64 // µs since epoch
	Ticker     string
	Side       bool  // true = YES, false = NO
	Price      int   // hundred-thousandths
	SizeDelta  int   // signed
	Seq        int64 // per-subscription sequence number
	SID        int64 // subscription identifier in effect when the delta arrived
}

// PriceLevel represents a single price level in an orderbook.
type PriceLevel struct {
	Price int // hundred-thousandths
	Size  int // quantity at this price, >= 0
}

// OrderbookSnapshot represents a full orderbook state at a point in time.
// Append-only, ordered by (Ticker, SnapshotTS).
type OrderbookSnapshot struct {
	SnapshotTS int64        // µs since epoch
	ExchangeTS int64        // µs since epoch, 0 if not provided by the source
	Ticker     string
	Seq        int64        // sequence number in effect at capture, 0 for REST-sourced snapshots
	Source     string       // "ws" or "rest"
	YesBids    []PriceLevel
	YesAsks    []PriceLevel
	NoBids     []PriceLevel
	NoAsks     []PriceLevel
	BestYesBid int
	BestYesAsk int
	Spread     int // BestYesAsk - BestYesBid
}

// Ticker represents a market ticker update (price/volume snapshot).
type Ticker struct {
	ExchangeTS         int64
	ReceivedAt         int64
	Ticker             string
	YesBid             int
	YesAsk             int
	LastPrice          int
	Volume             int64
	OpenInterest       int64
	DollarVolume       int64
	DollarOpenInterest int64
}

// -----------------------------------------------------------------------------
// Audit types
// -----------------------------------------------------------------------------

// SequenceGap records a detected break in sequence continuity for a
// (ticker, sid). Append-only.
type SequenceGap struct {
	Ticker      string
	DetectedAt  int64 // µs since epoch
	ExpectedSeq int64
	ReceivedSeq int64
	SID         int64
}

// SubscriptionOverflow records a ticker that could not be subscribed because
// the active subscription count was already at the configured cap.
// Append-only.
type SubscriptionOverflow struct {
	Ticker      string
	EventTicker string
	Reason      string
	DetectedAt  int64 // µs since epoch
}
