package sidechannel

import (
	"time"

	"github.com/rickgao/kalshi-collector/internal/model"
)

// centsToInternal converts a price in cents to the hundred-thousandths
// representation used throughout the rest of the system.
func centsToInternal(cents int) int {
	return cents * 1000
}

// ToOrderbookSnapshot converts a REST orderbook response into a
// model.OrderbookSnapshot tagged with the given source, for the Snapshot
// Poller. REST orderbook responses carry no exchange sequence number or
// exchange timestamp, so Seq and ExchangeTS are left at zero.
func (o *OrderbookResponse) ToOrderbookSnapshot(ticker, source string) model.OrderbookSnapshot {
	yesBids := make([]model.PriceLevel, 0, len(o.Orderbook.Yes))
	for _, level := range o.Orderbook.Yes {
		if len(level) >= 2 {
			yesBids = append(yesBids, model.PriceLevel{Price: centsToInternal(level[0]), Size: level[1]})
		}
	}

	noBids := make([]model.PriceLevel, 0, len(o.Orderbook.No))
	for _, level := range o.Orderbook.No {
		if len(level) >= 2 {
			noBids = append(noBids, model.PriceLevel{Price: centsToInternal(level[0]), Size: level[1]})
		}
	}

	var bestYesBid, bestYesAsk int
	if len(yesBids) > 0 {
		bestYesBid = yesBids[0].Price
	}
	if len(noBids) > 0 {
		bestYesAsk = 100000 - noBids[0].Price
	}

	spread := 0
	if bestYesBid > 0 && bestYesAsk > 0 {
		spread = bestYesAsk - bestYesBid
	}

	return model.OrderbookSnapshot{
		SnapshotTS: time.Now().UnixMicro(),
		Ticker:     ticker,
		Source:     source,
		YesBids:    yesBids,
		NoBids:     noBids,
		BestYesBid: bestYesBid,
		BestYesAsk: bestYesAsk,
		Spread:     spread,
	}
}
