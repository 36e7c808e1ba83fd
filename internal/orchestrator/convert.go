package orchestrator

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/kalshi-collector/internal/model"
	"github.com/rickgao/kalshi-collector/internal/sidechannel"
	"github.com/rickgao/kalshi-collector/internal/wire"
)

// centsToInternal converts a price in cents to the hundred-thousandths
// representation persisted throughout the rest of the system.
func centsToInternal(cents int) int {
	return cents * 1000
}

func levelsToModel(levels []wire.PriceLevel) []model.PriceLevel {
	out := make([]model.PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = model.PriceLevel{Price: centsToInternal(l.PriceCents), Size: l.Quantity}
	}
	return out
}

// snapshotFromPayload builds a streamed orderbook snapshot from a decoded
// wire payload. The wire format carries one level list per side (YES bids,
// NO bids); best-ask and spread are derived the same way the REST snapshot
// poller derives them, since the exchange only ever publishes bid levels.
func snapshotFromPayload(p wire.SnapshotPayload, seq int64, receivedAt time.Time) model.OrderbookSnapshot {
	yesBids := levelsToModel(p.YesLevels)
	noBids := levelsToModel(p.NoLevels)

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
		SnapshotTS: receivedAt.UnixMicro(),
		ExchangeTS: wire.NormalizeTs(p.Ts),
		Ticker:     p.MarketTicker,
		Seq:        seq,
		Source:     "ws",
		YesBids:    yesBids,
		NoBids:     noBids,
		BestYesBid: bestYesBid,
		BestYesAsk: bestYesAsk,
		Spread:     spread,
	}
}

func deltaFromPayload(p wire.DeltaPayload, sid, seq int64, receivedAt time.Time) model.OrderbookDelta {
	return model.OrderbookDelta{
		ExchangeTS: wire.NormalizeTs(p.Ts),
		ReceivedAt: receivedAt.UnixMicro(),
		Ticker:     p.MarketTicker,
		Side:       wire.SideIsYes(p.Side),
		Price:      centsToInternal(p.PriceCents),
		SizeDelta:  p.DeltaAmount,
		Seq:        seq,
		SID:        sid,
	}
}

func tradeFromPayload(p wire.TradePayload, receivedAt time.Time, logger *slog.Logger) model.Trade {
	tradeID, err := uuid.Parse(p.TradeID)
	if err != nil {
		logger.Warn("trade id not a uuid, generating a replacement", "ticker", p.MarketTicker, "trade_id", p.TradeID, "error", err)
		tradeID = uuid.New()
	}

	return model.Trade{
		TradeID:    tradeID,
		ExchangeTS: wire.NormalizeTs(p.Ts),
		ReceivedAt: receivedAt.UnixMicro(),
		Ticker:     p.MarketTicker,
		Price:      centsToInternal(p.YesPrice),
		NoPrice:    centsToInternal(p.NoPrice),
		Size:       p.Count,
		TakerSide:  wire.SideIsYes(p.TakerSide),
	}
}

func marketFromSideChannel(m sidechannel.Market) model.Market {
	return model.Market{
		Ticker:       m.Ticker,
		EventTicker:  m.EventTicker,
		SeriesTicker: m.SeriesTicker,
		Title:        m.Title,
		Subtitle:     m.Subtitle,
		MarketStatus: m.Status,
		MarketType:   m.MarketType,
		Result:       m.Result,
		YesBid:       centsToInternal(m.YesBid),
		YesAsk:       centsToInternal(m.YesAsk),
		LastPrice:    centsToInternal(m.LastPrice),
		Volume:       m.Volume,
		Volume24h:    m.Volume24h,
		OpenInterest: m.OpenInterest,
		UpdatedAt:    time.Now().UnixMicro(),
	}
}
