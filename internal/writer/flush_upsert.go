package writer

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/kalshi-collector/internal/model"
)

// Merge-upsert tables: settlements, markets, events, series. Each has at
// most one row per key; a re-arriving enrichment result should fill in
// newly-known fields without clobbering what's already there, so every
// data column is written as COALESCE(NULLIF(new, zero-value), existing);
// updated_at always takes the new value.

func (w *Writer) flushSettlements(ctx context.Context) {
	w.mu.Lock()
	if len(w.settlements) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.settlements
	w.settlements = nil
	w.mu.Unlock()

	if err := w.upsertSettlements(ctx, batch); err != nil {
		w.recordError("settlements", err)
		w.mu.Lock()
		w.settlements = append(batch, w.settlements...)
		w.mu.Unlock()
		return
	}
	w.recordSuccess("settlements", len(batch))
}

func (w *Writer) upsertSettlements(ctx context.Context, rows []model.Settlement) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO settlements (ticker, event_ticker, result, settlement_value, determined_at, settled_at, source, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (ticker) DO UPDATE SET
				event_ticker = COALESCE(NULLIF(EXCLUDED.event_ticker, ''), settlements.event_ticker),
				result = COALESCE(NULLIF(EXCLUDED.result, ''), settlements.result),
				settlement_value = COALESCE(NULLIF(EXCLUDED.settlement_value, 0), settlements.settlement_value),
				determined_at = COALESCE(NULLIF(EXCLUDED.determined_at, 0), settlements.determined_at),
				settled_at = COALESCE(NULLIF(EXCLUDED.settled_at, 0), settlements.settled_at),
				source = COALESCE(NULLIF(EXCLUDED.source, ''), settlements.source),
				metadata = COALESCE(NULLIF(EXCLUDED.metadata, '{}'::jsonb), settlements.metadata)
		`, r.Ticker, nzs(r.EventTicker), nzs(r.Result), nz(r.SettlementValue), nz(r.DeterminedAt), nz(r.SettledAt), nzs(r.Source), metadataToJSONB(r.Metadata))
	}
	return execBatch(ctx, w.db, b, len(rows))
}

func (w *Writer) flushMarketUpdates(ctx context.Context) {
	w.mu.Lock()
	if len(w.marketUpdates) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.marketUpdates
	w.marketUpdates = nil
	w.mu.Unlock()

	if err := w.upsertMarkets(ctx, batch); err != nil {
		w.recordError("markets", err)
		w.mu.Lock()
		w.marketUpdates = append(batch, w.marketUpdates...)
		w.mu.Unlock()
		return
	}
	w.recordSuccess("markets", len(batch))
}

func (w *Writer) upsertMarkets(ctx context.Context, rows []model.Market) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO markets (
				ticker, event_ticker, series_ticker, title, subtitle, market_status, trading_status,
				market_type, result, yes_bid, yes_ask, last_price, volume, volume_24h, open_interest,
				open_ts, close_ts, expiration_ts, created_ts, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			ON CONFLICT (ticker) DO UPDATE SET
				event_ticker = COALESCE(NULLIF(EXCLUDED.event_ticker, ''), markets.event_ticker),
				series_ticker = COALESCE(NULLIF(EXCLUDED.series_ticker, ''), markets.series_ticker),
				title = COALESCE(NULLIF(EXCLUDED.title, ''), markets.title),
				subtitle = COALESCE(NULLIF(EXCLUDED.subtitle, ''), markets.subtitle),
				market_status = COALESCE(NULLIF(EXCLUDED.market_status, ''), markets.market_status),
				trading_status = COALESCE(NULLIF(EXCLUDED.trading_status, ''), markets.trading_status),
				market_type = COALESCE(NULLIF(EXCLUDED.market_type, ''), markets.market_type),
				result = COALESCE(NULLIF(EXCLUDED.result, ''), markets.result),
				yes_bid = COALESCE(NULLIF(EXCLUDED.yes_bid, 0), markets.yes_bid),
				yes_ask = COALESCE(NULLIF(EXCLUDED.yes_ask, 0), markets.yes_ask),
				last_price = COALESCE(NULLIF(EXCLUDED.last_price, 0), markets.last_price),
				volume = COALESCE(NULLIF(EXCLUDED.volume, 0), markets.volume),
				volume_24h = COALESCE(NULLIF(EXCLUDED.volume_24h, 0), markets.volume_24h),
				open_interest = COALESCE(NULLIF(EXCLUDED.open_interest, 0), markets.open_interest),
				open_ts = COALESCE(NULLIF(EXCLUDED.open_ts, 0), markets.open_ts),
				close_ts = COALESCE(NULLIF(EXCLUDED.close_ts, 0), markets.close_ts),
				expiration_ts = COALESCE(NULLIF(EXCLUDED.expiration_ts, 0), markets.expiration_ts),
				updated_at = EXCLUDED.updated_at
		`, r.Ticker, nzs(r.EventTicker), nzs(r.SeriesTicker), nzs(r.Title), nzs(r.Subtitle),
			nzs(r.MarketStatus), nzs(r.TradingStatus), nzs(r.MarketType), nzs(r.Result),
			nz(int64(r.YesBid)), nz(int64(r.YesAsk)), nz(int64(r.LastPrice)),
			nz(r.Volume), nz(r.Volume24h), nz(r.OpenInterest),
			nz(r.OpenTS), nz(r.CloseTS), nz(r.ExpirationTS), r.CreatedTS, r.UpdatedAt)
	}
	return execBatch(ctx, w.db, b, len(rows))
}

func (w *Writer) flushEvents(ctx context.Context) {
	w.mu.Lock()
	if len(w.events) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.events
	w.events = nil
	w.mu.Unlock()

	if err := w.upsertEvents(ctx, batch); err != nil {
		w.recordError("events", err)
		w.mu.Lock()
		w.events = append(batch, w.events...)
		w.mu.Unlock()
		return
	}
	w.recordSuccess("events", len(batch))
}

func (w *Writer) upsertEvents(ctx context.Context, rows []model.Event) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO events (event_ticker, series_ticker, title, category, sub_title, created_ts, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (event_ticker) DO UPDATE SET
				series_ticker = COALESCE(NULLIF(EXCLUDED.series_ticker, ''), events.series_ticker),
				title = COALESCE(NULLIF(EXCLUDED.title, ''), events.title),
				category = COALESCE(NULLIF(EXCLUDED.category, ''), events.category),
				sub_title = COALESCE(NULLIF(EXCLUDED.sub_title, ''), events.sub_title),
				updated_at = EXCLUDED.updated_at
		`, r.EventTicker, nzs(r.SeriesTicker), nzs(r.Title), nzs(r.Category), nzs(r.SubTitle), r.CreatedTS, r.UpdatedAt)
	}
	return execBatch(ctx, w.db, b, len(rows))
}

func (w *Writer) flushSeries(ctx context.Context) {
	w.mu.Lock()
	if len(w.series) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.series
	w.series = nil
	w.mu.Unlock()

	if err := w.upsertSeries(ctx, batch); err != nil {
		w.recordError("series", err)
		w.mu.Lock()
		w.series = append(batch, w.series...)
		w.mu.Unlock()
		return
	}
	w.recordSuccess("series", len(batch))
}

func (w *Writer) upsertSeries(ctx context.Context, rows []model.Series) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO series (ticker, title, category, frequency, tags, settlement_sources, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ticker) DO UPDATE SET
				title = COALESCE(NULLIF(EXCLUDED.title, ''), series.title),
				category = COALESCE(NULLIF(EXCLUDED.category, ''), series.category),
				frequency = COALESCE(NULLIF(EXCLUDED.frequency, ''), series.frequency),
				tags = COALESCE(NULLIF(EXCLUDED.tags, '{}'::jsonb), series.tags),
				settlement_sources = COALESCE(EXCLUDED.settlement_sources, series.settlement_sources),
				updated_at = EXCLUDED.updated_at
		`, r.Ticker, nzs(r.Title), nzs(r.Category), nzs(r.Frequency), metadataToJSONB(r.Tags), r.SettlementSources, r.UpdatedAt)
	}
	return execBatch(ctx, w.db, b, len(rows))
}
