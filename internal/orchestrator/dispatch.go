package orchestrator

import (
	"time"

	"github.com/rickgao/kalshi-collector/internal/wire"
)

// handleMessage is streamclient.Config.OnMessage: it decodes one inbound
// frame and dispatches it by type. It runs on the stream client's single
// receive loop, so it must not block.
func (o *Orchestrator) handleMessage(raw []byte, receivedAt time.Time) {
	env, err := wire.Decode(raw)
	if err != nil {
		o.logger.Warn("failed to decode frame", "error", err)
		return
	}

	switch env.Type {
	case wire.TypeOrderbookSnapshot:
		p, err := env.ParseSnapshot()
		if err != nil {
			o.logger.Warn("failed to parse snapshot payload", "error", err)
			return
		}
		o.processor.HandleSnapshot(p.MarketTicker, env.SID, env.Seq, snapshotFromPayload(p, env.Seq, receivedAt))

	case wire.TypeOrderbookDelta:
		p, err := env.ParseDelta()
		if err != nil {
			o.logger.Warn("failed to parse delta payload", "error", err)
			return
		}
		o.processor.HandleDelta(p.MarketTicker, env.SID, env.Seq, deltaFromPayload(p, env.SID, env.Seq, receivedAt))

	case wire.TypeTrade:
		p, err := env.ParseTrade()
		if err != nil {
			o.logger.Warn("failed to parse trade payload", "error", err)
			return
		}
		o.processor.HandleTrade(tradeFromPayload(p, receivedAt, o.logger))

	case wire.TypeLifecycleV2, wire.TypeLifecycle:
		p, err := env.ParseLifecycle()
		if err != nil {
			o.logger.Warn("failed to parse lifecycle payload", "error", err)
			return
		}
		o.discovery.HandleLifecycle(p)

	case wire.TypeSubscribed:
		p, err := env.ParseSubscribed()
		if err != nil {
			o.logger.Warn("failed to parse subscribed payload", "error", err)
			return
		}
		if p.MarketTicker != "" {
			o.discovery.ConfirmSubscription(p.MarketTicker)
			o.processor.Track(p.MarketTicker, env.SID)
		}

	case wire.TypeUnsubscribed:
		p, err := env.ParseUnsubscribed()
		if err != nil {
			o.logger.Warn("failed to parse unsubscribed payload", "error", err)
			return
		}
		if p.MarketTicker != "" {
			o.discovery.ConfirmUnsubscription(p.MarketTicker)
			o.processor.Untrack(p.MarketTicker)
		}

	case wire.TypeError:
		p, err := env.ParseError()
		if err != nil {
			o.logger.Warn("failed to parse error payload", "error", err)
			return
		}
		o.logger.Error("exchange reported error frame", "code", p.Code, "message", p.Message)

	default:
		o.logger.Debug("ignoring unknown frame type", "type", env.Type)
	}
}
