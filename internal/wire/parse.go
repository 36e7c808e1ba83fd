package wire

import (
	"encoding/json"
	"fmt"
)

// ParseSnapshot decodes an envelope's msg field as a SnapshotPayload.
func (e Envelope) ParseSnapshot() (SnapshotPayload, error) {
	var p SnapshotPayload
	if err := json.Unmarshal(e.Msg, &p); err != nil {
		return p, fmt.Errorf("parse snapshot msg: %w", err)
	}
	return p, nil
}

// ParseDelta decodes an envelope's msg field as a DeltaPayload.
func (e Envelope) ParseDelta() (DeltaPayload, error) {
	var p DeltaPayload
	if err := json.Unmarshal(e.Msg, &p); err != nil {
		return p, fmt.Errorf("parse delta msg: %w", err)
	}
	return p, nil
}

// ParseTrade decodes an envelope's msg field as a TradePayload.
func (e Envelope) ParseTrade() (TradePayload, error) {
	var p TradePayload
	if err := json.Unmarshal(e.Msg, &p); err != nil {
		return p, fmt.Errorf("parse trade msg: %w", err)
	}
	return p, nil
}

// ParseLifecycle decodes an envelope's msg field as a LifecyclePayload.
func (e Envelope) ParseLifecycle() (LifecyclePayload, error) {
	var p LifecyclePayload
	if err := json.Unmarshal(e.Msg, &p); err != nil {
		return p, fmt.Errorf("parse lifecycle msg: %w", err)
	}
	return p, nil
}

// ParseSubscribed decodes an envelope's msg field as a SubscribedPayload.
func (e Envelope) ParseSubscribed() (SubscribedPayload, error) {
	var p SubscribedPayload
	if err := json.Unmarshal(e.Msg, &p); err != nil {
		return p, fmt.Errorf("parse subscribed msg: %w", err)
	}
	return p, nil
}

// ParseUnsubscribed decodes an envelope's msg field as an UnsubscribedPayload.
func (e Envelope) ParseUnsubscribed() (UnsubscribedPayload, error) {
	var p UnsubscribedPayload
	if err := json.Unmarshal(e.Msg, &p); err != nil {
		return p, fmt.Errorf("parse unsubscribed msg: %w", err)
	}
	return p, nil
}

// ParseError decodes an envelope's msg field as an ErrorPayload.
func (e Envelope) ParseError() (ErrorPayload, error) {
	var p ErrorPayload
	if err := json.Unmarshal(e.Msg, &p); err != nil {
		return p, fmt.Errorf("parse error msg: %w", err)
	}
	return p, nil
}

// Decode unmarshals raw bytes into an Envelope.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("decode envelope: %w", err)
	}
	return e, nil
}
