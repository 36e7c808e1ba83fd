package writer

import (
	"encoding/json"

	"github.com/rickgao/kalshi-collector/internal/model"
)

type jsonPriceLevel struct {
	Price int `json:"price"`
	Size  int `json:"size"`
}

// priceLevelsToJSONB renders a side of an orderbook snapshot as JSONB.
func priceLevelsToJSONB(levels []model.PriceLevel) []byte {
	out := make([]jsonPriceLevel, len(levels))
	for i, l := range levels {
		out[i] = jsonPriceLevel{Price: l.Price, Size: l.Size}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return []byte("[]")
	}
	return b
}

// metadataToJSONB renders a free-form string map as JSONB.
func metadataToJSONB(m map[string]string) []byte {
	if len(m) == 0 {
		return []byte("{}")
	}
	b, err := json.Marshal(m)
	if err != nil {
		return []byte("{}")
	}
	return b
}

// nz returns nil for a zero int64 and the value otherwise, for use as a
// COALESCE-friendly NULL placeholder in upsert statements.
func nz(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

// nzs returns nil for an empty string and the value otherwise.
func nzs(v string) any {
	if v == "" {
		return nil
	}
	return v
}
