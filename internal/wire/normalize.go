package wire

// Magnitude thresholds used to classify a raw ts value's unit. A microsecond
// Unix timestamp in this era is on the order of 1e15-1e16; milliseconds,
// 1e12-1e13; seconds, 1e9-1e10. A positive value below the seconds threshold
// is still treated as seconds; only zero and negative values map to 0.
const (
	microsecondFloor = 1_000_000_000_000_000
	millisecondFloor = 1_000_000_000_000
	secondFloor      = 1_000_000_000
)

// NormalizeTs converts a raw wire ts value of unknown unit (seconds,
// milliseconds, or microseconds) into microseconds since the Unix epoch.
// The exchange's wire format has varied historically on this field, so this
// repo detects magnitude rather than assuming a fixed unit the way a single
// `ts * 1_000_000` conversion would.
func NormalizeTs(raw int64) int64 {
	switch {
	case raw <= 0:
		return 0
	case raw >= microsecondFloor:
		return raw
	case raw >= millisecondFloor:
		return raw * 1_000
	case raw >= secondFloor:
		return raw * 1_000_000
	default:
		// Below the seconds floor for the current era; assume seconds,
		// the coarsest unit the protocol uses.
		return raw * 1_000_000
	}
}
