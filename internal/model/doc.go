// Package model defines the shared data types persisted and exchanged across
// the collector.
//
// Conventions:
//   - Prices: integer hundred-thousandths (0-100,000 = $0.00-$1.00). The wire
//     protocol carries price_cents (0-100); wire and REST records are widened
//     to hundred-thousandths when they are converted into these types, before
//     they reach the Writer.
//   - Timestamps: int64 microseconds since Unix epoch.
//   - IDs: string for tickers, uuid.UUID for trade IDs.
package model
