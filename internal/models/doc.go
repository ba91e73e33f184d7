// Package models defines the core domain models for the coffee ledger.
//
// # Models
//
//   - Round: one settled round, the unit of the append-only history
//   - TieStrategy: how a tie for the lowest balance is broken
//   - SettlementModel: how a round's cost moves balances
//   - Standing: read-only per-person summary derived from the ledger
//
// People are identified by their display name. Prices and balances are plain
// maps from name to money.Money and do not get their own model type.
//
// # Design Principles
//
// 1. **History is immutable**: a Round is never edited once appended
// 2. **Names are keys**: the pipe character never appears in a valid name,
// so it is safe as the people delimiter in persisted history
// 3. **Closed enumerations**: tie strategies and settlement models parse
// free-form input and fall back to a documented default
package models
