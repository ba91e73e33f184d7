package sqlite

import "database/sql"

// schema sets up the ledger tables. It runs on startup to ensure tables exist.
// Amounts are TEXT with two decimals so they never pass through REAL.
const schema = `
CREATE TABLE IF NOT EXISTS prices (
    name TEXT PRIMARY KEY,
    price TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS balances (
    name TEXT PRIMARY KEY,
    balance TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rounds (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    timestamp TEXT NOT NULL,
    payer TEXT NOT NULL,
    total_cost TEXT NOT NULL,
    people TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rounds_payer ON rounds(payer);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
