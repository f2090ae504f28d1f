// Package ledger records completed downloads in SQLite so interrupted
// works can be resumed and history inspected from the CLI.
package ledger
