package model

import "database/sql"

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same access functions
// can run standalone or inside a ledger transaction.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}
