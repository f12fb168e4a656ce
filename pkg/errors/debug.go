package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
	DBMessage    string `json:"db_message,omitempty"`
}

// Dump flattens an error chain plus any driver diagnostics for logging.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		d.DBCode = sqliteErr.Code.Error()
		d.DBMessage = sqliteErr.Error()
		return d
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		d.DBCode = pgErr.Code
		d.DBConstraint = pgErr.ConstraintName
		d.DBTable = pgErr.TableName
		d.DBDetail = pgErr.Detail
		d.DBMessage = pgErr.Message
	}

	return d
}
