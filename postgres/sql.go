// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

// This file contains generic support code for PostgreSQL
// applications: withTx() to do work in a transaction that can be
// retried, scanRows() to loop over the results of a multi-row SELECT,
// and the squirrel statement builder everything else uses.

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// psql builds statements with PostgreSQL $1, $2, ... placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// withTx calls some function with a database/sql transaction object.
// If f panics or returns a non-nil error, rolls the transaction back;
// otherwise commits it before returning.  Returns the error value from
// f, or some other error related to transaction management.
func withTx(ctx context.Context, r rooted, readOnly bool, f func(*sql.Tx) error) (err error) {
	var (
		tx   *sql.Tx
		done bool
	)

	// If we have a failure, roll back; and if that rollback fails
	// and we don't yet have an error, set the error
	defer func() {
		if tx != nil && !done {
			err2 := tx.Rollback()
			if err == nil {
				err = err2
			}
		}
	}()

	// Run in a loop, repeating the work on serialization errors
	for {
		tx, err = r.Database().db.BeginTx(ctx, nil)
		if err != nil {
			return
		}

		level := "REPEATABLE READ"
		if readOnly {
			level += " READ ONLY"
		}
		_, err = tx.ExecContext(ctx, "SET TRANSACTION ISOLATION LEVEL "+level)
		if err != nil {
			return
		}

		err = f(tx)

		if err == nil {
			err = tx.Commit()
			done = true
		}

		// If we specifically got a serialization error, retry
		if isSerializationFailure(err) {
			err = tx.Rollback()
			if err == sql.ErrTxDone {
				// Already rolled back; not an error
				err = nil
			} else if err != nil {
				return
			}
			tx = nil
			done = false
			continue
		}

		break
	}

	return
}

func isSerializationFailure(err error) bool {
	pqerr, ok := err.(*pq.Error)
	return ok && pqerr.Code == "40001"
}

func isUniqueViolation(err error) bool {
	pqerr, ok := err.(*pq.Error)
	return ok && pqerr.Code == "23505"
}

// scanRows runs an SQL query and calls a function for each row in the
// result.  The callback function should only call the Scan() method on
// the provided Rows object; this function will take care of advancing
// through the list of rows and closing the iterator as required.
func scanRows(rows *sql.Rows, f func() error) (err error) {
	var done bool
	defer func() {
		if !done {
			err2 := rows.Close()
			if err == nil {
				err = err2
			}
		}
	}()

	for rows.Next() {
		err = f()
		if err != nil {
			return
		}
	}
	done = true
	err = rows.Err()
	return
}

// queryAndScan establishes a read-only transaction, runs a built
// query on it, and calls f for each row in it.  It is the common case
// of combining withTx() and scanRows().
func queryAndScan(ctx context.Context, r rooted, query squirrel.Sqlizer, f func(*sql.Rows) error) error {
	stmt, params, err := query.ToSql()
	if err != nil {
		return err
	}
	return withTx(ctx, r, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, stmt, params...)
		if err != nil {
			return err
		}
		return scanRows(rows, func() error {
			return f(rows)
		})
	})
}

// execInTx runs a built statement inside an existing transaction and
// returns the number of rows it affected.
func execInTx(ctx context.Context, tx *sql.Tx, query squirrel.Sqlizer) (int64, error) {
	stmt, params, err := query.ToSql()
	if err != nil {
		return 0, err
	}
	result, err := tx.ExecContext(ctx, stmt, params...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
