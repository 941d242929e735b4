// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/Masterminds/squirrel"
	"github.com/diffeo/go-restler/entity"
	"github.com/lib/pq"
	"github.com/satori/go.uuid"
)

type pgStore struct {
	pg   *pgDatabase
	kind *entity.Kind
}

func (s *pgStore) Database() *pgDatabase {
	return s.pg
}

func (s *pgStore) Kind() *entity.Kind {
	return s.kind
}

func (s *pgStore) New() *entity.Member {
	return s.kind.New()
}

func (s *pgStore) table() string {
	return pq.QuoteIdentifier(s.kind.Table)
}

// toSQL converts a column value to a database/sql parameter.
func toSQL(value interface{}) interface{} {
	switch v := value.(type) {
	case *big.Rat:
		return entity.FormatValue(v)
	case entity.Date:
		return v.String()
	}
	return value
}

// keyWhere returns the WHERE condition matching a primary key.
func (s *pgStore) keyWhere(key entity.Key) squirrel.Eq {
	where := squirrel.Eq{}
	for i, name := range s.kind.PrimaryKey {
		where[pq.QuoteIdentifier(name)] = toSQL(key[i])
	}
	return where
}

// selectMembers starts a SELECT of every column of the kind.
func (s *pgStore) selectMembers() squirrel.SelectBuilder {
	return psql.Select(quoteAll(s.kind.ColumnNames())).From(s.table())
}

// scanMember reads one row produced by selectMembers().
func (s *pgStore) scanMember(rows *sql.Rows) (*entity.Member, error) {
	names := s.kind.ColumnNames()
	values := make([]interface{}, len(names))
	ptrs := make([]interface{}, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(map[string]interface{}, len(names))
	for i, name := range names {
		row[name] = values[i]
	}
	return s.kind.Load(row)
}

// filterSQL converts one normalized filter to a condition.  NULL
// handling matches entity.Query.Matches(): ordering comparisons never
// match NULL, and != matches NULL columns.
func filterSQL(f entity.Filter) squirrel.Sqlizer {
	column := pq.QuoteIdentifier(f.Column)
	value := toSQL(f.Value)
	switch f.Op {
	case entity.Eq:
		return squirrel.Eq{column: value}
	case entity.NotEq:
		if value == nil {
			return squirrel.NotEq{column: nil}
		}
		return squirrel.Or{squirrel.NotEq{column: value}, squirrel.Eq{column: nil}}
	case entity.Like:
		return squirrel.Like{column: value}
	}
	if value == nil {
		return squirrel.Expr("FALSE")
	}
	switch f.Op {
	case entity.Lt:
		return squirrel.Lt{column: value}
	case entity.LtEq:
		return squirrel.LtOrEq{column: value}
	case entity.Gt:
		return squirrel.Gt{column: value}
	case entity.GtEq:
		return squirrel.GtOrEq{column: value}
	}
	return squirrel.Expr("FALSE")
}

// where adds a normalized query's filters to a SELECT.
func where(sb squirrel.SelectBuilder, q entity.Query) squirrel.SelectBuilder {
	for _, f := range q.Filters {
		sb = sb.Where(filterSQL(f))
	}
	return sb
}

// findQuery builds the full SELECT for a normalized query.
func (s *pgStore) findQuery(q entity.Query) squirrel.SelectBuilder {
	sb := where(s.selectMembers(), q)
	if q.Distinct {
		sb = sb.Distinct()
	}
	for _, order := range q.OrderBy {
		clause := pq.QuoteIdentifier(order.Column)
		if order.Descending {
			clause += " DESC"
		}
		sb = sb.OrderBy(clause)
	}
	for _, name := range s.kind.PrimaryKey {
		sb = sb.OrderBy(pq.QuoteIdentifier(name))
	}
	if q.Offset > 0 {
		sb = sb.Offset(uint64(q.Offset))
	}
	if q.Limit != nil && *q.Limit >= 0 {
		sb = sb.Limit(uint64(*q.Limit))
	}
	return sb
}

func (s *pgStore) Get(ctx context.Context, key entity.Key) (*entity.Member, error) {
	var result *entity.Member
	query := s.selectMembers().Where(s.keyWhere(key))
	err := queryAndScan(ctx, s, query, func(rows *sql.Rows) error {
		m, err := s.scanMember(rows)
		result = m
		return err
	})
	if err == nil && result == nil {
		err = entity.ErrNoSuchMember{Kind: s.kind.Name, ID: key.String()}
	}
	return result, err
}

func (s *pgStore) Find(ctx context.Context, q entity.Query) ([]*entity.Member, error) {
	q, err := q.Normalize(s.kind)
	if err != nil {
		return nil, err
	}
	result := []*entity.Member{}
	err = queryAndScan(ctx, s, s.findQuery(q), func(rows *sql.Rows) error {
		m, err := s.scanMember(rows)
		if err == nil {
			result = append(result, m)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *pgStore) Count(ctx context.Context, q entity.Query) (int, error) {
	q, err := q.Normalize(s.kind)
	if err != nil {
		return 0, err
	}
	var count int
	query := where(psql.Select("COUNT(*)").From(s.table()), q)
	err = queryAndScan(ctx, s, query, func(rows *sql.Rows) error {
		return rows.Scan(&count)
	})
	return count, err
}

// insertQuery builds the INSERT for a new member.  If the primary key
// is a generated integer and unset, the key column is left out and
// named as returning instead.
func (s *pgStore) insertQuery(m *entity.Member) (stmt string, params []interface{}, returning string, err error) {
	if generated, ok := s.kind.GeneratedKey(); ok && generated.Type == entity.Integer {
		if value, _ := m.Value(generated.Name); value == nil {
			returning = generated.Name
		}
	}
	var columns []string
	for _, name := range s.kind.ColumnNames() {
		if name == returning {
			continue
		}
		value, _ := m.Value(name)
		columns = append(columns, pq.QuoteIdentifier(name))
		params = append(params, toSQL(value))
	}
	suffix := ""
	if returning != "" {
		suffix = "RETURNING " + pq.QuoteIdentifier(returning)
	}
	if len(columns) == 0 {
		stmt = "INSERT INTO " + s.table() + " DEFAULT VALUES " + suffix
		return
	}
	ib := psql.Insert(s.table()).Columns(columns...).Values(params...)
	if suffix != "" {
		ib = ib.Suffix(suffix)
	}
	stmt, params, err = ib.ToSql()
	return
}

// bumpSequence moves a serial key's sequence past any explicitly
// inserted key.
func (s *pgStore) bumpSequence(ctx context.Context, tx *sql.Tx, column string) error {
	stmt := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence($1, $2), GREATEST(MAX(%s), 1)) FROM %s",
		pq.QuoteIdentifier(column), s.table())
	_, err := tx.ExecContext(ctx, stmt, s.kind.Table, column)
	return err
}

func (s *pgStore) Create(ctx context.Context, m *entity.Member) error {
	candidate := m.Copy()
	if generated, ok := s.kind.GeneratedKey(); ok && generated.Type == entity.UUID {
		if value, _ := candidate.Value(generated.Name); value == nil {
			if err := candidate.Set(generated.Name, uuid.NewV4().String()); err != nil {
				return err
			}
		}
	}
	stmt, params, returning, err := s.insertQuery(candidate)
	if err != nil {
		return err
	}
	if returning == "" && !candidate.Key().Complete() {
		return entity.ErrMalformedKey{Value: candidate.Key().String(), Reason: "incomplete primary key"}
	}

	err = withTx(ctx, s, false, func(tx *sql.Tx) error {
		if returning != "" {
			var id int64
			if err := tx.QueryRowContext(ctx, stmt, params...).Scan(&id); err != nil {
				return err
			}
			return candidate.Set(returning, id)
		}
		if _, err := tx.ExecContext(ctx, stmt, params...); err != nil {
			return err
		}
		if generated, ok := s.kind.GeneratedKey(); ok && generated.Type == entity.Integer {
			return s.bumpSequence(ctx, tx, generated.Name)
		}
		return nil
	})
	if isUniqueViolation(err) {
		return entity.ErrDuplicateKey{Kind: s.kind.Name, ID: candidate.Key().String()}
	}
	if err != nil {
		return err
	}
	candidate.MarkSaved()
	*m = *candidate
	return nil
}

func (s *pgStore) Update(ctx context.Context, m *entity.Member) error {
	if !m.Saved() {
		return entity.ErrNotSaved
	}
	key := m.Key()
	ub := psql.Update(s.table()).Where(s.keyWhere(key))
	changes := 0
	for _, column := range s.kind.Columns {
		if s.isKey(column.Name) {
			continue
		}
		value, _ := m.Value(column.Name)
		ub = ub.Set(pq.QuoteIdentifier(column.Name), toSQL(value))
		changes++
	}
	if changes == 0 {
		// Nothing to write, but the member must still exist
		_, err := s.Get(ctx, key)
		return err
	}
	return withTx(ctx, s, false, func(tx *sql.Tx) error {
		count, err := execInTx(ctx, tx, ub)
		if err == nil && count == 0 {
			err = entity.ErrNoSuchMember{Kind: s.kind.Name, ID: key.String()}
		}
		return err
	})
}

func (s *pgStore) Delete(ctx context.Context, m *entity.Member) error {
	if !m.Saved() {
		return entity.ErrNotSaved
	}
	key := m.Key()
	return withTx(ctx, s, false, func(tx *sql.Tx) error {
		count, err := execInTx(ctx, tx, psql.Delete(s.table()).Where(s.keyWhere(key)))
		if err == nil && count == 0 {
			err = entity.ErrNoSuchMember{Kind: s.kind.Name, ID: key.String()}
		}
		return err
	})
}

func (s *pgStore) isKey(name string) bool {
	for _, key := range s.kind.PrimaryKey {
		if key == name {
			return true
		}
	}
	return false
}
