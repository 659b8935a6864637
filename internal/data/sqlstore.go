/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	applog "statsheet/internal/log"
	"statsheet/internal/sheet"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	sqlPageSize = 256
	sqlMaxPages = 64
	sqlTimeout  = 5 * time.Second
)

// SQLStore is a sqlite-backed case store for datasets too large to
// materialize: the grid sees the full row count while the store keeps at
// most sqlMaxPages pages of sqlPageSize cases in memory, evicting the least
// recently used page. Values live in one row per case, one column per
// variable (REAL for numeric, TEXT for string and date).
type SQLStore struct {
	db       *sql.DB
	dict     *Dictionary
	rowCount int
	readOnly bool

	pages map[int][][]sheet.Value
	lru   []int // page ids, least recently used first

	listeners []storeListener
	nextID    int
	log       *slog.Logger
}

// OpenSQLStore opens or creates the case database at path, enables WAL mode
// and ensures the cases table matches the dictionary.
func OpenSQLStore(path string, dict *Dictionary) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("data"), "sqlstore_open").With(
		slog.String("path", path),
	)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single connection: the store runs on the UI event loop.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), sqlTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &SQLStore{
		db:    db,
		dict:  dict,
		pages: make(map[int][][]sheet.Value),
		log:   applog.WithComponent("data"),
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cases`).Scan(&s.rowCount); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("count cases: %w", err)
	}
	l.Info("case db ready", slog.Int("cases", s.rowCount), slog.Int("variables", dict.Len()))
	return s, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

// Dictionary returns the variable dictionary backing the columns.
func (s *SQLStore) Dictionary() *Dictionary { return s.dict }

// SetReadOnly toggles write protection.
func (s *SQLStore) SetReadOnly(v bool) { s.readOnly = v }

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	cols := make([]string, 0, s.dict.Len()+1)
	cols = append(cols, "case_id INTEGER PRIMARY KEY AUTOINCREMENT")
	for i := 0; i < s.dict.Len(); i++ {
		v, _ := s.dict.Var(i)
		typ := "TEXT"
		if v.Kind == Numeric {
			typ = "REAL"
		}
		cols = append(cols, fmt.Sprintf("v%d %s", i, typ))
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS cases (%s);", strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create cases table: %w", err)
	}
	return nil
}

// RowCount satisfies sheet.DataSource.
func (s *SQLStore) RowCount() int { return s.rowCount }

// ColumnCount satisfies sheet.DataSource.
func (s *SQLStore) ColumnCount() int { return s.dict.Len() }

// Get satisfies sheet.DataSource, paging the containing case block in on
// demand.
func (s *SQLStore) Get(col, row int) (sheet.Value, error) {
	if row < 0 || row >= s.rowCount || col < 0 || col >= s.dict.Len() {
		return nil, sheet.ErrOutOfRange
	}
	page, err := s.page(row / sqlPageSize)
	if err != nil {
		return nil, err
	}
	return page[row%sqlPageSize][col], nil
}

// Set satisfies sheet.DataSource, writing through to the database and
// patching the cached page in place.
func (s *SQLStore) Set(col, row int, v sheet.Value) error {
	if s.readOnly {
		return fmt.Errorf("case db is read-only: %w", sheet.ErrWriteRejected)
	}
	if row < 0 || row >= s.rowCount || col < 0 || col >= s.dict.Len() {
		return sheet.ErrOutOfRange
	}
	va, _ := s.dict.Var(col)
	if err := checkKind(va, v); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqlTimeout)
	defer cancel()
	q := fmt.Sprintf(
		`UPDATE cases SET v%d = ? WHERE case_id = (SELECT case_id FROM cases ORDER BY case_id LIMIT 1 OFFSET ?)`,
		col)
	if _, err := s.db.ExecContext(ctx, q, toDBValue(va, v), row); err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if page, ok := s.pages[row/sqlPageSize]; ok {
		page[row%sqlPageSize][col] = v
	}
	return nil
}

// AppendCases bulk-inserts typed case rows inside one transaction and
// notifies bound grids of the new rows.
func (s *SQLStore) AppendCases(rows [][]sheet.Value) error {
	if s.readOnly {
		return fmt.Errorf("case db is read-only: %w", sheet.ErrWriteRejected)
	}
	if len(rows) == 0 {
		return nil
	}
	n := s.dict.Len()
	marks := make([]string, n)
	names := make([]string, n)
	for i := 0; i < n; i++ {
		marks[i] = "?"
		names[i] = fmt.Sprintf("v%d", i)
	}
	q := fmt.Sprintf("INSERT INTO cases (%s) VALUES (%s)",
		strings.Join(names, ", "), strings.Join(marks, ", "))

	ctx, cancel := context.WithTimeout(context.Background(), sqlTimeout)
	defer cancel()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare append: %w", err)
	}
	for _, r := range rows {
		args := make([]any, n)
		for col := 0; col < n; col++ {
			va, _ := s.dict.Var(col)
			var v sheet.Value
			if col < len(r) {
				v = r[col]
			}
			if err := checkKind(va, v); err != nil {
				_ = stmt.Close()
				_ = tx.Rollback()
				return err
			}
			args[col] = toDBValue(va, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert case: %w", err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("close append stmt: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	start := s.rowCount
	s.rowCount += len(rows)
	// The tail page may have been cached short; drop it.
	if _, ok := s.pages[start/sqlPageSize]; ok {
		delete(s.pages, start/sqlPageSize)
		for i, id := range s.lru {
			if id == start/sqlPageSize {
				s.lru = append(s.lru[:i], s.lru[i+1:]...)
				break
			}
		}
	}
	s.notify(sheet.Rows, start, 0, len(rows))
	return nil
}

// page returns the cached block of cases, loading and evicting as needed.
func (s *SQLStore) page(id int) ([][]sheet.Value, error) {
	if p, ok := s.pages[id]; ok {
		s.touch(id)
		return p, nil
	}
	p, err := s.loadPage(id)
	if err != nil {
		return nil, err
	}
	if len(s.pages) >= sqlMaxPages {
		oldest := s.lru[0]
		s.lru = s.lru[1:]
		delete(s.pages, oldest)
	}
	s.pages[id] = p
	s.lru = append(s.lru, id)
	return p, nil
}

func (s *SQLStore) touch(id int) {
	for i, v := range s.lru {
		if v == id {
			s.lru = append(s.lru[:i], s.lru[i+1:]...)
			s.lru = append(s.lru, id)
			return
		}
	}
}

func (s *SQLStore) loadPage(id int) ([][]sheet.Value, error) {
	n := s.dict.Len()
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = fmt.Sprintf("v%d", i)
	}
	q := fmt.Sprintf("SELECT %s FROM cases ORDER BY case_id LIMIT %d OFFSET %d",
		strings.Join(names, ", "), sqlPageSize, id*sqlPageSize)

	ctx, cancel := context.WithTimeout(context.Background(), sqlTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load page %d: %w", id, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Warn("rows close", slog.Any("err", err))
		}
	}()

	page := make([][]sheet.Value, 0, sqlPageSize)
	for rows.Next() {
		dest := make([]any, n)
		for i := range dest {
			v, _ := s.dict.Var(i)
			if v.Kind == Numeric {
				dest[i] = new(sql.NullFloat64)
			} else {
				dest[i] = new(sql.NullString)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		rec := make([]sheet.Value, n)
		for i := range dest {
			va, _ := s.dict.Var(i)
			rec[i] = fromDBValue(va, dest[i])
		}
		page = append(page, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read page %d: %w", id, err)
	}
	return page, nil
}

// OnItemsChanged satisfies sheet.ChangeNotifier.
func (s *SQLStore) OnItemsChanged(fn sheet.ItemsChangedFunc) (cancel func()) {
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, storeListener{id: id, fn: fn})
	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *SQLStore) notify(o sheet.Orientation, start, removed, inserted int) {
	for _, l := range s.listeners {
		l.fn(o, start, removed, inserted)
	}
}

// toDBValue converts a typed cell value to its database representation.
func toDBValue(va Variable, v sheet.Value) any {
	if v == nil {
		return nil
	}
	switch va.Kind {
	case Numeric:
		return v.(float64)
	case Date:
		return v.(time.Time).Format(time.RFC3339)
	default:
		return v.(string)
	}
}

// fromDBValue converts a scanned column back to a typed cell value.
func fromDBValue(va Variable, scanned any) sheet.Value {
	switch va.Kind {
	case Numeric:
		f := scanned.(*sql.NullFloat64)
		if !f.Valid {
			return nil
		}
		return f.Float64
	case Date:
		st := scanned.(*sql.NullString)
		if !st.Valid || st.String == "" {
			return nil
		}
		if d, err := time.Parse(time.RFC3339, st.String); err == nil {
			return d
		}
		return nil
	default:
		st := scanned.(*sql.NullString)
		if !st.Valid {
			return nil
		}
		return st.String
	}
}
