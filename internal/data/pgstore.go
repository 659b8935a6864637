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
	"strings"
	"time"

	applog "statsheet/internal/log"
	"statsheet/internal/sheet"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGStore is a read-only case store over a Postgres table, for datasets that
// live in a warehouse. Columns map to dictionary variables by name; rows
// page in on demand just like the sqlite store. Writes are rejected, which
// the grid surfaces by reverting the cell.
type PGStore struct {
	db       *sql.DB
	dict     *Dictionary
	table    string
	rowCount int
	timeout  time.Duration

	pages map[int][][]sheet.Value
	lru   []int
	log   *slog.Logger
}

// OpenPGStore connects with the given DSN, verifies reachability and counts
// the table's rows. timeout bounds every query the store issues.
func OpenPGStore(ctx context.Context, dsn, table string, dict *Dictionary, timeout time.Duration) (*PGStore, error) {
	l := applog.WithOperation(applog.WithComponent("data"), "pgstore_open").With(
		slog.String("table", table),
	)
	if timeout <= 0 {
		timeout = sqlTimeout
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		l.Error("pg open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open pg: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		l.Error("pg ping failed", slog.Any("err", err))
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	s := &PGStore{
		db:      db,
		dict:    dict,
		table:   table,
		timeout: timeout,
		pages:   make(map[int][][]sheet.Value),
		log:     applog.WithComponent("data"),
	}
	countCtx, cancel2 := context.WithTimeout(ctx, timeout)
	defer cancel2()
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(table))
	if err := db.QueryRowContext(countCtx, q).Scan(&s.rowCount); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("count %s: %w", table, err)
	}
	l.Info("warehouse table bound", slog.Int("cases", s.rowCount), slog.Int("variables", dict.Len()))
	return s, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() error { return s.db.Close() }

// Dictionary returns the variable dictionary backing the columns.
func (s *PGStore) Dictionary() *Dictionary { return s.dict }

// RowCount satisfies sheet.DataSource.
func (s *PGStore) RowCount() int { return s.rowCount }

// ColumnCount satisfies sheet.DataSource.
func (s *PGStore) ColumnCount() int { return s.dict.Len() }

// Get satisfies sheet.DataSource.
func (s *PGStore) Get(col, row int) (sheet.Value, error) {
	if row < 0 || row >= s.rowCount || col < 0 || col >= s.dict.Len() {
		return nil, sheet.ErrOutOfRange
	}
	page, err := s.page(row / sqlPageSize)
	if err != nil {
		return nil, err
	}
	rec := page[row%sqlPageSize]
	return rec[col], nil
}

// Set satisfies sheet.DataSource; warehouse sources never accept writes.
func (s *PGStore) Set(col, row int, v sheet.Value) error {
	return fmt.Errorf("warehouse source is read-only: %w", sheet.ErrWriteRejected)
}

func (s *PGStore) page(id int) ([][]sheet.Value, error) {
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

func (s *PGStore) touch(id int) {
	for i, v := range s.lru {
		if v == id {
			s.lru = append(s.lru[:i], s.lru[i+1:]...)
			s.lru = append(s.lru, id)
			return
		}
	}
}

func (s *PGStore) loadPage(id int) ([][]sheet.Value, error) {
	n := s.dict.Len()
	names := make([]string, n)
	for i := 0; i < n; i++ {
		v, _ := s.dict.Var(i)
		names[i] = quoteIdent(v.Name)
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY 1 LIMIT %d OFFSET %d",
		strings.Join(names, ", "), quoteIdent(s.table), sqlPageSize, id*sqlPageSize)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
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
			switch v.Kind {
			case Numeric:
				dest[i] = new(sql.NullFloat64)
			case Date:
				dest[i] = new(sql.NullTime)
			default:
				dest[i] = new(sql.NullString)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		rec := make([]sheet.Value, n)
		for i := range dest {
			va, _ := s.dict.Var(i)
			switch va.Kind {
			case Numeric:
				f := dest[i].(*sql.NullFloat64)
				if f.Valid {
					rec[i] = f.Float64
				}
			case Date:
				d := dest[i].(*sql.NullTime)
				if d.Valid {
					rec[i] = d.Time
				}
			default:
				st := dest[i].(*sql.NullString)
				if st.Valid {
					rec[i] = st.String
				}
			}
		}
		page = append(page, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read page %d: %w", id, err)
	}
	return page, nil
}

// quoteIdent double-quotes a Postgres identifier, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
