// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bundlelab/bundlelab/lib/ref"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	command     TEXT NOT NULL,
	worksheet   TEXT NOT NULL DEFAULT '',
	executed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS history_by_command ON history(command);
`

// History is a SQLite-backed command log, one database per user. Safe
// for concurrent use.
type History struct {
	pool   *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// OpenHistory opens (creating if needed) the history database at path.
// The parent directory must exist. Use ":memory:" in tests.
func OpenHistory(path string, logger *slog.Logger) (*History, error) {
	if path == "" {
		return nil, fmt.Errorf("terminal: history path is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		// One writer is plenty: appends are rare (one per executed
		// command) and reads are short.
		PoolSize: 2,
		PrepareConn: func(conn *sqlite.Conn) error {
			pragmas := []string{
				"PRAGMA journal_mode=WAL",
				"PRAGMA synchronous=NORMAL",
				"PRAGMA busy_timeout=5000",
			}
			for _, pragma := range pragmas {
				if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
					return fmt.Errorf("terminal: %s: %w", pragma, err)
				}
			}
			if err := sqlitex.ExecuteScript(conn, historySchema, nil); err != nil {
				return fmt.Errorf("terminal: creating history schema: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("terminal: opening history %s: %w", path, err)
	}
	return &History{pool: pool, logger: logger, path: path}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	if err := h.pool.Close(); err != nil {
		return fmt.Errorf("terminal: closing history %s: %w", h.path, err)
	}
	return nil
}

// Append records one executed command. The worksheet UUID is stored
// for future per-worksheet filtering; the empty string means no
// worksheet context.
func (h *History) Append(ctx context.Context, worksheet ref.WorksheetUUID, command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	conn, err := h.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("terminal: history append: %w", err)
	}
	defer h.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"INSERT INTO history (command, worksheet, executed_at) VALUES (?, ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{command, worksheet.String(), time.Now().Unix()},
		})
	if err != nil {
		return fmt.Errorf("terminal: history append: %w", err)
	}
	return nil
}

// Recent returns up to limit distinct commands, most recent first.
func (h *History) Recent(ctx context.Context, limit int) ([]string, error) {
	return h.query(ctx,
		"SELECT command FROM history GROUP BY command ORDER BY MAX(id) DESC LIMIT ?",
		limit)
}

// PrefixSearch returns up to limit distinct commands starting with
// prefix, most recent first. An empty prefix behaves like Recent.
func (h *History) PrefixSearch(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimLeft(prefix, " ")
	if prefix == "" {
		return h.Recent(ctx, limit)
	}
	return h.query(ctx,
		`SELECT command FROM history WHERE command LIKE ? ESCAPE '\' GROUP BY command ORDER BY MAX(id) DESC LIMIT ?`,
		escapeLike(prefix)+"%", limit)
}

func (h *History) query(ctx context.Context, sql string, args ...any) ([]string, error) {
	conn, err := h.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("terminal: history query: %w", err)
	}
	defer h.pool.Put(conn)

	var commands []string
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			commands = append(commands, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("terminal: history query: %w", err)
	}
	return commands, nil
}

// escapeLike escapes LIKE metacharacters so prefix is matched
// literally.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
