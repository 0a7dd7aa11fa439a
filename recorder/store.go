package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fmusim/types"
)

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("运行记录不存在")

const storeSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	rows       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	row      INTEGER NOT NULL,
	time     REAL NOT NULL,
	variable TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (run_id, row, variable)
);
CREATE INDEX IF NOT EXISTS idx_samples_variable ON samples(run_id, variable);
`

// Store 采样结果的 SQLite 持久化，每次运行一个 uuid
type Store struct {
	db *sql.DB
}

// OpenStore 打开或创建数据库
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// SQLite 只允许一个写连接
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("设置 %s 失败: %w", pragma, err)
		}
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return &Store{db: db}, nil
}

// Close 关闭数据库
func (s *Store) Close() error { return s.db.Close() }

// Save 保存一次运行的全部采样，返回运行标识
func (s *Store) Save(ctx context.Context, model string, r *Recorder) (string, error) {
	id := uuid.New().String()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, model, created_at, rows) VALUES (?, ?, ?, ?)`,
		id, model, time.Now().Unix(), len(r.rows)); err != nil {
		return "", fmt.Errorf("写入运行记录失败: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run_id, row, time, variable, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("准备语句失败: %w", err)
	}
	defer stmt.Close()
	for n, row := range r.rows {
		for i, v := range r.Variables {
			if _, err := stmt.ExecContext(ctx, id, n, row.Time, v.Name, formatValues(row.Values[i])); err != nil {
				return "", fmt.Errorf("写入采样失败: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("提交事务失败: %w", err)
	}
	return id, nil
}

// Series 读取某次运行中一个变量的时间与取值字面量
func (s *Store) Series(ctx context.Context, runID, variable string) ([]float64, []string, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT rows FROM runs WHERE id = ?`, runID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT time, value FROM samples WHERE run_id = ? AND variable = ? ORDER BY row`, runID, variable)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	times := make([]float64, 0, n)
	values := make([]string, 0, n)
	for rows.Next() {
		var (
			t float64
			v string
		)
		if err := rows.Scan(&t, &v); err != nil {
			return nil, nil, err
		}
		times = append(times, t)
		values = append(values, v)
	}
	return times, values, rows.Err()
}

func formatValues(values any) string {
	n := types.NumValues(values)
	parts := make([]string, n)
	for k := range n {
		parts[k] = types.FormatValue(values, k)
	}
	return strings.Join(parts, " ")
}
