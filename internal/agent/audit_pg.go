// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditStorePg Postgres 实现
type AuditStorePg struct {
	pool *pgxpool.Pool
}

// NewAuditStorePg 创建基于 PostgreSQL 的审计存储
func NewAuditStorePg(ctx context.Context, dsn string) (*AuditStorePg, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &AuditStorePg{pool: pool}, nil
}

// Close 关闭连接池
func (s *AuditStorePg) Close() {
	s.pool.Close()
}

// Append 实现 AuditStore
func (s *AuditStorePg) Append(ctx context.Context, entry *AuditEntry) error {
	if entry == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = "audit-" + uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_audit_log (id, session_id, role, content, intent, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5,''), $6)`,
		entry.ID, entry.SessionID, entry.Role, entry.Content, entry.Intent, entry.CreatedAt)
	return err
}

// ListBySession 实现 AuditStore
func (s *AuditStorePg) ListBySession(ctx context.Context, sessionID string, limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, role, content, COALESCE(intent,''), created_at
		 FROM chat_audit_log WHERE session_id = $1 ORDER BY created_at ASC LIMIT $2`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Role, &e.Content, &e.Intent, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
