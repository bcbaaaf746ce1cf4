package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// SubscriptionsRepository 植物订阅仓库
type SubscriptionsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubscriptionsRepository 创建订阅仓库
func NewSubscriptionsRepository(db *sql.DB, logger *zap.Logger) *SubscriptionsRepository {
	return &SubscriptionsRepository{
		db:     db,
		logger: logger,
	}
}

// GetSubscribers 查询植物当前的订阅用户集合
// 每次广播前都重新查询，不做跨事件缓存（避免过期的扇出目标）
func (r *SubscriptionsRepository) GetSubscribers(ctx context.Context, plantID string) (map[string]struct{}, error) {
	if plantID == "" {
		return nil, fmt.Errorf("plant_id is required")
	}

	query := `
		SELECT user_id::text
		  FROM plant_subscriptions
		 WHERE plant_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := make(map[string]struct{})
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		subscribers[userID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriber rows: %w", err)
	}

	return subscribers, nil
}
