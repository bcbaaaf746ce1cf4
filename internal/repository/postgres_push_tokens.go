package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// PushTokensRepository 推送地址仓库
type PushTokensRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPushTokensRepository 创建推送地址仓库
func NewPushTokensRepository(db *sql.DB, logger *zap.Logger) *PushTokensRepository {
	return &PushTokensRepository{
		db:     db,
		logger: logger,
	}
}

// GetTokensForPlant 查询植物订阅者登记的全部推送地址
// 订阅关系与推送地址做扁平连接，同一用户的多个设备各得一条
func (r *PushTokensRepository) GetTokensForPlant(ctx context.Context, plantID string) ([]string, error) {
	if plantID == "" {
		return nil, fmt.Errorf("plant_id is required")
	}

	query := `
		SELECT pt.token
		  FROM push_tokens pt
		  JOIN plant_subscriptions ps ON ps.user_id = pt.user_id
		 WHERE ps.plant_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, plantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan push token row: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate push token rows: %w", err)
	}

	return tokens, nil
}

// InvalidateToken 删除永久失效的推送地址
// 推送网关回报 DeviceNotRegistered 时由 notifier 尽力调用
func (r *PushTokensRepository) InvalidateToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM push_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to invalidate push token: %w", err)
	}

	return nil
}
