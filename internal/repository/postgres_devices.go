package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// DevicesRepository 设备仓库
type DevicesRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDevicesRepository 创建设备仓库
func NewDevicesRepository(db *sql.DB, logger *zap.Logger) *DevicesRepository {
	return &DevicesRepository{
		db:     db,
		logger: logger,
	}
}

// GetByAPIKeyHash 按 API Key 哈希查询设备身份
// 只匹配 active 状态的设备；未命中返回 not found 错误
func (r *DevicesRepository) GetByAPIKeyHash(ctx context.Context, keyHash string) (*models.DeviceIdentity, error) {
	if keyHash == "" {
		return nil, fmt.Errorf("key hash is required")
	}

	query := `
		SELECT device_id::text, plant_id::text
		  FROM devices
		 WHERE api_key_hash = $1
		   AND status = 'active'
	`

	var identity models.DeviceIdentity
	err := r.db.QueryRowContext(ctx, query, keyHash).Scan(
		&identity.DeviceID,
		&identity.PlantID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("device not found")
		}
		return nil, fmt.Errorf("failed to query device: %w", err)
	}

	return &identity, nil
}
