package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// ReadingsRepository 传感器读数仓库
type ReadingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReadingsRepository 创建读数仓库
func NewReadingsRepository(db *sql.DB, logger *zap.Logger) *ReadingsRepository {
	return &ReadingsRepository{
		db:     db,
		logger: logger,
	}
}

// InsertReading 写入一条读数
func (r *ReadingsRepository) InsertReading(ctx context.Context, plantID string, reading models.SensorReading) error {
	if plantID == "" {
		return fmt.Errorf("plant_id is required")
	}

	query := `
		INSERT INTO sensor_data (plant_id, temperature, humidity, light_level)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		plantID,
		reading.Temperature,
		reading.Humidity,
		reading.LightLevel,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sensor reading: %w", err)
	}

	return nil
}
