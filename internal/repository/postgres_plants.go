package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// PlantsRepository 植物仓库
type PlantsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPlantsRepository 创建植物仓库
func NewPlantsRepository(db *sql.DB, logger *zap.Logger) *PlantsRepository {
	return &PlantsRepository{
		db:     db,
		logger: logger,
	}
}

// GetPlant 查询植物及其阈值配置
// 六项阈值列均可为 NULL（NULL 表示该项不限制）
func (r *PlantsRepository) GetPlant(ctx context.Context, plantID string) (*models.Plant, error) {
	if plantID == "" {
		return nil, fmt.Errorf("plant_id is required")
	}

	query := `
		SELECT plant_id::text,
		       name,
		       temperature_min,
		       temperature_max,
		       humidity_min,
		       humidity_max,
		       light_min,
		       light_max
		  FROM plants
		 WHERE plant_id = $1
	`

	var plant models.Plant
	var tempMin, tempMax, humMin, humMax, lightMin, lightMax sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, plantID).Scan(
		&plant.PlantID,
		&plant.Name,
		&tempMin,
		&tempMax,
		&humMin,
		&humMax,
		&lightMin,
		&lightMax,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plant not found: %s", plantID)
		}
		return nil, fmt.Errorf("failed to query plant: %w", err)
	}

	// 全部为 NULL 时视为未配置阈值
	if tempMin.Valid || tempMax.Valid || humMin.Valid || humMax.Valid || lightMin.Valid || lightMax.Valid {
		plant.Thresholds = &models.Thresholds{
			TemperatureMin: nullToPtr(tempMin),
			TemperatureMax: nullToPtr(tempMax),
			HumidityMin:    nullToPtr(humMin),
			HumidityMax:    nullToPtr(humMax),
			LightMin:       nullToPtr(lightMin),
			LightMax:       nullToPtr(lightMax),
		}
	}

	return &plant, nil
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
