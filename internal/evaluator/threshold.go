package evaluator

import (
	"fmt"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// 维度与方向常量（issue key 的组成部分）
const (
	DimensionTemp     = "temp"
	DimensionHumidity = "humidity"
	DimensionLight    = "light"

	DirectionLow  = "low"
	DirectionHigh = "high"
)

// Violation 一次阈值违规
type Violation struct {
	Dimension string  // temp / humidity / light
	Direction string  // low / high
	Observed  float64 // 实际读数
	Bound     float64 // 被违反的阈值
}

// IssueKey 违规条件的确定性标识，如 "low_temp_<plantID>"
// 同一 key 在节流窗口内最多发送一次报警
func (v Violation) IssueKey(plantID string) string {
	return fmt.Sprintf("%s_%s_%s", v.Direction, v.Dimension, plantID)
}

// CheckThresholds 检查读数与阈值
// 六项阈值各自独立判断（min 用严格小于，max 用严格大于），一次读数最多产生六条违规
func CheckThresholds(reading models.SensorReading, th *models.Thresholds) []Violation {
	if th == nil {
		return nil
	}

	var violations []Violation

	if th.TemperatureMin != nil && reading.Temperature < *th.TemperatureMin {
		violations = append(violations, Violation{
			Dimension: DimensionTemp,
			Direction: DirectionLow,
			Observed:  reading.Temperature,
			Bound:     *th.TemperatureMin,
		})
	}
	if th.TemperatureMax != nil && reading.Temperature > *th.TemperatureMax {
		violations = append(violations, Violation{
			Dimension: DimensionTemp,
			Direction: DirectionHigh,
			Observed:  reading.Temperature,
			Bound:     *th.TemperatureMax,
		})
	}
	if th.HumidityMin != nil && reading.Humidity < *th.HumidityMin {
		violations = append(violations, Violation{
			Dimension: DimensionHumidity,
			Direction: DirectionLow,
			Observed:  reading.Humidity,
			Bound:     *th.HumidityMin,
		})
	}
	if th.HumidityMax != nil && reading.Humidity > *th.HumidityMax {
		violations = append(violations, Violation{
			Dimension: DimensionHumidity,
			Direction: DirectionHigh,
			Observed:  reading.Humidity,
			Bound:     *th.HumidityMax,
		})
	}
	if th.LightMin != nil && reading.LightLevel < *th.LightMin {
		violations = append(violations, Violation{
			Dimension: DimensionLight,
			Direction: DirectionLow,
			Observed:  reading.LightLevel,
			Bound:     *th.LightMin,
		})
	}
	if th.LightMax != nil && reading.LightLevel > *th.LightMax {
		violations = append(violations, Violation{
			Dimension: DimensionLight,
			Direction: DirectionHigh,
			Observed:  reading.LightLevel,
			Bound:     *th.LightMax,
		})
	}

	return violations
}
