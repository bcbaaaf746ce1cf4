package models

// SensorReading 一次传感器上报（值对象，处理完本次事件后不保留）
type SensorReading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	LightLevel  float64 `json:"light_level"`
}

// Thresholds 植物的安全阈值（六项各自独立可选，nil 表示不限制）
type Thresholds struct {
	TemperatureMin *float64 `json:"temperature_min"`
	TemperatureMax *float64 `json:"temperature_max"`
	HumidityMin    *float64 `json:"humidity_min"`
	HumidityMax    *float64 `json:"humidity_max"`
	LightMin       *float64 `json:"light_min"`
	LightMax       *float64 `json:"light_max"`
}

// Plant 被监控的植物实体（由外部存储管理，中继只读）
type Plant struct {
	PlantID    string      `json:"plant_id"`
	Name       string      `json:"name"`
	Thresholds *Thresholds `json:"thresholds,omitempty"`
}
