package models

// 消息类型常量（WebSocket 协议）
const (
	TypeAuth        = "auth"         // Viewer 认证
	TypeAuthDevice  = "auth_device"  // Device 认证
	TypeAuthSuccess = "auth_success" // 认证成功响应
	TypeSensorData  = "sensor_data"  // 传感器数据（双向）
	TypeLEDControl  = "led_control"  // LED 控制指令（双向）
)

// Envelope 入站消息信封
// 先解析 type，再按消息类型取对应字段（缺失字段保持零值/nil）
type Envelope struct {
	Type string `json:"type"`

	// auth / auth_device
	Token  string `json:"token,omitempty"`
	APIKey string `json:"api_key,omitempty"`

	// sensor_data
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	LightLevel  *float64 `json:"light_level,omitempty"`

	// led_control
	PlantID string `json:"plant_id,omitempty"`
	State   *bool  `json:"state,omitempty"`
}

// AuthSuccessMessage 认证成功响应（Device 认证时附带 plant_id）
type AuthSuccessMessage struct {
	Type    string `json:"type"`
	PlantID string `json:"plant_id,omitempty"`
}

// SensorBroadcast 推送给订阅 Viewer 的实时数据
type SensorBroadcast struct {
	Type string              `json:"type"`
	Data SensorBroadcastData `json:"data"`
}

// SensorBroadcastData 广播数据体
type SensorBroadcastData struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	LightLevel  float64 `json:"light_level"`
	PlantID     string  `json:"plant_id"`
}

// LEDCommand 转发给 Device 的控制指令
type LEDCommand struct {
	Type  string `json:"type"`
	State bool   `json:"state"`
}
