package models

// DeviceIdentity 设备身份（认证成功时绑定到连接，之后不可变）
type DeviceIdentity struct {
	DeviceID string
	PlantID  string
}

// ViewerIdentity 观看者身份（认证成功时绑定到连接，之后不可变）
type ViewerIdentity struct {
	UserID string
	Email  string
}
