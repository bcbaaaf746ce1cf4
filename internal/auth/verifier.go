package auth

import (
	"context"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// Verifier 身份校验接口（外部身份服务的边界）
type Verifier interface {
	// VerifyUserToken 校验 Viewer 的用户 Token
	VerifyUserToken(ctx context.Context, token string) (*models.ViewerIdentity, error)
	// VerifyDeviceKey 校验 Device 的 API Key
	VerifyDeviceKey(ctx context.Context, apiKey string) (*models.DeviceIdentity, error)
}
