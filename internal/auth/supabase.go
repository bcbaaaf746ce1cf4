package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// DeviceKeyStore 设备 API Key 查询接口（由 repository 实现）
type DeviceKeyStore interface {
	GetByAPIKeyHash(ctx context.Context, keyHash string) (*models.DeviceIdentity, error)
}

// supabaseUser Supabase /auth/v1/user 响应
type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SupabaseVerifier 身份校验实现
// Viewer Token 走 Supabase 风格的身份服务接口校验；
// Device API Key 以 SHA-256 哈希在本地 devices 表中查找
type SupabaseVerifier struct {
	httpClient *resty.Client
	devices    DeviceKeyStore
	logger     *zap.Logger
}

// NewSupabaseVerifier 创建身份校验器
func NewSupabaseVerifier(endpoint, anonKey string, devices DeviceKeyStore, logger *zap.Logger) *SupabaseVerifier {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(10 * time.Second).
		SetHeader("apikey", anonKey).
		SetHeader("Accept", "application/json")

	return &SupabaseVerifier{
		httpClient: client,
		devices:    devices,
		logger:     logger,
	}
}

// 确保实现了接口
var _ Verifier = (*SupabaseVerifier)(nil)

// VerifyUserToken 校验用户 Token
func (v *SupabaseVerifier) VerifyUserToken(ctx context.Context, token string) (*models.ViewerIdentity, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required")
	}

	var user supabaseUser
	resp, err := v.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&user).
		Get("/auth/v1/user")
	if err != nil {
		return nil, fmt.Errorf("failed to call auth endpoint: %w", err)
	}

	if resp.StatusCode() != 200 {
		v.logger.Debug("Token verification rejected",
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("token verification failed: status %d", resp.StatusCode())
	}

	if user.ID == "" {
		return nil, fmt.Errorf("auth endpoint returned empty user id")
	}

	return &models.ViewerIdentity{
		UserID: user.ID,
		Email:  user.Email,
	}, nil
}

// VerifyDeviceKey 校验设备 API Key
// API Key 不落库，库中只存哈希
func (v *SupabaseVerifier) VerifyDeviceKey(ctx context.Context, apiKey string) (*models.DeviceIdentity, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	identity, err := v.devices.GetByAPIKeyHash(ctx, HashAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("device key verification failed: %w", err)
	}

	return identity, nil
}

// HashAPIKey 计算 API Key 的 SHA-256 十六进制哈希
func HashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
