package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/evaluator"
	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// PushTokenStore 推送地址的查询与清理接口（由 repository 实现）
type PushTokenStore interface {
	GetTokensForPlant(ctx context.Context, plantID string) ([]string, error)
	InvalidateToken(ctx context.Context, token string) error
}

// pushMessage Expo push API 请求体（每个地址一条）
type pushMessage struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// pushTicket 单条消息的投递回执
type pushTicket struct {
	Status  string `json:"status"` // "ok" | "error"
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"` // "DeviceNotRegistered" 等
	} `json:"details"`
}

// pushResponse 推送网关响应（回执顺序与请求消息一致）
type pushResponse struct {
	Data []pushTicket `json:"data"`
}

// PushNotifier 阈值报警推送（Expo 风格的推送网关）
// 实现 evaluator.AlertSender
type PushNotifier struct {
	httpClient *resty.Client
	endpoint   string
	tokens     PushTokenStore
	logger     *zap.Logger
}

// NewPushNotifier 创建推送通知器
func NewPushNotifier(endpoint string, tokens PushTokenStore, logger *zap.Logger) *PushNotifier {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &PushNotifier{
		httpClient: client,
		endpoint:   endpoint,
		tokens:     tokens,
		logger:     logger,
	}
}

// 确保实现了接口
var _ evaluator.AlertSender = (*PushNotifier)(nil)

// SendAlert 把一条阈值违规推送给植物的全部订阅者
// 回执里 DeviceNotRegistered 的地址做尽力而为的清理，清理失败只记录日志；
// 单个地址的投递失败不影响其余地址
func (n *PushNotifier) SendAlert(ctx context.Context, plant models.Plant, violation evaluator.Violation) error {
	tokens, err := n.tokens.GetTokensForPlant(ctx, plant.PlantID)
	if err != nil {
		return fmt.Errorf("failed to resolve push tokens: %w", err)
	}
	if len(tokens) == 0 {
		n.logger.Debug("No push tokens registered, skipping alert",
			zap.String("plant_id", plant.PlantID),
		)
		return nil
	}

	issueKey := violation.IssueKey(plant.PlantID)
	title, body := formatAlert(plant.Name, violation)

	messages := make([]pushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, pushMessage{
			To:    token,
			Title: title,
			Body:  body,
			Data: map[string]any{
				"deeplink": fmt.Sprintf("nerdycatcher://plant/%s", plant.PlantID),
				"plantId":  plant.PlantID,
				"issue":    issueKey,
			},
		})
	}

	var result pushResponse
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(messages).
		SetResult(&result).
		Post(n.endpoint)
	if err != nil {
		return fmt.Errorf("failed to call push gateway: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode())
	}

	// 回执与请求消息一一对应
	for i, ticket := range result.Data {
		if ticket.Status == "ok" {
			continue
		}
		if i >= len(tokens) {
			break
		}
		if ticket.Details.Error == "DeviceNotRegistered" {
			// 地址永久失效，清理后继续处理其余回执
			if err := n.tokens.InvalidateToken(ctx, tokens[i]); err != nil {
				n.logger.Warn("Failed to invalidate push token",
					zap.Error(err),
				)
			} else {
				n.logger.Info("Invalidated unregistered push token",
					zap.String("plant_id", plant.PlantID),
				)
			}
			continue
		}
		n.logger.Warn("Push delivery failed",
			zap.String("plant_id", plant.PlantID),
			zap.String("status", ticket.Status),
			zap.String("message", ticket.Message),
		)
	}

	return nil
}

// formatAlert 生成推送标题与正文
func formatAlert(plantName string, v evaluator.Violation) (title, body string) {
	title = fmt.Sprintf("%s needs attention", plantName)

	var metric, problem string
	switch v.Dimension {
	case evaluator.DimensionTemp:
		metric = "Temperature"
	case evaluator.DimensionHumidity:
		metric = "Humidity"
	case evaluator.DimensionLight:
		metric = "Light level"
	default:
		metric = v.Dimension
	}

	if v.Direction == evaluator.DirectionLow {
		problem = fmt.Sprintf("%s is too low: %.1f (min %.1f)", metric, v.Observed, v.Bound)
	} else {
		problem = fmt.Sprintf("%s is too high: %.1f (max %.1f)", metric, v.Observed, v.Bound)
	}

	return title, problem
}
