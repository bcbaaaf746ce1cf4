package evaluator

import (
	"context"

	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// AlertSender 报警投递接口（由 notifier 实现）
type AlertSender interface {
	SendAlert(ctx context.Context, plant models.Plant, violation Violation) error
}

// Evaluator 阈值评估器
// 对每条读数做六项独立的阈值检查，违规经节流器去重后交给推送网关；
// 除节流状态与发送副作用外，评估对输入是纯函数
type Evaluator struct {
	throttle *Throttle
	alerts   AlertSender
	logger   *zap.Logger
}

// NewEvaluator 创建阈值评估器
func NewEvaluator(throttle *Throttle, alerts AlertSender, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		throttle: throttle,
		alerts:   alerts,
		logger:   logger,
	}
}

// Evaluate 评估一条读数
// 每条违规按自己的 issue key 独立节流；推送失败只记录日志，
// 不影响同一读数的其余违规处理
func (e *Evaluator) Evaluate(ctx context.Context, plant models.Plant, reading models.SensorReading) {
	for _, violation := range CheckThresholds(reading, plant.Thresholds) {
		issueKey := violation.IssueKey(plant.PlantID)

		if !e.throttle.Allow(issueKey) {
			e.logger.Debug("Alert suppressed by throttle",
				zap.String("issue_key", issueKey),
			)
			continue
		}

		if err := e.alerts.SendAlert(ctx, plant, violation); err != nil {
			e.logger.Error("Failed to send alert",
				zap.String("issue_key", issueKey),
				zap.String("plant_id", plant.PlantID),
				zap.Error(err),
			)
			continue
		}

		e.logger.Info("Alert dispatched",
			zap.String("issue_key", issueKey),
			zap.String("plant_id", plant.PlantID),
			zap.Float64("observed", violation.Observed),
			zap.Float64("bound", violation.Bound),
		)
	}
}
