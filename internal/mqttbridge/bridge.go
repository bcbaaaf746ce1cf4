package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/auth"
	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// SensorSink 读数处理管线接口（与 WebSocket 通道共用）
type SensorSink interface {
	Process(ctx context.Context, device models.DeviceIdentity, reading models.SensorReading)
}

// Options MQTT 桥接配置
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// Bridge MQTT 上报桥
// 无法维持 WebSocket 长连接的设备改走 MQTT：
// 消息携带 api_key，桥接层校验后送入同一条读数管线
type Bridge struct {
	opts     Options
	client   mqtt.Client
	verifier auth.Verifier
	ingest   SensorSink
	logger   *zap.Logger
}

// ingestMessage MQTT 上报消息体
type ingestMessage struct {
	APIKey      string   `json:"api_key"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	LightLevel  *float64 `json:"light_level"`
}

// NewBridge 创建 MQTT 桥
func NewBridge(opts Options, verifier auth.Verifier, ingest SensorSink, logger *zap.Logger) *Bridge {
	return &Bridge{
		opts:     opts,
		verifier: verifier,
		ingest:   ingest,
		logger:   logger,
	}
}

// Start 连接 broker 并订阅上报主题
func (b *Bridge) Start() error {
	mqttOpts := mqtt.NewClientOptions()
	mqttOpts.AddBroker(b.opts.Broker)
	mqttOpts.SetClientID(b.opts.ClientID)
	if b.opts.Username != "" {
		mqttOpts.SetUsername(b.opts.Username)
	}
	if b.opts.Password != "" {
		mqttOpts.SetPassword(b.opts.Password)
	}
	mqttOpts.SetAutoReconnect(true)
	mqttOpts.SetCleanSession(true)

	b.client = mqtt.NewClient(mqttOpts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	if token := b.client.Subscribe(b.opts.Topic, b.opts.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		b.HandleMessage(msg.Topic(), msg.Payload())
	}); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", b.opts.Topic, token.Error())
	}

	b.logger.Info("MQTT bridge started",
		zap.String("broker", b.opts.Broker),
		zap.String("topic", b.opts.Topic),
	)
	return nil
}

// HandleMessage 处理一条 MQTT 上报
// 解析失败或认证失败只记录日志（MQTT 没有可关闭的连接语义）
func (b *Bridge) HandleMessage(topic string, payload []byte) {
	var msg ingestMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logger.Warn("Ignoring malformed MQTT message",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}
	if msg.Temperature == nil || msg.Humidity == nil || msg.LightLevel == nil {
		b.logger.Warn("Ignoring MQTT message with missing fields",
			zap.String("topic", topic),
		)
		return
	}

	ctx := context.Background()
	device, err := b.verifier.VerifyDeviceKey(ctx, msg.APIKey)
	if err != nil {
		b.logger.Warn("MQTT ingest rejected: device authentication failed",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}

	b.ingest.Process(ctx, *device, models.SensorReading{
		Temperature: *msg.Temperature,
		Humidity:    *msg.Humidity,
		LightLevel:  *msg.LightLevel,
	})
}

// Stop 断开 MQTT 连接
func (b *Bridge) Stop() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Unsubscribe(b.opts.Topic)
		b.client.Disconnect(250)
	}
}
