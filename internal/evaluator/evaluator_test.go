package evaluator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

// fakeAlertSender 记录发出的报警
type fakeAlertSender struct {
	mu      sync.Mutex
	sent    []Violation
	sendErr error
}

func (f *fakeAlertSender) SendAlert(_ context.Context, _ models.Plant, v Violation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeAlertSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func plant7() models.Plant {
	return models.Plant{
		PlantID: "plant-7",
		Name:    "Monstera",
		Thresholds: &models.Thresholds{
			TemperatureMin: floatPtr(15),
			TemperatureMax: floatPtr(30),
		},
	}
}

func TestEvaluator_DispatchesSingleAlertForViolation(t *testing.T) {
	sender := &fakeAlertSender{}
	e := NewEvaluator(NewThrottle(30*time.Second), sender, zap.NewNop())

	e.Evaluate(context.Background(), plant7(), models.SensorReading{Temperature: 10, Humidity: 50, LightLevel: 300})

	require.Equal(t, 1, sender.count())
	assert.Equal(t, DimensionTemp, sender.sent[0].Dimension)
	assert.Equal(t, DirectionLow, sender.sent[0].Direction)
}

func TestEvaluator_SecondReadingWithinWindowSuppressed(t *testing.T) {
	base := time.Now()
	throttle := NewThrottle(30 * time.Second)
	throttle.now = func() time.Time { return base }
	sender := &fakeAlertSender{}
	e := NewEvaluator(throttle, sender, zap.NewNop())

	reading := models.SensorReading{Temperature: 10, Humidity: 50, LightLevel: 300}
	e.Evaluate(context.Background(), plant7(), reading)

	// 5 个时间单位后的第二条低温读数：广播不节流，但报警被抑制
	throttle.now = func() time.Time { return base.Add(5 * time.Second) }
	e.Evaluate(context.Background(), plant7(), reading)

	assert.Equal(t, 1, sender.count())
}

func TestEvaluator_SameReadingIdempotentUnderThrottle(t *testing.T) {
	sender := &fakeAlertSender{}
	e := NewEvaluator(NewThrottle(30*time.Second), sender, zap.NewNop())

	reading := models.SensorReading{Temperature: 10, Humidity: 50, LightLevel: 300}
	for i := 0; i < 10; i++ {
		e.Evaluate(context.Background(), plant7(), reading)
	}

	assert.Equal(t, 1, sender.count())
}

func TestEvaluator_IndependentKeysEachDispatched(t *testing.T) {
	sender := &fakeAlertSender{}
	e := NewEvaluator(NewThrottle(30*time.Second), sender, zap.NewNop())

	plant := models.Plant{
		PlantID: "plant-7",
		Name:    "Monstera",
		Thresholds: &models.Thresholds{
			TemperatureMin: floatPtr(15),
			HumidityMin:    floatPtr(40),
		},
	}

	e.Evaluate(context.Background(), plant, models.SensorReading{Temperature: 10, Humidity: 20, LightLevel: 300})

	assert.Equal(t, 2, sender.count())
}

func TestEvaluator_SendFailureDoesNotAbortRemainingViolations(t *testing.T) {
	sender := &fakeAlertSender{sendErr: fmt.Errorf("gateway down")}
	e := NewEvaluator(NewThrottle(30*time.Second), sender, zap.NewNop())

	// 发送失败只记录日志，评估不额外报错
	e.Evaluate(context.Background(), plant7(), models.SensorReading{Temperature: 10, Humidity: 50, LightLevel: 300})

	assert.Equal(t, 0, sender.count())
}

func TestEvaluator_NoViolationNoDispatch(t *testing.T) {
	sender := &fakeAlertSender{}
	e := NewEvaluator(NewThrottle(30*time.Second), sender, zap.NewNop())

	e.Evaluate(context.Background(), plant7(), models.SensorReading{Temperature: 20, Humidity: 50, LightLevel: 300})

	assert.Equal(t, 0, sender.count())
}
