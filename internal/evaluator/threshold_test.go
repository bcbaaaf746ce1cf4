package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

func floatPtr(f float64) *float64 { return &f }

func TestCheckThresholds_NoThresholdsConfigured(t *testing.T) {
	violations := CheckThresholds(models.SensorReading{Temperature: -100, Humidity: 200, LightLevel: 1e9}, nil)
	assert.Empty(t, violations)
}

func TestCheckThresholds_LowTemperature(t *testing.T) {
	th := &models.Thresholds{
		TemperatureMin: floatPtr(15),
		TemperatureMax: floatPtr(30),
	}

	violations := CheckThresholds(models.SensorReading{Temperature: 10, Humidity: 50, LightLevel: 300}, th)

	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, DimensionTemp, v.Dimension)
	assert.Equal(t, DirectionLow, v.Direction)
	assert.Equal(t, 10.0, v.Observed)
	assert.Equal(t, 15.0, v.Bound)
	assert.Equal(t, "low_temp_plant-7", v.IssueKey("plant-7"))
}

func TestCheckThresholds_StrictComparison(t *testing.T) {
	th := &models.Thresholds{
		TemperatureMin: floatPtr(15),
		TemperatureMax: floatPtr(30),
	}

	// 边界值本身不算违规（min 严格小于，max 严格大于）
	assert.Empty(t, CheckThresholds(models.SensorReading{Temperature: 15}, th))
	assert.Empty(t, CheckThresholds(models.SensorReading{Temperature: 30}, th))
	assert.Len(t, CheckThresholds(models.SensorReading{Temperature: 14.9}, th), 1)
	assert.Len(t, CheckThresholds(models.SensorReading{Temperature: 30.1}, th), 1)
}

func TestCheckThresholds_EachBoundIndependent(t *testing.T) {
	// 只配置湿度上限：其余维度越界也不产生违规
	th := &models.Thresholds{HumidityMax: floatPtr(80)}

	violations := CheckThresholds(models.SensorReading{Temperature: -50, Humidity: 90, LightLevel: 0}, th)

	require.Len(t, violations, 1)
	assert.Equal(t, DimensionHumidity, violations[0].Dimension)
	assert.Equal(t, DirectionHigh, violations[0].Direction)
}

func TestCheckThresholds_MultipleSimultaneousViolations(t *testing.T) {
	th := &models.Thresholds{
		TemperatureMin: floatPtr(15),
		HumidityMin:    floatPtr(40),
		LightMin:       floatPtr(200),
	}

	violations := CheckThresholds(models.SensorReading{Temperature: 5, Humidity: 10, LightLevel: 50}, th)

	require.Len(t, violations, 3)
	keys := make(map[string]bool)
	for _, v := range violations {
		keys[v.IssueKey("p")] = true
	}
	assert.True(t, keys["low_temp_p"])
	assert.True(t, keys["low_humidity_p"])
	assert.True(t, keys["low_light_p"])
}
