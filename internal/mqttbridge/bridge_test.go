package mqttbridge

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kangsudal/nerdycatcher-server/internal/models"
)

type fakeBridgeVerifier struct {
	validKey string
	device   models.DeviceIdentity
}

func (f *fakeBridgeVerifier) VerifyUserToken(ctx context.Context, token string) (*models.ViewerIdentity, error) {
	return nil, fmt.Errorf("not supported")
}

func (f *fakeBridgeVerifier) VerifyDeviceKey(ctx context.Context, apiKey string) (*models.DeviceIdentity, error) {
	if apiKey != f.validKey {
		return nil, fmt.Errorf("device not found")
	}
	d := f.device
	return &d, nil
}

type fakeBridgeSink struct {
	devices  []models.DeviceIdentity
	readings []models.SensorReading
}

func (f *fakeBridgeSink) Process(ctx context.Context, device models.DeviceIdentity, reading models.SensorReading) {
	f.devices = append(f.devices, device)
	f.readings = append(f.readings, reading)
}

func setupBridge() (*fakeBridgeSink, *Bridge) {
	sink := &fakeBridgeSink{}
	verifier := &fakeBridgeVerifier{
		validKey: "good-key",
		device:   models.DeviceIdentity{DeviceID: "device-1", PlantID: "plant-7"},
	}
	bridge := NewBridge(Options{Topic: "plantrelay/ingest"}, verifier, sink, zap.NewNop())
	return sink, bridge
}

func TestHandleMessage_Valid(t *testing.T) {
	sink, bridge := setupBridge()

	bridge.HandleMessage("plantrelay/ingest",
		[]byte(`{"api_key":"good-key","temperature":23.0,"humidity":50.0,"light_level":200.0}`))

	require.Len(t, sink.readings, 1)
	assert.Equal(t, "plant-7", sink.devices[0].PlantID)
	assert.Equal(t, 23.0, sink.readings[0].Temperature)
	assert.Equal(t, 50.0, sink.readings[0].Humidity)
	assert.Equal(t, 200.0, sink.readings[0].LightLevel)
}

func TestHandleMessage_BadAPIKey(t *testing.T) {
	sink, bridge := setupBridge()

	bridge.HandleMessage("plantrelay/ingest",
		[]byte(`{"api_key":"wrong-key","temperature":23.0,"humidity":50.0,"light_level":200.0}`))

	assert.Empty(t, sink.readings)
}

func TestHandleMessage_MissingFields(t *testing.T) {
	sink, bridge := setupBridge()

	bridge.HandleMessage("plantrelay/ingest",
		[]byte(`{"api_key":"good-key","temperature":23.0}`))

	assert.Empty(t, sink.readings)
}

func TestHandleMessage_MalformedJSON(t *testing.T) {
	sink, bridge := setupBridge()

	bridge.HandleMessage("plantrelay/ingest", []byte("{not json"))

	assert.Empty(t, sink.readings)
}
