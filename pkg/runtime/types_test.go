package runtime

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"testing"
	"time"
)

func TestNewPublishData(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 30, 0, 123e6, time.FixedZone("CST", 8*3600))
	data := NewPublishData(at, []PointData{{DataPointId: "temperature", Value: uint16(215)}})

	b, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"payload":{"data":[{"timestamp":"2024-03-01T00:30:00.123Z","values":[{"dataPointId":"temperature","value":215}]}]}}`, string(b))
}

func TestValidateName(t *testing.T) {
	assert.Empty(t, ValidateName("pump_1.speed", field.NewPath("name")))
	assert.Len(t, ValidateName("", field.NewPath("name")), 1)
	assert.NotEmpty(t, ValidateName("-speed", field.NewPath("name")))
	assert.NotEmpty(t, ValidateName("speed rpm", field.NewPath("name")))
}
