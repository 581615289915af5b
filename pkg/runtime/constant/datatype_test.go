package constant

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestMemoryLayoutBigEndian(t *testing.T) {
	cases := map[MemoryLayout][]byte{
		ABCD: {0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		BADC: {0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07},
		CDAB: {0x07, 0x08, 0x05, 0x06, 0x03, 0x04, 0x01, 0x02},
		DCBA: {0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01},
	}
	for layout, wire := range cases {
		t.Run(layout.String(), func(t *testing.T) {
			assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, layout.BigEndian(wire))
		})
	}
}

func TestDecodeFloat32Layouts(t *testing.T) {
	cases := map[MemoryLayout][]byte{
		ABCD: {0x3F, 0x80, 0x00, 0x00},
		BADC: {0x80, 0x3F, 0x00, 0x00},
		CDAB: {0x00, 0x00, 0x3F, 0x80},
		DCBA: {0x00, 0x00, 0x80, 0x3F},
	}
	for layout, wire := range cases {
		v, err := FLOAT32.Decode(wire, layout)
		require.NoError(t, err)
		assert.Equal(t, float32(1), v, layout.String())
	}
}

func TestDecode(t *testing.T) {
	cases := []struct {
		dt     DataType
		layout MemoryLayout
		data   []byte
		want   interface{}
	}{
		{UINT16, ABCD, []byte{0x12, 0x34}, uint16(0x1234)},
		{UINT16, DCBA, []byte{0x12, 0x34}, uint16(0x3412)},
		{UINT16, CDAB, []byte{0x12, 0x34}, uint16(0x1234)},
		{INT16, ABCD, []byte{0xFF, 0xFE}, int16(-2)},
		{BOOL, ABCD, []byte{0x00, 0x01}, true},
		{BOOL, ABCD, []byte{0x00, 0x00}, false},
		{UINT32, ABCD, []byte{0x00, 0x01, 0x00, 0x00}, uint32(65536)},
		{INT32, CDAB, []byte{0xFF, 0xFF, 0xFF, 0xFF}, int32(-1)},
		{INT64, ABCD, []byte{0, 0, 0, 0, 0, 0, 0x01, 0x00}, int64(256)},
		{FLOAT64, ABCD, []byte{0x3F, 0xF0, 0, 0, 0, 0, 0, 0}, float64(1)},
		{STRING, ABCD, []byte{'O', 'K', 0x00, 0x00}, "OK"},
		{UINT16, ABCD, []byte{0x00, 0x01, 0xFF, 0xFF}, uint16(1)},
	}
	for _, tc := range cases {
		v, err := tc.dt.Decode(tc.data, tc.layout)
		require.NoError(t, err, tc.dt.String())
		assert.Equal(t, tc.want, v, tc.dt.String())
	}

	_, err := FLOAT32.Decode([]byte{0x00, 0x01}, ABCD)
	assert.Error(t, err)
	_, err = DataType(42).Decode([]byte{0x00, 0x01}, ABCD)
	assert.Error(t, err)
}

func TestDataTypeJSON(t *testing.T) {
	var v struct {
		DataType DataType     `json:"dataType"`
		Layout   MemoryLayout `json:"memoryLayout"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"dataType":"float32","memoryLayout":"CDAB"}`), &v))
	assert.Equal(t, FLOAT32, v.DataType)
	assert.Equal(t, CDAB, v.Layout)

	assert.Error(t, json.Unmarshal([]byte(`{"dataType":"decimal"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"memoryLayout":"AABB"}`), &v))

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dataType":"float32","memoryLayout":"CDAB"}`, string(data))
}
