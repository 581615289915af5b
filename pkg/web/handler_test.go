package web

import (
	"benchlink/pkg/generic"
	"benchlink/pkg/poller"
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"benchlink/pkg/runtime"
	"benchlink/pkg/transport"
	"context"
	"encoding/json"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeDevice struct {
	state   transport.State
	err     error
	coils   map[uint16]bool
	holding map[uint16]uint16
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{state: transport.Connected, coils: map[uint16]bool{}, holding: map[uint16]uint16{}}
}

func (d *fakeDevice) Mode() modbus.Mode { return modbus.Tcp }
func (d *fakeDevice) UnitId() uint8 { return 1 }
func (d *fakeDevice) Address() string { return "10.0.0.5:502" }
func (d *fakeDevice) State() transport.State { return d.state }

func (d *fakeDevice) ReadCoils(_ context.Context, address, quantity uint16) ([]bool, error) {
	if d.err != nil {
		return nil, d.err
	}
	values := make([]bool, quantity)
	for i := range values {
		values[i] = d.coils[address+uint16(i)]
	}
	return values, nil
}

func (d *fakeDevice) ReadDiscreteInputs(_ context.Context, _, quantity uint16) ([]bool, error) {
	return make([]bool, quantity), d.err
}

func (d *fakeDevice) ReadHoldingRegisters(_ context.Context, address, quantity uint16) ([]uint16, error) {
	if d.err != nil {
		return nil, d.err
	}
	values := make([]uint16, quantity)
	for i := range values {
		values[i] = d.holding[address+uint16(i)]
	}
	return values, nil
}

func (d *fakeDevice) ReadInputRegisters(_ context.Context, _, quantity uint16) ([]uint16, error) {
	return make([]uint16, quantity), d.err
}

func (d *fakeDevice) WriteSingleCoil(_ context.Context, address uint16, value bool) error {
	if d.err == nil {
		d.coils[address] = value
	}
	return d.err
}

func (d *fakeDevice) WriteSingleRegister(_ context.Context, address, value uint16) error {
	if d.err == nil {
		d.holding[address] = value
	}
	return d.err
}

func (d *fakeDevice) WriteMultipleCoils(_ context.Context, address uint16, values []bool) error {
	if d.err != nil {
		return d.err
	}
	for i, v := range values {
		d.coils[address+uint16(i)] = v
	}
	return nil
}

func (d *fakeDevice) WriteMultipleRegisters(_ context.Context, address uint16, values []uint16) error {
	if d.err != nil {
		return d.err
	}
	for i, v := range values {
		d.holding[address+uint16(i)] = v
	}
	return nil
}

type fakeMonitor struct {
	latest *runtime.TimeSeriesData
}

func (m *fakeMonitor) Status() poller.Status {
	return poller.Status{Polls: 3, Failures: 1, Published: 2}
}

func (m *fakeMonitor) Latest() (runtime.TimeSeriesData, bool) {
	if m.latest == nil {
		return runtime.TimeSeriesData{}, false
	}
	return *m.latest, true
}

func newRouter(device Device, monitor Monitor) *gin.Engine {
	router := generic.Default()
	InstallHandler(router.Group("/api/v1"), device, monitor)
	return router
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if len(body) > 0 {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) int {
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Errors, 1)
	return body.Errors[0].Code
}

func TestGetStatus(t *testing.T) {
	w := do(newRouter(newFakeDevice(), &fakeMonitor{}), http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status deviceStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, modbus.Tcp, status.Mode)
	assert.Equal(t, "connected", status.State)
	assert.Equal(t, "10.0.0.5:502", status.Address)
	assert.Equal(t, uint64(3), status.Poll.Polls)
}

func TestGetPoints(t *testing.T) {
	monitor := &fakeMonitor{}
	router := newRouter(newFakeDevice(), monitor)

	w := do(router, http.MethodGet, "/api/v1/points", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	data := runtime.NewPublishData(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), []runtime.PointData{{DataPointId: "temp", Value: 21.5}})
	monitor.latest = &data.Payload.Data[0]
	w = do(router, http.MethodGet, "/api/v1/points", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dataPointId":"temp"`)
	assert.Contains(t, w.Body.String(), "2024-03-01T08:00:00.000Z")
}

func TestReadRegisters(t *testing.T) {
	device := newFakeDevice()
	device.holding[10] = 7
	device.holding[11] = 8
	router := newRouter(device, nil)

	w := do(router, http.MethodGet, "/api/v1/holding-registers?start=10&count=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"start":10,"values":[7,8]}`, w.Body.String())

	w = do(router, http.MethodGet, "/api/v1/coils", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"start":0,"values":[false]}`, w.Body.String())
}

func TestReadRejectsBadQuery(t *testing.T) {
	router := newRouter(newFakeDevice(), nil)
	for _, target := range []string{
		"/api/v1/input-registers?start=-1",
		"/api/v1/input-registers?start=65536",
		"/api/v1/discrete-inputs?count=many",
	} {
		w := do(router, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, 10006, decodeErrorCode(t, w), target)
	}
}

func TestWrites(t *testing.T) {
	device := newFakeDevice()
	router := newRouter(device, nil)

	w := do(router, http.MethodPut, "/api/v1/coils/3", `{"value":true}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, device.coils[3])

	w = do(router, http.MethodPut, "/api/v1/holding-registers/4", `{"value":1234}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, uint16(1234), device.holding[4])

	w = do(router, http.MethodPost, "/api/v1/coils", `{"start":20,"values":[true,false,true]}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, device.coils[22])

	w = do(router, http.MethodPost, "/api/v1/holding-registers", `{"start":30,"values":[1,2]}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, uint16(2), device.holding[31])
}

func TestWritesRejectMalformedBody(t *testing.T) {
	router := newRouter(newFakeDevice(), nil)

	w := do(router, http.MethodPut, "/api/v1/holding-registers/4", `{"value":70000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 10001, decodeErrorCode(t, w))

	w = do(router, http.MethodPut, "/api/v1/coils/3", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPut, "/api/v1/coils/x", `{"value":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 10006, decodeErrorCode(t, w))
}

func TestDeviceErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not connected", transport.ErrNotConnected, http.StatusServiceUnavailable, 10008},
		{"transport failure", &transport.TransportError{Op: "read", Address: "10.0.0.5:502", Err: errors.New("reset")}, http.StatusServiceUnavailable, 10008},
		{"timeout", transport.ErrTimeout, http.StatusGatewayTimeout, 10009},
		{"exception", &modbus.ExceptionError{FunctionCode: modbus.ReadHoldingRegisters, Code: modbus.IllegalDataAddress}, http.StatusBadGateway, 10010},
		{"protocol", errors.Wrap(modbus.ErrTransaction, "got 3"), http.StatusBadGateway, 10011},
		{"frame", modbus.ErrCrcMismatch, http.StatusBadGateway, 10011},
		{"validation", errors.Wrap(modbus.ErrInvalidQuantity, "quantity 0"), http.StatusBadRequest, 10007},
		{"other", errors.New("boom"), http.StatusInternalServerError, 10012},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			device := newFakeDevice()
			device.err = tc.err
			w := do(newRouter(device, nil), http.MethodGet, "/api/v1/holding-registers?count=1", "")
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeErrorCode(t, w))
		})
	}
}

func TestExecuteActions(t *testing.T) {
	device := newFakeDevice()
	router := newRouter(device, nil)

	w := do(router, http.MethodPost, "/api/v1/actions", `{"actions":[
		{"function":"writeSingleRegister","address":5,"value":99},
		{"function":"readHoldingRegisters","address":5,"count":1}
	]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[
		{"function":"writeSingleRegister","address":5},
		{"function":"readHoldingRegisters","address":5,"values":[99]}
	]}`, w.Body.String())

	w = do(router, http.MethodPost, "/api/v1/actions", `{"actions":[{"function":"format"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 10007, decodeErrorCode(t, w))

	w = do(router, http.MethodPost, "/api/v1/actions", `{"actions":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 10005, decodeErrorCode(t, w))
}
