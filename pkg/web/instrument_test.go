package web

import (
	"benchlink/pkg/generic"
	"benchlink/pkg/instrument"
	"benchlink/pkg/transport"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
)

type fakeInstrument struct {
	name    string
	replies map[string]string
	err     error
	sent    []string
}

func (i *fakeInstrument) Name() string           { return i.name }
func (i *fakeInstrument) State() transport.State { return transport.Connected }

func (i *fakeInstrument) Query(_ context.Context, command string) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	return i.replies[command], nil
}

func (i *fakeInstrument) Send(_ context.Context, command string) error {
	i.sent = append(i.sent, command)
	return i.err
}

func TestInstrumentHandlers(t *testing.T) {
	meter := &fakeInstrument{name: "meter", replies: map[string]string{"*IDN?": "HIOKI,DM7275,0,V1.00"}}
	scanner := &fakeInstrument{name: "scanner"}
	router := generic.Default()
	InstallInstrumentHandler(router.Group("/api/v1"), []Instrument{scanner, meter})

	w := do(router, http.MethodGet, "/api/v1/instruments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"meter","state":"connected"},{"name":"scanner","state":"connected"}]`, w.Body.String())

	w = do(router, http.MethodPost, "/api/v1/instruments/meter/query", `{"command":"*IDN?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply":"HIOKI,DM7275,0,V1.00"}`, w.Body.String())

	w = do(router, http.MethodPost, "/api/v1/instruments/scanner/send", `{"command":"LON"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"LON"}, scanner.sent)

	w = do(router, http.MethodPost, "/api/v1/instruments/printer/query", `{"command":"*IDN?"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodPost, "/api/v1/instruments/meter/query", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInstrumentErrors(t *testing.T) {
	meter := &fakeInstrument{name: "meter"}
	router := generic.Default()
	InstallInstrumentHandler(router.Group("/api/v1"), []Instrument{meter})

	meter.err = &instrument.ReplyError{Reply: "ERR -113"}
	w := do(router, http.MethodPost, "/api/v1/instruments/meter/query", `{"command":"FOO?"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 10010, decodeErrorCode(t, w))

	meter.err = transport.ErrTimeout
	w = do(router, http.MethodPost, "/api/v1/instruments/meter/query", `{"command":"*IDN?"}`)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
