package web

import (
	"benchlink/pkg/action"
	"benchlink/pkg/apis"
	"benchlink/pkg/apis/response"
	"benchlink/pkg/instrument"
	"benchlink/pkg/poller"
	modbus "benchlink/pkg/protocol/modbus/runtime"
	"benchlink/pkg/runtime"
	"benchlink/pkg/transport"
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"net/http"
	"strconv"
)

// Device is the modbus unit served over HTTP.
type Device interface {
	action.Client
	Mode() modbus.Mode
	UnitId() uint8
	Address() string
	State() transport.State
}

// Monitor exposes the poll loop.
type Monitor interface {
	Status() poller.Status
	Latest() (runtime.TimeSeriesData, bool)
}

type deviceStatus struct {
	Mode    modbus.Mode   `json:"mode"`
	UnitId  uint8         `json:"unitId"`
	Address string        `json:"address"`
	State   string        `json:"state"`
	Poll    poller.Status `json:"poll"`
}

type readResult struct {
	Start  uint16      `json:"start"`
	Values interface{} `json:"values"`
}

type singleCoil struct {
	Value *bool `json:"value" binding:"required"`
}

type singleRegister struct {
	Value *uint16 `json:"value" binding:"required"`
}

type multipleCoils struct {
	Start  uint16 `json:"start"`
	Values []bool `json:"values" binding:"required"`
}

type multipleRegisters struct {
	Start  uint16   `json:"start"`
	Values []uint16 `json:"values" binding:"required"`
}

type actionsRequest struct {
	Actions []map[string]interface{} `json:"actions" binding:"required"`
}

type actionsResponse struct {
	Results []action.Result `json:"results"`
}

func InstallHandler(group *gin.RouterGroup, device Device, monitor Monitor) {
	group.GET("/status", getStatus(device, monitor))
	group.GET("/points", getPoints(monitor))

	group.GET("/coils", readBits(device, device.ReadCoils))
	group.GET("/discrete-inputs", readBits(device, device.ReadDiscreteInputs))
	group.GET("/holding-registers", readRegisters(device, device.ReadHoldingRegisters))
	group.GET("/input-registers", readRegisters(device, device.ReadInputRegisters))

	group.PUT("/coils/:address", writeSingleCoil(device))
	group.PUT("/holding-registers/:address", writeSingleRegister(device))
	group.POST("/coils", writeMultipleCoils(device))
	group.POST("/holding-registers", writeMultipleRegisters(device))

	group.POST("/actions", executeActions(device))
}

func getStatus(device Device, monitor Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := deviceStatus{
			Mode:    device.Mode(),
			UnitId:  device.UnitId(),
			Address: device.Address(),
			State:   device.State().String(),
		}
		if monitor != nil {
			status.Poll = monitor.Status()
		}
		c.JSON(http.StatusOK, status)
	}
}

func getPoints(monitor Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if monitor == nil {
			c.JSON(http.StatusNotFound, response.NewMultiError(response.ErrResourceNotFound("poll data")))
			return
		}
		latest, ok := monitor.Latest()
		if !ok {
			c.JSON(http.StatusNotFound, response.NewMultiError(response.ErrResourceNotFound("poll data")))
			return
		}
		c.JSON(http.StatusOK, latest)
	}
}

func readBits(device Device, read func(context.Context, uint16, uint16) ([]bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, count, ok := parseRange(c)
		if !ok {
			return
		}
		values, err := read(c.Request.Context(), start, count)
		if err != nil {
			abortWithDeviceError(c, device.Address(), err)
			return
		}
		c.JSON(http.StatusOK, readResult{Start: start, Values: values})
	}
}

func readRegisters(device Device, read func(context.Context, uint16, uint16) ([]uint16, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, count, ok := parseRange(c)
		if !ok {
			return
		}
		values, err := read(c.Request.Context(), start, count)
		if err != nil {
			abortWithDeviceError(c, device.Address(), err)
			return
		}
		c.JSON(http.StatusOK, readResult{Start: start, Values: values})
	}
}

func writeSingleCoil(device Device) gin.HandlerFunc {
	return func(c *gin.Context) {
		address, ok := parseAddress(c)
		if !ok {
			return
		}
		var body singleCoil
		if err := c.ShouldBindJSON(&body); err != nil {
			klog.V(2).InfoS("Failed to parse coil value", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := device.WriteSingleCoil(c.Request.Context(), address, *body.Value); err != nil {
			abortWithDeviceError(c, device.Address(), err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func writeSingleRegister(device Device) gin.HandlerFunc {
	return func(c *gin.Context) {
		address, ok := parseAddress(c)
		if !ok {
			return
		}
		var body singleRegister
		if err := c.ShouldBindJSON(&body); err != nil {
			klog.V(2).InfoS("Failed to parse register value", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := device.WriteSingleRegister(c.Request.Context(), address, *body.Value); err != nil {
			abortWithDeviceError(c, device.Address(), err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func writeMultipleCoils(device Device) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body multipleCoils
		if err := c.ShouldBindJSON(&body); err != nil {
			klog.V(2).InfoS("Failed to parse coil values", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := device.WriteMultipleCoils(c.Request.Context(), body.Start, body.Values); err != nil {
			abortWithDeviceError(c, device.Address(), err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func writeMultipleRegisters(device Device) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body multipleRegisters
		if err := c.ShouldBindJSON(&body); err != nil {
			klog.V(2).InfoS("Failed to parse register values", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		if err := device.WriteMultipleRegisters(c.Request.Context(), body.Start, body.Values); err != nil {
			abortWithDeviceError(c, device.Address(), err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func executeActions(device Device) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body actionsRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			klog.V(2).InfoS("Failed to parse actions", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
			return
		}
		actions, err := action.DecodeAll(body.Actions)
		if err != nil {
			klog.V(2).InfoS("Failed to decode actions", "err", err)
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrInvalidRequest(err)))
			return
		}
		if len(actions) == 0 {
			c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrLegalActionNotFound))
			return
		}
		c.JSON(http.StatusOK, actionsResponse{Results: action.ExecuteAll(c.Request.Context(), device, actions)})
	}
}

func parseRange(c *gin.Context) (uint16, uint16, bool) {
	start, err := parseUint16(c.DefaultQuery(apis.Start, "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrInvalidQuery(apis.Start, err)))
		return 0, 0, false
	}
	count, err := parseUint16(c.DefaultQuery(apis.Count, "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrInvalidQuery(apis.Count, err)))
		return 0, 0, false
	}
	return start, count, true
}

func parseAddress(c *gin.Context) (uint16, bool) {
	address, err := parseUint16(c.Param(apis.Address))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrInvalidQuery(apis.Address, err)))
		return 0, false
	}
	return address, true
}

func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number in [0, 65535]", s)
	}
	return uint16(v), nil
}

// abortWithDeviceError maps a device or instrument failure to its HTTP status.
func abortWithDeviceError(c *gin.Context, address string, err error) {
	klog.V(2).InfoS("Failed to serve device request", "address", address, "URI", c.Request.URL.Path, "err", err)
	var exception *modbus.ExceptionError
	var transportErr *transport.TransportError
	switch {
	case errors.As(err, &exception), errors.Is(err, instrument.ErrInstrumentErr):
		c.JSON(http.StatusBadGateway, response.NewMultiError(response.ErrDeviceException(err)))
	case errors.Is(err, modbus.ErrValidation), errors.Is(err, instrument.ErrEmptyCommand):
		c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrInvalidRequest(err)))
	case errors.Is(err, modbus.ErrProtocol), errors.Is(err, modbus.ErrFrameFormat), errors.Is(err, instrument.ErrUnterminated):
		c.JSON(http.StatusBadGateway, response.NewMultiError(response.ErrDeviceProtocol(err)))
	case errors.Is(err, transport.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, response.NewMultiError(response.ErrDeviceTimeout(address, err)))
	case errors.Is(err, transport.ErrNotConnected), errors.As(err, &transportErr):
		c.JSON(http.StatusServiceUnavailable, response.NewMultiError(response.ErrDeviceNotConnected(address, err)))
	default:
		c.JSON(http.StatusInternalServerError, response.NewMultiError(response.ErrInternal(err)))
	}
}
