package web

import (
	"benchlink/pkg/apis/response"
	"benchlink/pkg/transport"
	"context"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"net/http"
	"sort"
)

// Instrument is a text instrument reachable by name.
type Instrument interface {
	Name() string
	State() transport.State
	Query(ctx context.Context, command string) (string, error)
	Send(ctx context.Context, command string) error
}

type instrumentStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type instrumentCommand struct {
	Command string `json:"command" binding:"required"`
}

type instrumentReply struct {
	Reply string `json:"reply"`
}

func InstallInstrumentHandler(group *gin.RouterGroup, instruments []Instrument) {
	byName := make(map[string]Instrument, len(instruments))
	for _, i := range instruments {
		byName[i.Name()] = i
	}
	group.GET("/instruments", listInstruments(byName))
	group.POST("/instruments/:name/query", queryInstrument(byName))
	group.POST("/instruments/:name/send", sendInstrument(byName))
}

func listInstruments(byName map[string]Instrument) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := make([]instrumentStatus, 0, len(byName))
		for name, i := range byName {
			statuses = append(statuses, instrumentStatus{Name: name, State: i.State().String()})
		}
		sort.Slice(statuses, func(a, b int) bool {
			return statuses[a].Name < statuses[b].Name
		})
		c.JSON(http.StatusOK, statuses)
	}
}

func queryInstrument(byName map[string]Instrument) gin.HandlerFunc {
	return func(c *gin.Context) {
		i, command, ok := bindInstrumentCommand(c, byName)
		if !ok {
			return
		}
		reply, err := i.Query(c.Request.Context(), command)
		if err != nil {
			abortWithDeviceError(c, i.Name(), err)
			return
		}
		c.JSON(http.StatusOK, instrumentReply{Reply: reply})
	}
}

func sendInstrument(byName map[string]Instrument) gin.HandlerFunc {
	return func(c *gin.Context) {
		i, command, ok := bindInstrumentCommand(c, byName)
		if !ok {
			return
		}
		if err := i.Send(c.Request.Context(), command); err != nil {
			abortWithDeviceError(c, i.Name(), err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func bindInstrumentCommand(c *gin.Context, byName map[string]Instrument) (Instrument, string, bool) {
	name := c.Param("name")
	i, ok := byName[name]
	if !ok {
		c.JSON(http.StatusNotFound, response.NewMultiError(response.ErrResourceNotFound("instrument "+name)))
		return nil, "", false
	}
	var body instrumentCommand
	if err := c.ShouldBindJSON(&body); err != nil {
		klog.V(2).InfoS("Failed to parse instrument command", "instrument", name, "err", err)
		c.JSON(http.StatusBadRequest, response.NewMultiError(response.ErrMalformedJSON))
		return nil, "", false
	}
	return i, body.Command, true
}
