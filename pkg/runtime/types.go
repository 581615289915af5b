package runtime

import (
	"context"
	"time"
)

// TimestampLayout is the UTC layout of TimeSeriesData.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type LabeledCloser struct {
	Label  string
	Closer func(context.Context) error
}

type PublishData struct {
	Payload Payload `json:"payload"`
}

type Payload struct {
	Data []TimeSeriesData `json:"data"`
}

type TimeSeriesData struct {
	Timestamp string      `json:"timestamp"`
	Values    []PointData `json:"values"`
}

type PointData struct {
	DataPointId string      `json:"dataPointId"`
	Value       interface{} `json:"value"`
}

func NewPublishData(at time.Time, values []PointData) *PublishData {
	return &PublishData{Payload: Payload{Data: []TimeSeriesData{{
		Timestamp: at.UTC().Format(TimestampLayout),
		Values:    values,
	}}}}
}
