package broker

import (
	"benchlink/pkg/runtime"
	"context"
	"k8s.io/klog/v2"
)

// LogPublisher logs poll batches when no MQTT broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, data *runtime.PublishData) error {
	for _, series := range data.Payload.Data {
		klog.V(3).InfoS("Polled points", "timestamp", series.Timestamp, "values", series.Values)
	}
	return nil
}
