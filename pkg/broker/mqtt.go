package broker

import (
	"benchlink/pkg/action"
	"benchlink/pkg/runtime"
	"benchlink/pkg/utils/uuidutil"
	"context"
	"encoding/json"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"sync"
)

var (
	ErrPublishTimeout = errors.New("mqtt publish timed out")
	ErrNotConnected   = errors.New("mqtt client not connected")
)

// ActionRequest is the body of a message on the action topic. A request without
// an id gets a generated one.
type ActionRequest struct {
	Id      string                   `json:"id,omitempty"`
	Actions []map[string]interface{} `json:"actions"`
}

// ActionReply is published on the reply topic for every ActionRequest.
type ActionReply struct {
	Id      string          `json:"id,omitempty"`
	Results []action.Result `json:"results,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Broker publishes poll batches and runs actions received over MQTT.
type Broker struct {
	o        Options
	client   mqtt.Client
	executor action.Client
	actions  sync.WaitGroup
}

// NewBroker builds a paho client for o. Actions are executed on executor; a nil
// executor leaves the action topic unsubscribed.
func NewBroker(o Options, executor action.Client) *Broker {
	o.complete()
	b := &Broker{o: o, executor: executor}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientId)
	opts.SetUsername(o.Username)
	opts.SetPassword(o.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetOnConnectHandler(b.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		klog.V(1).InfoS("Lost MQTT connection", "broker", o.Broker, "err", err)
	})
	b.client = mqtt.NewClient(opts)
	return b
}

func newBroker(client mqtt.Client, o Options, executor action.Client) *Broker {
	o.complete()
	return &Broker{o: o, client: client, executor: executor}
}

// Options returns the options with defaults filled in.
func (b *Broker) Options() Options {
	return b.o
}

// Connect starts connecting and waits until the first connection succeeds or ctx
// ends. The client keeps retrying in the background either way.
func (b *Broker) Connect(ctx context.Context) error {
	token := b.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			klog.V(1).InfoS("Failed to connect MQTT broker", "broker", b.o.Broker, "err", err)
			return err
		}
		return nil
	case <-ctx.Done():
		klog.V(1).InfoS("MQTT broker not reachable yet, retrying in background", "broker", b.o.Broker)
		return ctx.Err()
	}
}

func (b *Broker) onConnect(client mqtt.Client) {
	klog.V(1).InfoS("Connected MQTT broker", "broker", b.o.Broker, "clientId", b.o.ClientId)
	if b.executor == nil {
		return
	}
	token := client.Subscribe(b.o.ActionTopic, b.o.Qos, b.onAction)
	if token.WaitTimeout(b.o.Timeout) && token.Error() == nil {
		klog.V(1).InfoS("Succeed to subscribe action topic", "topic", b.o.ActionTopic)
	} else {
		klog.V(1).InfoS("Failed to subscribe action topic", "topic", b.o.ActionTopic, "err", token.Error())
	}
}

// Publish implements the poller publisher.
func (b *Broker) Publish(_ context.Context, data *runtime.PublishData) error {
	return b.publish(b.o.DataTopic, data)
}

func (b *Broker) publish(topic string, v interface{}) error {
	if !b.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	marshal, err := json.Marshal(v)
	if err != nil {
		return err
	}
	token := b.client.Publish(topic, b.o.Qos, false, marshal)
	if !token.WaitTimeout(b.o.Timeout) {
		klog.V(1).InfoS("Failed to publish MQTT", "topic", topic, "err", ErrPublishTimeout)
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		klog.V(1).InfoS("Failed to publish MQTT", "topic", topic, "err", err)
		return err
	}
	klog.V(5).InfoS("Succeed to publish MQTT", "topic", topic, "data", string(marshal))
	return nil
}

// onAction runs on the paho router, which must not block, so the action is
// executed on its own goroutine.
func (b *Broker) onAction(_ mqtt.Client, msg mqtt.Message) {
	b.actions.Add(1)
	go func() {
		defer b.actions.Done()
		b.handleAction(msg.Payload())
	}()
}

func (b *Broker) handleAction(payload []byte) {
	reply := b.execute(payload)
	if err := b.publish(b.o.ReplyTopic, reply); err != nil {
		klog.V(2).InfoS("Failed to reply action", "id", reply.Id, "err", err)
	}
}

func (b *Broker) execute(payload []byte) *ActionReply {
	var request ActionRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		klog.V(2).InfoS("Failed to parse action request", "err", err)
		return &ActionReply{Error: errors.Wrap(err, "malformed action request").Error()}
	}
	if len(request.Id) == 0 {
		request.Id = uuidutil.ShortUUID()
	}
	reply := &ActionReply{Id: request.Id}
	actions, err := action.DecodeAll(request.Actions)
	if err != nil {
		klog.V(2).InfoS("Failed to decode actions", "id", request.Id, "err", err)
		reply.Error = err.Error()
		return reply
	}
	if len(actions) == 0 {
		reply.Error = "no actions"
		return reply
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.o.ActionTimeout)
	defer cancel()
	reply.Results = action.ExecuteAll(ctx, b.executor, actions)
	klog.V(4).InfoS("Executed actions", "id", request.Id, "count", len(actions))
	return reply
}

// Shutdown waits for running actions to reply, then disconnects from the broker.
func (b *Broker) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.actions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		klog.V(1).InfoS("Failed to wait for running actions", "err", ctx.Err())
	}
	b.client.Disconnect(quiesceMillis)
	klog.V(1).InfoS("Disconnected MQTT broker", "broker", b.o.Broker)
	return nil
}
