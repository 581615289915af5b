package broker

import (
	"fmt"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"net/url"
	"time"
)

const (
	defaultQos           = 1
	defaultTimeout       = 3 * time.Second
	defaultActionTimeout = 5 * time.Second
	defaultKeepAlive     = 60 * time.Second
	quiesceMillis        = 250
)

type Options struct {
	// Broker is the server url, e.g. tcp://127.0.0.1:1883. Empty disables MQTT.
	Broker   string `json:"broker"`
	ClientId string `json:"clientId"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Qos      byte   `json:"qos"`
	// DataTopic receives poll batches.
	DataTopic string `json:"dataTopic,omitempty"`
	// ActionTopic carries action requests; results go to ReplyTopic.
	ActionTopic   string        `json:"actionTopic,omitempty"`
	ReplyTopic    string        `json:"replyTopic,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty"`
	ActionTimeout time.Duration `json:"actionTimeout,omitempty"`
}

func NewDefaultOptions() Options {
	return Options{
		Qos:           defaultQos,
		Timeout:       defaultTimeout,
		ActionTimeout: defaultActionTimeout,
	}
}

func (o *Options) Enabled() bool {
	return len(o.Broker) > 0
}

func (o *Options) Validate(fldPath *field.Path) field.ErrorList {
	var errs field.ErrorList
	if !o.Enabled() {
		return errs
	}
	if u, err := url.Parse(o.Broker); err != nil || len(u.Scheme) == 0 || len(u.Host) == 0 {
		errs = append(errs, field.Invalid(fldPath.Child("broker"), o.Broker, "must be a url such as tcp://host:1883"))
	}
	if len(o.ClientId) == 0 {
		errs = append(errs, field.Required(fldPath.Child("clientId"), "client id must not be empty"))
	}
	if o.Qos > 2 {
		errs = append(errs, field.NotSupported(fldPath.Child("qos"), o.Qos, []string{"0", "1", "2"}))
	}
	if o.Timeout < 0 {
		errs = append(errs, field.Invalid(fldPath.Child("timeout"), o.Timeout, "must not be negative"))
	}
	if o.ActionTimeout < 0 {
		errs = append(errs, field.Invalid(fldPath.Child("actionTimeout"), o.ActionTimeout, "must not be negative"))
	}
	return errs
}

// complete fills the topics and timeouts left empty.
func (o *Options) complete() {
	if len(o.DataTopic) == 0 {
		o.DataTopic = fmt.Sprintf("data/%s/v1/points", o.ClientId)
	}
	if len(o.ActionTopic) == 0 {
		o.ActionTopic = fmt.Sprintf("action/%s/v1", o.ClientId)
	}
	if len(o.ReplyTopic) == 0 {
		o.ReplyTopic = o.ActionTopic + "/reply"
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = defaultActionTimeout
	}
}
