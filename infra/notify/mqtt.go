// Package notify bridges the in-process event bus to MQTT so notification
// and email subsystems can subscribe to lifecycle events. Delivery is
// best-effort: a publish failure is logged and never rolls back the
// assignment, job or review state that produced the event.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/fieldserve/dispatch/core/events"
	"github.com/fieldserve/dispatch/core/logger"
	"github.com/fieldserve/dispatch/internal/eventbus"
)

// Config defines the connection parameters for the MQTT notifier.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	TimeoutMS   int    `json:"timeout_ms"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = fmt.Sprintf("dispatch-notify-%s", uuid.NewString()[:8])
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "dispatch"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 5000
	}
}

// pahoClient is the slice of the Paho API the notifier uses; tests swap in a
// fake.
type pahoClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Notifier publishes lifecycle events from the bus to MQTT topics.
type Notifier struct {
	cli     pahoClient
	prefix  string
	qos     byte
	timeout time.Duration
	log     logger.Logger
}

// New connects to the broker and returns a Notifier.
func New(cfg Config, log logger.Logger) (*Notifier, error) {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true)
	cli := newMQTTClient(opts)
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	token := cli.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect timeout after %s", timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &Notifier{cli: cli, prefix: cfg.TopicPrefix, qos: cfg.QoS, timeout: timeout, log: log}, nil
}

// Run consumes the bus subscription until the context is cancelled or the
// channel closes. It is meant to run in its own goroutine.
func (n *Notifier) Run(ctx context.Context, sub <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			n.publish(ev)
		}
	}
}

// Close disconnects from the broker.
func (n *Notifier) Close() {
	n.cli.Disconnect(250)
}

func (n *Notifier) publish(ev eventbus.Event) {
	topic, ok := n.topicFor(ev)
	if !ok {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		n.log.Errorf("marshal %T: %v", ev, err)
		return
	}
	token := n.cli.Publish(topic, n.qos, false, payload)
	if !token.WaitTimeout(n.timeout) {
		n.log.Warnf("publish to %s timed out", topic)
		return
	}
	if err := token.Error(); err != nil {
		n.log.Errorf("publish to %s: %v", topic, err)
	}
}

func (n *Notifier) topicFor(ev eventbus.Event) (string, bool) {
	var suffix string
	switch ev.(type) {
	case events.JobAssigned:
		suffix = "jobs/assigned"
	case events.JobReassigned:
		suffix = "jobs/reassigned"
	case events.JobInProgress:
		suffix = "jobs/in_progress"
	case events.JobCompleted:
		suffix = "jobs/completed"
	default:
		return "", false
	}
	return n.prefix + "/" + suffix, true
}
