// Package publisher pushes authentication events to an MQTT broker so
// downstream consumers (door controllers, dashboards) can react without
// polling the HTTP API.
package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/TrentConley/face-authentication/internal/config"
	"github.com/TrentConley/face-authentication/internal/pipeline"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// MQTTPublisher forwards authentication events to <topic>/<identity>
// at QoS 1. Publishing is best-effort: a slow or disconnected broker
// never blocks the pipeline.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTT connects to the broker from cfg and returns a publisher.
// The client auto-reconnects; only the initial connection is fatal.
func NewMQTT(cfg config.MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("mqtt connection lost, reconnecting: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt broker %s: connection timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt broker %s: %w", cfg.Broker, err)
	}

	return &MQTTPublisher{client: client, topic: cfg.Topic}, nil
}

// Run consumes events from the channel until it closes, publishing each
// one. It is meant to run in its own goroutine alongside the pipeline.
func (p *MQTTPublisher) Run(events <-chan pipeline.AuthEvent) {
	for event := range events {
		p.publish(event)
	}
}

func (p *MQTTPublisher) publish(event pipeline.AuthEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshaling auth event %s: %v", event.ID, err)
		return
	}

	topic := fmt.Sprintf("%s/%s", p.topic, event.Identity)
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Printf("publishing auth event %s to %s timed out", event.ID, topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publishing auth event %s to %s: %v", event.ID, topic, err)
	}
}

// Close disconnects from the broker, allowing in-flight publishes a
// short grace period.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(uint(publishTimeout / time.Millisecond))
}
