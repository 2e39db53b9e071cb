package telemetry

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// MQTTSink publishes each record as JSON on a topic, QoS 0, not retained.
type MQTTSink struct {
	client paho.Client
	topic  string
}

func NewMQTTSink(broker, topic string) (*MQTTSink, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("gsr-logger").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, errors.New("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &MQTTSink{client: client, topic: topic}, nil
}

func (s *MQTTSink) Name() string {
	return "mqtt:" + s.topic
}

func (s *MQTTSink) Send(record Record) error {
	body, err := FormatJSON(record)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	token := s.client.Publish(s.topic, 0, false, body)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(1000)
	return nil
}
