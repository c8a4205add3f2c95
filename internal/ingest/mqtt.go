package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"carbon-analytics-service/internal/config"
)

const mqttHandleTimeout = 10 * time.Second

func NewMQTTClient(cfg config.MQTTConfig, log zerolog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Msg("mqtt connection lost")
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

type MQTTSubscriber struct {
	client    mqtt.Client
	topic     string
	processor *Processor
	log       zerolog.Logger
	backoff   time.Duration
	inflight  sync.WaitGroup
}

func NewMQTTSubscriber(client mqtt.Client, topic string, processor *Processor, log zerolog.Logger) *MQTTSubscriber {
	return &MQTTSubscriber{
		client:    client,
		topic:     topic,
		processor: processor,
		log:       log.With().Str("component", "mqtt-subscriber").Str("topic", topic).Logger(),
		backoff:   retryBackoff,
	}
}

func (s *MQTTSubscriber) Start() error {
	token := s.client.Subscribe(s.topic, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

// Stop unsubscribes, waits for handlers still storing trips, then disconnects.
func (s *MQTTSubscriber) Stop() {
	s.client.Unsubscribe(s.topic).Wait()
	s.inflight.Wait()
	s.client.Disconnect(250)
}

// handleMessage retries transient store failures before returning, since the
// broker treats the message as delivered once the handler returns.
func (s *MQTTSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	s.inflight.Add(1)
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), mqttHandleTimeout)
	defer cancel()
	if err := s.processor.processWithRetry(ctx, SourceMQTT, msg.Payload(), vinFromTopic(msg.Topic()), s.backoff); err != nil {
		s.log.Error().Err(err).Str("mqtt_topic", msg.Topic()).Msg("giving up on trip message")
	}
}

// vinFromTopic extracts the VIN from topics shaped fleet/vehicle/{vin}/trip.
func vinFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "vehicle" {
			return parts[i+1]
		}
	}
	return ""
}
