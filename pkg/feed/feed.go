// Package feed maintains the MQTT subscription to the vehicle telemetry
// stream. Delivery is at-most-once: QoS 0, no redelivery handling.
package feed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBrokerURL = "wss://mqtt.hsl.fi:443"
	DefaultTopic     = "/hfp/v2/journey/+/#"

	connectTimeout      = 30 * time.Second
	disconnectQuiesceMS = 250
)

// Handler receives every raw message from the feed.
type Handler func(topic string, payload []byte)

type Config struct {
	BrokerURL string
	Topic     string
	ClientID  string
}

type Feed struct {
	client mqtt.Client
	topic  string
}

// Connect dials the broker and subscribes. The subscription is re-issued on
// every (re)connect, so a dropped connection resumes by itself.
func Connect(cfg Config, handler Handler) (*Feed, error) {
	if cfg.BrokerURL == "" {
		cfg.BrokerURL = DefaultBrokerURL
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("hfplog-%08x", rand.Uint32())
	}

	feed := &Feed{topic: cfg.Topic}

	options := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	options.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("Feed connection lost, reconnecting")
	})

	options.SetOnConnectHandler(func(client mqtt.Client) {
		token := client.Subscribe(cfg.Topic, 0, func(_ mqtt.Client, message mqtt.Message) {
			handler(message.Topic(), message.Payload())
		})
		token.Wait()

		if err := token.Error(); err != nil {
			log.Error().Err(err).Str("topic", cfg.Topic).Msg("Failed to subscribe to feed")
			return
		}

		log.Info().Str("broker", cfg.BrokerURL).Str("topic", cfg.Topic).Msg("Subscribed to feed")
	})

	feed.client = mqtt.NewClient(options)

	connect := func() error {
		token := feed.client.Connect()
		token.Wait()
		return token.Error()
	}

	retryBackoff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(connect, retryBackoff); err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", cfg.BrokerURL)
	}

	return feed, nil
}

// Close stops the subscription and disconnects from the broker.
func (f *Feed) Close() {
	if f.client.IsConnected() {
		f.client.Unsubscribe(f.topic)
		f.client.Disconnect(disconnectQuiesceMS)
	}
}
