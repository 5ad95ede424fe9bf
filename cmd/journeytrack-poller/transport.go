// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/journeytrack/journeytrack/lib/clock"
)

// Transport sends telemetry requests toward devices. The engine
// depends on this interface so tests can run without a broker.
type Transport interface {
	// Publish sends one request payload to the device identified by
	// imei. An error means the request never left the process.
	Publish(ctx context.Context, imei string, payload []byte) error

	// Connected reports current broker connectivity.
	Connected() bool
}

// ReplyHandler receives correlated replies from the transport: the
// correlation id extracted from the reply topic, and the raw envelope
// payload. It runs on the transport's delivery goroutine and must not
// block for long.
type ReplyHandler func(correlationID string, payload []byte)

// brokerKeepalive matches the keepalive the device fleet's broker
// expects from clients.
const brokerKeepalive = 60 * time.Second

// disconnectQuiesceMillis is how long Disconnect waits for in-flight
// publishes before dropping the connection.
const disconnectQuiesceMillis uint = 250

// requestTopic is the per-device command topic that asks the device to
// report its current telemetry groups.
func requestTopic(imei string) string {
	return fmt.Sprintf("device/%s/manage/get-configs", imei)
}

// replyTopic is the wildcard subscription covering every reply
// addressed to the configured user number. The single-level wildcard
// matches the correlation id segment.
func replyTopic(userNo string) string {
	return fmt.Sprintf("user/%s/+/manage/get-configs-result", userNo)
}

// replyCorrelationID extracts the correlation id from a reply topic
// (path segment index 2, the wildcard level of the subscription). It
// returns false for topics too short to carry one.
func replyCorrelationID(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// brokerClientID builds the broker client identifier. The unix-time
// suffix keeps a restarted poller from colliding with the broker-side
// remnant of its previous session.
func brokerClientID(prefix, userNo string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d", prefix, userNo, now.Unix())
}

// mqttTransport is the production Transport over an MQTT broker. The
// reply subscription is established in the connect handler so it
// survives automatic reconnects.
type mqttTransport struct {
	client  mqtt.Client
	userNo  string
	handler ReplyHandler
	logger  *slog.Logger
}

type mqttTransportConfig struct {
	// BrokerURL is the broker address, e.g. tcp://host:1883.
	BrokerURL string

	// Username and Password authenticate against the broker; both may
	// be empty for anonymous brokers.
	Username string
	Password string

	// UserNo scopes the reply subscription.
	UserNo string

	// ClientIDPrefix prefixes the broker client id.
	ClientIDPrefix string

	// Handler receives correlated replies.
	Handler ReplyHandler

	Clock  clock.Clock
	Logger *slog.Logger
}

// newMQTTTransport builds the transport without connecting; call
// Connect before the first scan cycle.
func newMQTTTransport(config mqttTransportConfig) *mqttTransport {
	t := &mqttTransport{
		userNo:  config.UserNo,
		handler: config.Handler,
		logger:  config.Logger,
	}

	options := mqtt.NewClientOptions().
		AddBroker(config.BrokerURL).
		SetClientID(brokerClientID(config.ClientIDPrefix, config.UserNo, config.Clock.Now())).
		SetKeepAlive(brokerKeepalive).
		SetAutoReconnect(true).
		SetOnConnectHandler(t.onConnect).
		SetConnectionLostHandler(t.onConnectionLost)
	if config.Username != "" {
		options.SetUsername(config.Username)
		options.SetPassword(config.Password)
	}

	t.client = mqtt.NewClient(options)
	return t
}

// Connect establishes the broker session. Only the initial connect
// surfaces an error; later reconnects are automatic and logged.
func (t *mqttTransport) Connect(ctx context.Context) error {
	token := t.client.Connect()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	return nil
}

// Disconnect flushes in-flight publishes and closes the session.
func (t *mqttTransport) Disconnect() {
	t.client.Disconnect(disconnectQuiesceMillis)
}

// Publish sends the request to the device's command topic at QoS 0.
// Delivery is fire-and-forget; an undelivered request simply times out
// through the correlation table.
func (t *mqttTransport) Publish(ctx context.Context, imei string, payload []byte) error {
	token := t.client.Publish(requestTopic(imei), 0, false, payload)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to device %s: %w", imei, err)
	}
	return nil
}

// Connected reports whether the broker session is currently up.
func (t *mqttTransport) Connected() bool {
	return t.client.IsConnectionOpen()
}

// onConnect runs on every successful connect, including automatic
// reconnects, so the reply subscription is never lost across a broker
// outage.
func (t *mqttTransport) onConnect(client mqtt.Client) {
	topic := replyTopic(t.userNo)
	token := client.Subscribe(topic, 0, t.onReply)
	token.Wait()
	if err := token.Error(); err != nil {
		t.logger.Error("reply subscription failed", "topic", topic, "error", err)
		return
	}
	t.logger.Info("broker connected, reply subscription active", "topic", topic)
}

func (t *mqttTransport) onConnectionLost(_ mqtt.Client, err error) {
	t.logger.Warn("broker connection lost", "error", err)
}

// onReply extracts the correlation id from the reply topic and hands
// the raw payload to the engine.
func (t *mqttTransport) onReply(_ mqtt.Client, message mqtt.Message) {
	correlationID, ok := replyCorrelationID(message.Topic())
	if !ok {
		t.logger.Warn("reply on unexpected topic", "topic", message.Topic())
		return
	}
	t.handler(correlationID, message.Payload())
}
