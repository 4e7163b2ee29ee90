package sim

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"farmwatch/internal/telemetry"
)

// mqttPublisher is the subset of mqtt.Client the writer uses.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTWriter publishes rows as JSON under a topic prefix:
// <prefix>/telemetry, <prefix>/missions and <prefix>/captures.
type MQTTWriter struct {
	client  mqttPublisher
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
	pending sync.WaitGroup
}

// NewMQTTWriter connects to broker and returns a writer publishing under prefix.
func NewMQTTWriter(broker, clientID, prefix string, logger *slog.Logger) (*MQTTWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	logger.Info("connected to MQTT broker", "broker", broker, "prefix", prefix)
	return &MQTTWriter{
		client:  client,
		prefix:  prefix,
		timeout: 5 * time.Second,
		logger:  logger.With("component", "mqtt"),
	}, nil
}

// publish hands the message to the client without waiting for the broker.
// Failures the client reports at once are returned; acknowledgements are
// awaited in the background so a slow broker never blocks the caller.
func (w *MQTTWriter) publish(suffix string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	topic := w.prefix + "/" + suffix
	token := w.client.Publish(topic, w.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			w.logger.Warn("mqtt publish failed", "topic", topic, "err", err)
			return err
		}
		return nil
	default:
	}
	w.pending.Add(1)
	go w.await(topic, token)
	return nil
}

func (w *MQTTWriter) await(topic string, token mqtt.Token) {
	defer w.pending.Done()
	if !token.WaitTimeout(w.timeout) {
		w.logger.Warn("mqtt publish timed out", "topic", topic, "timeout", w.timeout)
		return
	}
	if err := token.Error(); err != nil {
		w.logger.Warn("mqtt publish failed", "topic", topic, "err", err)
	}
}

// Write publishes a telemetry row.
func (w *MQTTWriter) Write(row telemetry.TelemetryRow) error {
	return w.publish("telemetry", row)
}

// WriteMissionEvent publishes a mission event.
func (w *MQTTWriter) WriteMissionEvent(row telemetry.MissionEventRow) error {
	return w.publish("missions", row)
}

// WriteCapture publishes a map capture.
func (w *MQTTWriter) WriteCapture(row telemetry.CaptureRow) error {
	return w.publish("captures", row)
}

// Close waits for outstanding publishes and disconnects from the broker.
func (w *MQTTWriter) Close() error {
	w.pending.Wait()
	w.client.Disconnect(250)
	return nil
}
