package sim

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"farmwatch/internal/telemetry"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	msgs         []published
	err          error
	pending      *fakeToken // returned instead of a completed token when set
	disconnected bool
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.msgs = append(p.msgs, published{topic: topic, payload: payload.([]byte)})
	if p.pending != nil {
		return p.pending
	}
	return newFakeToken(p.err)
}

func (p *fakePublisher) Disconnect(uint) { p.disconnected = true }

func TestMQTTWriterTopics(t *testing.T) {
	p := &fakePublisher{}
	w := &MQTTWriter{client: p, prefix: "farmwatch/north", timeout: time.Second, logger: testLogger()}
	if err := w.Write(telemetry.TelemetryRow{SessionID: "s1", Battery: 80}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.WriteMissionEvent(telemetry.MissionEventRow{Event: telemetry.EventStarted}); err != nil {
		t.Fatalf("WriteMissionEvent: %v", err)
	}
	if err := w.WriteCapture(telemetry.CaptureRow{CaptureID: "c1"}); err != nil {
		t.Fatalf("WriteCapture: %v", err)
	}
	want := []string{"farmwatch/north/telemetry", "farmwatch/north/missions", "farmwatch/north/captures"}
	for i, topic := range want {
		if p.msgs[i].topic != topic {
			t.Fatalf("message %d topic = %s, want %s", i, p.msgs[i].topic, topic)
		}
	}
	var row telemetry.TelemetryRow
	if err := json.Unmarshal(p.msgs[0].payload, &row); err != nil || row.Battery != 80 {
		t.Fatalf("unexpected payload %s: %v", p.msgs[0].payload, err)
	}
	_ = w.Close()
	if !p.disconnected {
		t.Fatalf("expected disconnect on close")
	}
}

func TestMQTTWriterPublishError(t *testing.T) {
	boom := errors.New("not connected")
	w := &MQTTWriter{client: &fakePublisher{err: boom}, prefix: "farmwatch", timeout: time.Second, logger: testLogger()}
	if err := w.Write(telemetry.TelemetryRow{}); !errors.Is(err, boom) {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestMQTTWriterDoesNotWaitForBroker(t *testing.T) {
	tok := &fakeToken{done: make(chan struct{})}
	p := &fakePublisher{pending: tok}
	w := &MQTTWriter{client: p, prefix: "farmwatch", timeout: time.Hour, logger: testLogger()}

	returned := make(chan error, 1)
	go func() { returned <- w.Write(telemetry.TelemetryRow{SessionID: "s1"}) }()
	select {
	case err := <-returned:
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Write blocked on an unacknowledged publish")
	}

	closed := make(chan struct{})
	go func() {
		_ = w.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatalf("Close returned before the pending publish finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(tok.done)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatalf("Close did not return after the publish completed")
	}
	if !p.disconnected {
		t.Fatalf("expected disconnect on close")
	}
}
