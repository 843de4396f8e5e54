package mirror

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nats-io/nats.go"

	"sentry-link/internal/link"
	"sentry-link/internal/radio"
)

type plainPublisher struct{ subjects []string }

func (p *plainPublisher) Publish(subj string, _ []byte) error {
	p.subjects = append(p.subjects, subj)
	return nil
}

type headerPublisher struct {
	plainPublisher
	msgs []*nats.Msg
}

func (p *headerPublisher) PublishMsg(m *nats.Msg) error {
	p.msgs = append(p.msgs, m)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNATSTapSubjects(t *testing.T) {
	pub := &plainPublisher{}
	tap := NewNATSTap(pub, "sentry-01", discard())

	tap.Tap(radio.ChannelSensor, []byte(`{}`), link.OutcomeSent)
	tap.Tap(radio.ChannelConfig, []byte(`{}`), link.OutcomeDegraded)
	tap.Tap(radio.ChannelGPS, []byte(`{}`), link.OutcomeRefused)

	want := []string{"sentry.uplink.sensor", "sentry.uplink.config"}
	if len(pub.subjects) != len(want) {
		t.Fatalf("subjects = %v, want %v", pub.subjects, want)
	}
	for i := range want {
		if pub.subjects[i] != want[i] {
			t.Errorf("subjects = %v, want %v", pub.subjects, want)
		}
	}
}

func TestNATSTapHeaders(t *testing.T) {
	pub := &headerPublisher{}
	tap := NewNATSTap(pub, "sentry-01", discard())

	tap.Tap(radio.ChannelStatus, []byte(`{"type":"device_status"}`), link.OutcomeDegraded)

	if len(pub.msgs) != 1 || len(pub.subjects) != 0 {
		t.Fatalf("msgs = %d, plain publishes = %d", len(pub.msgs), len(pub.subjects))
	}
	m := pub.msgs[0]
	if m.Subject != "sentry.uplink.status" || string(m.Data) != `{"type":"device_status"}` {
		t.Errorf("msg = %s %s", m.Subject, m.Data)
	}
	if m.Header.Get("Sentry-Device") != "sentry-01" || m.Header.Get("Sentry-Outcome") != "degraded" {
		t.Errorf("headers = %v", m.Header)
	}
}
