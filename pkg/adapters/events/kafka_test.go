package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/wadjakorntonsri/certlink/pkg/core/domain"
)

func TestNewMessage(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	event := domain.Event{
		Type:           domain.EventIssued,
		CertificateID:  "CERT-1700000000000-AB12CD34",
		OrganizationID: "org_42",
		OccurredAt:     at,
	}

	msg, err := newMessage(event)
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	if string(msg.Key) != event.CertificateID {
		t.Errorf("Key = %q", msg.Key)
	}
	if !msg.Time.Equal(at) {
		t.Errorf("Time = %v", msg.Time)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "certificate.issued" {
		t.Errorf("Headers = %+v", msg.Headers)
	}

	var decoded domain.Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded.OrganizationID != "org_42" || decoded.Type != domain.EventIssued {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestNew_NoBrokers(t *testing.T) {
	p := New(nil, "certificate-events")
	if _, ok := p.(NopPublisher); !ok {
		t.Fatalf("New without brokers = %T, want NopPublisher", p)
	}
	if err := p.Publish(context.Background(), domain.Event{}); err != nil {
		t.Errorf("Publish: %v", err)
	}
}

func TestNew_WithBrokers(t *testing.T) {
	p := New([]string{"localhost:9092"}, "certificate-events")
	defer p.Close()
	if _, ok := p.(*KafkaPublisher); !ok {
		t.Fatalf("New with brokers = %T, want *KafkaPublisher", p)
	}
}
