package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/noah-isme/school-admin-api/internal/dto"
)

// AuditPublisher forwards committed audit entries to downstream consumers.
type AuditPublisher interface {
	Publish(ctx context.Context, entry dto.ActivityLogResponse) error
}

type auditEvent struct {
	Source      string                  `json:"source"`
	Entry       dto.ActivityLogResponse `json:"entry"`
	PublishedAt time.Time               `json:"published_at"`
}

type natsAuditPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSAuditPublisher publishes audit events on "<prefix>.activity". It returns nil
// when conn is nil so callers can skip publishing entirely.
func NewNATSAuditPublisher(conn *nats.Conn, subjectPrefix string) AuditPublisher {
	if conn == nil {
		return nil
	}
	prefix := strings.Trim(subjectPrefix, ".")
	if prefix == "" {
		prefix = "school"
	}
	return &natsAuditPublisher{conn: conn, subject: prefix + ".activity"}
}

func (p *natsAuditPublisher) Publish(_ context.Context, entry dto.ActivityLogResponse) error {
	payload, err := json.Marshal(auditEvent{
		Source:      "school-admin-api",
		Entry:       entry,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
