package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"protv/pkg/types"

	"github.com/streadway/amqp"
)

const (
	RoutingKeySubmitted = "application.submitted"
	exchangeKind        = "topic"
)

// SubmittedEvent is published once an application has been persisted.
type SubmittedEvent struct {
	ApplicationID string    `json:"application_id"`
	SubmissionID  string    `json:"submission_id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Position      string    `json:"position"`
	FileSlots     []string  `json:"file_slots"`
	FolderURL     string    `json:"folder_url"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func NewSubmittedEvent(app *types.Application) SubmittedEvent {
	slots := make([]string, 0, len(app.Files))
	for _, slot := range types.FileSlots {
		if _, ok := app.Files[slot]; ok {
			slots = append(slots, string(slot))
		}
	}

	return SubmittedEvent{
		ApplicationID: app.ApplicationID,
		SubmissionID:  app.SubmissionID,
		FullName:      app.FullName,
		Email:         app.Email,
		Position:      app.WorkExperience.Position,
		FileSlots:     slots,
		FolderURL:     app.GoogleDriveFolderURL,
		SubmittedAt:   app.SubmissionDate,
	}
}

// AMQPPublisher publishes submission events to a durable topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		exchangeKind,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

func (p *AMQPPublisher) PublishSubmitted(ctx context.Context, app *types.Application) error {
	msg, err := submittedPublishing(app)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Publish(p.exchange, RoutingKeySubmitted, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", RoutingKeySubmitted, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return fmt.Errorf("close rabbitmq channel: %w", err)
	}
	return p.conn.Close()
}

func submittedPublishing(app *types.Application) (amqp.Publishing, error) {
	body, err := json.Marshal(NewSubmittedEvent(app))
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal submitted event: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    app.SubmissionID,
		Timestamp:    app.SubmissionDate,
		Type:         RoutingKeySubmitted,
		Body:         body,
	}, nil
}
