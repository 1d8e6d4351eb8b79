package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Consumer is the part of Client the reader needs.
type Consumer interface {
	Consume(handler func([]byte) error) error
}

// Reader consumes approval notices from the queue and e-mails attendees.
type Reader struct {
	consumer Consumer
	sender   Sender
	log      *zerolog.Logger
	done     chan struct{}
	cancel   context.CancelFunc
}

func NewReader(consumer Consumer, sender Sender, log *zerolog.Logger) *Reader {
	return &Reader{
		consumer: consumer,
		sender:   sender,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.log.Info().Msg("approval notice reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			return r.Handle(cctx, body)
		}
		if err := r.consumer.Consume(handler); err != nil {
			r.log.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		r.log.Info().Msg("approval notice reader stopped")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// Handle processes one queued message. Malformed messages and a disabled
// mailer are logged and acknowledged; delivery failures are returned so the
// message is retried.
func (r *Reader) Handle(ctx context.Context, body []byte) error {
	var notice ApprovalNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		r.log.Error().Err(err).Str("body", string(body)).Msg("failed to unmarshal approval notice")
		return nil
	}
	if notice.Email == "" {
		r.log.Warn().Str("registration_id", notice.RegistrationID).Msg("approval notice without e-mail, skipping")
		return nil
	}

	r.log.Info().
		Str("registration_id", notice.RegistrationID).
		Str("event_id", notice.EventID).
		Msg("received approval notice")

	if err := r.sender.SendApproval(ctx, notice); err != nil {
		if errors.Is(err, ErrMailerDisabled) {
			return nil
		}
		return fmt.Errorf("deliver approval notice %s: %w", notice.RegistrationID, err)
	}
	return nil
}
