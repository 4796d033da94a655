package mailservice

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"github.com/sushihentaime/socialnet/internal/common"
)

const (
	maxRetries = 5
	baseDelay  = 500 * time.Millisecond

	activationTemplate = "activation_email.html"
)

func NewMailService(mb common.MessageConsumer, cfg Config, logger zerolog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:            mb,
		m:             NewMailer(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Sender, NewTemplate()),
		logger:        logger.With().Str("component", "mailservice").Logger(),
		activationURL: cfg.ActivationURL,
		sleep:         sleepCtx,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// SendActivationEmail consumes user.created events until Close is called.
func (s *MailService) SendActivationEmail() error {
	msgs, err := s.mb.Consume(common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue)
	if err != nil {
		s.logger.Error().Err(err).Msg("could not consume message")
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handleUserCreated(msg)

			case <-s.ctx.Done():
				s.logger.Info().Msg("stopping SendActivationEmail due to context cancellation")
				return
			}
		}
	}()

	return nil
}

// handleUserCreated sends one activation email. A message that cannot be
// decoded is dropped; a message whose delivery keeps failing is acked after
// the last attempt.
func (s *MailService) handleUserCreated(msg amqp.Delivery) {
	var event common.UserCreatedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.Email == "" {
		s.logger.Error().Err(err).Msg("could not unmarshal message")
		_ = msg.Nack(false, false)
		return
	}

	payload := activationData{
		Username:        event.Username,
		ActivationToken: event.Token,
		ActivationURL:   s.activationURL,
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.m.send(event.Email, payload, activationTemplate)
		if err == nil {
			s.logger.Info().Str("email", event.Email).Msg("activation email sent")
			_ = msg.Ack(false)
			return
		}

		delay := backoff(attempt)
		s.logger.Warn().Err(err).
			Str("email", event.Email).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("delaying activation email")

		if !s.sleep(s.ctx, delay) {
			break
		}
	}

	s.logger.Error().Str("email", event.Email).Msg("could not send activation email")
	_ = msg.Ack(false)
}

// backoff is exponential with full jitter.
func backoff(attempt int) time.Duration {
	return time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
}

// sleepCtx waits for d and reports false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close stops the consumer and waits for the message in flight.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
