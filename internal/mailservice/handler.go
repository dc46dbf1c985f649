package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/nanoblog/internal/common"
	"golang.org/x/exp/rand"
)

const (
	maxRetries = 5
	baseDelay  = 500 * time.Millisecond
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, baseURL string, logger *slog.Logger) (*MailService, error) {
	templates, err := NewTemplates()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:      mb,
		m:       NewMailer(host, port, username, password, sender, templates),
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		sleep:   time.Sleep,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// ConfirmationLink is the page a new user opens to confirm their email address.
func ConfirmationLink(baseURL, username, token string) string {
	return strings.TrimRight(baseURL, "/") + "/confirm-registration/" + url.PathEscape(username) + "/" + url.PathEscape(token)
}

// SendConfirmationEmail consumes user.created events until Close is called and mails
// every new user their confirmation link.
func (s *MailService) SendConfirmationEmail() {
	msgs, err := s.mb.Consume(common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handle(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendConfirmationEmail due to context cancellation")
				return
			}
		}
	}()
}

func (s *MailService) handle(msg amqp.Delivery) {
	var data common.UserCreatedMessage

	err := json.Unmarshal(msg.Body, &data)
	if err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		msg.Ack(false)
		return
	}

	payload := confirmationData{
		Username:         data.Username,
		ConfirmationLink: ConfirmationLink(s.baseURL, data.Username, data.Token),
	}

	// exponential backoff with jitter
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = s.m.send(data.Email, payload, confirmationTemplate)
		if err == nil {
			s.logger.Info("confirmation email sent", slog.String("email", data.Email))
			msg.Ack(false)
			return
		}

		delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
		s.logger.Info("delaying confirmation email", slog.String("email", data.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay))
		s.sleep(delay)
	}

	s.logger.Error("could not send confirmation email", slog.String("email", data.Email), slog.String("error", err.Error()))
	msg.Ack(false)
}

func (s *MailService) Close() {
	s.cancel()
}
