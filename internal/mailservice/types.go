package mailservice

import (
	"context"
	"html/template"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/nanoblog/internal/common"
)

const confirmationTemplate = "confirmation_email.tmpl"

type MailService struct {
	mb      common.MessageConsumer
	m       Mailer
	logger  MailLogger
	baseURL string
	sleep   func(time.Duration)
	ctx     context.Context
	cancel  context.CancelFunc
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu        sync.Mutex
	dialer    Dialer
	templates TemplateRenderer
	sender    string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

// Templates holds the parsed email templates keyed by file name.
type Templates struct {
	set map[string]*template.Template
}

// Email is a rendered template ready to be sent.
type Email struct {
	Subject   string
	PlainBody string
	HTMLBody  string
}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateRenderer interface {
	Render(name string, data any) (*Email, error)
}

// confirmationData is rendered by the confirmation email template.
type confirmationData struct {
	Username         string
	ConfirmationLink string
}
