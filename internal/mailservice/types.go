package mailservice

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/rs/zerolog"

	"github.com/sushihentaime/socialnet/internal/common"
)

type MailService struct {
	mb            common.MessageConsumer
	m             Mailer
	logger        zerolog.Logger
	activationURL string
	sleep         func(ctx context.Context, d time.Duration) bool
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Config holds the SMTP account and the link users follow to activate.
type Config struct {
	Host          string
	Port          int
	Username      string
	Password      string
	Sender        string
	ActivationURL string
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Template struct{}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}

// activationData is rendered into activation_email.html.
type activationData struct {
	Username        string
	ActivationToken string
	ActivationURL   string
}
