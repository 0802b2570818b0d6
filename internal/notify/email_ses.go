package notify

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures SESSender. ConfigurationSet, when set, routes sends
// through an SES configuration set for bounce and complaint tracking.
type SESConfig struct {
	FromEmail        string
	FromName         string
	ConfigurationSet string
}

// SESSender delivers mail through the SES v2 SendEmail API.
type SESSender struct {
	client  sesAPI
	from    string
	confSet string
	logger  *logging.Logger
}

func NewSESSender(client sesAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Nevloh Limited"
	}
	return &SESSender{
		client:  client,
		from:    formatAddress(cfg.FromName, cfg.FromEmail),
		confSet: cfg.ConfigurationSet,
		logger:  logger,
	}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return errors.New("notify: ses client not configured")
	}

	out, err := s.client.SendEmail(ctx, s.input(msg))
	if err != nil {
		s.logger.Error("ses send failed", "error", err, "to", logging.RedactEmail(msg.To))
		return fmt.Errorf("notify: ses send: %w", err)
	}
	s.logger.Info("email sent",
		"provider", "ses",
		"to", logging.RedactEmail(msg.To),
		"subject", msg.Subject,
		"message_id", aws.ToString(out.MessageId),
	)
	return nil
}

func (s *SESSender) input(msg EmailMessage) *sesv2.SendEmailInput {
	body := &types.Body{}
	if msg.Body != "" {
		body.Text = utf8Content(msg.Body)
	}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{formatAddress(msg.ToName, msg.To)}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8Content(msg.Subject), Body: body},
		},
	}
	if s.confSet != "" {
		in.ConfigurationSetName = aws.String(s.confSet)
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{formatAddress(msg.ReplyToName, msg.ReplyTo)}
	}
	for _, c := range msg.Categories {
		in.EmailTags = append(in.EmailTags, types.MessageTag{Name: aws.String("category"), Value: aws.String(c)})
	}
	return in
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

// formatAddress renders an RFC 5322 mailbox, quoting names that need it.
func formatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return (&netmail.Address{Name: name, Address: email}).String()
}

var _ EmailSender = (*SESSender)(nil)
