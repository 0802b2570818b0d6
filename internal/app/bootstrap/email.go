package bootstrap

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/nevloh/nevloh-website-sub001/internal/config"
	"github.com/nevloh/nevloh-website-sub001/internal/notify"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

// BuildEmailSender selects the sender named by EMAIL_PROVIDER. ses may be nil
// unless that provider is selected. Missing credentials are not an error
// here; the intake service fails closed on cfg.EmailConfigured instead.
func BuildEmailSender(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case appconfig.EmailProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			logger.Error("SENDGRID_API_KEY not set; the contact form will refuse submissions")
			return notify.NewStubEmailSender(logger), nil
		}
		return sender, nil
	case appconfig.EmailProviderSES:
		if ses == nil {
			return nil, errors.New("bootstrap: ses client is required for the ses email provider")
		}
		return notify.NewSESSender(ses, notify.SESConfig{
			FromEmail:        cfg.EmailFromAddress,
			FromName:         cfg.EmailFromName,
			ConfigurationSet: cfg.SESConfigurationSet,
		}, logger), nil
	case appconfig.EmailProviderStub:
		logger.Warn("using stub email sender; no email will be delivered")
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

// BuildMailingList returns the marketing-list client; it is a no-op unless
// both the API key and list id are set.
func BuildMailingList(cfg *appconfig.Config, logger *logging.Logger) *notify.MailingList {
	return notify.NewMailingList(notify.MailingListConfig{
		APIKey: cfg.SendGridAPIKey,
		ListID: cfg.MailingListID,
	}, logger)
}
