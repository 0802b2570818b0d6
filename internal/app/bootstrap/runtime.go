package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/nevloh/nevloh-website-sub001/internal/config"
	"github.com/nevloh/nevloh-website-sub001/internal/observability/metrics"
	"github.com/nevloh/nevloh-website-sub001/internal/spam"
	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, velocity checks disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildDisposableList returns the disposable-domain blocklist shared by the
// spam gate and dashboard edits.
func BuildDisposableList(cfg *appconfig.Config) *spam.DisposableList {
	return spam.NewDisposableList(cfg.DisposableDomains...)
}

// BuildSpamGate assembles the spam gate. The challenge verifier is enabled
// only with a secret; velocity limiting only with a Redis client.
func BuildSpamGate(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger, m *metrics.IntakeMetrics) *spam.Gate {
	if logger == nil {
		logger = logging.Default()
	}
	opts := spam.GateOptions{
		MinDwell:   cfg.MinDwell,
		Disposable: BuildDisposableList(cfg),
		Logger:     logger,
		Metrics:    m,
	}
	if secret := strings.TrimSpace(cfg.RecaptchaSecretKey); secret != "" {
		opts.Verifier = spam.NewRecaptchaVerifier(spam.RecaptchaConfig{
			Secret:    secret,
			VerifyURL: cfg.RecaptchaVerifyURL,
			MinScore:  cfg.RecaptchaMinScore,
			Timeout:   cfg.RecaptchaTimeout,
		})
	}
	if redisClient != nil && cfg.VelocityLimit > 0 {
		opts.Velocity = spam.NewVelocityLimiter(redisClient, cfg.VelocityLimit, cfg.VelocityWindow)
	}
	logger.Info("spam gate configured",
		"challenge_verification", opts.Verifier != nil,
		"velocity_limit", opts.Velocity != nil,
		"min_dwell", cfg.MinDwell.String(),
	)
	return spam.NewGate(opts)
}
