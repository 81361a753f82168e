// Package bootstrap builds the infrastructure clients shared by the server and the CLI.
package bootstrap

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fekuna/omnipos-storefront-service/config"
	"github.com/fekuna/omnipos-storefront-service/internal/payment"
	"github.com/fekuna/omnipos-storefront-service/pkg/blob"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/i18n"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

func Logger(cfg *config.Config) logger.ZapLogger {
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
		FileEnable:        cfg.Logger.FileEnable,
		Filename:          cfg.Logger.Filename,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
	}
	return logger.NewZapLogger(logConfig)
}

// I18n loads the embedded locales plus any override files from cfg.I18n.Dir.
func I18n(cfg *config.Config) error {
	i18n.Init()
	if cfg.I18n.Dir == "" {
		return nil
	}
	for _, lang := range []string{"en", "id"} {
		if err := i18n.Load(cfg.I18n.Dir + "/active." + lang + ".json"); err != nil {
			return err
		}
	}
	return nil
}

func Postgres(cfg *config.Config) (*sqlx.DB, error) {
	return postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
}

func Blob(cfg config.BlobConfig) (blob.Store, error) {
	switch cfg.Driver {
	case "", "local":
		return blob.NewLocalStore(cfg.LocalDir, cfg.PublicURL), nil
	case "sftp":
		return blob.NewSFTPStore(blob.SFTPConfig{
			Addr:      cfg.SFTPAddr,
			User:      cfg.SFTPUser,
			Password:  cfg.SFTPPassword,
			Root:      cfg.SFTPRoot,
			PublicURL: cfg.PublicURL,
			HostKey:   cfg.SFTPHostKey,
		}), nil
	}
	return nil, errors.Errorf("unknown blob driver %q", cfg.Driver)
}

func Authorizer(cfg config.PaymentConfig) (payment.Authorizer, error) {
	switch cfg.Provider {
	case "", "sandbox":
		return payment.NewSandboxAuthorizer(cfg.AllowUnknownCards), nil
	case "gateway":
		if cfg.GatewayURL == "" || cfg.GatewaySecretKey == "" {
			return nil, errors.New("gateway payment provider needs PAYMENT_GATEWAY_URL and PAYMENT_GATEWAY_SECRET_KEY")
		}
		return payment.NewGatewayAuthorizer(cfg.GatewayURL, cfg.GatewaySecretKey, cfg.Timeout), nil
	}
	return nil, errors.Errorf("unknown payment provider %q", cfg.Provider)
}
