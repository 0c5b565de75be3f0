// Package container provides dependency injection for the csv-import
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"time"

	"csvimport/csv-import/internal/classifier"
	"csvimport/csv-import/internal/config"
	"csvimport/csv-import/internal/csvrows"
	"csvimport/csv-import/internal/dispatcher"
	"csvimport/csv-import/internal/dtaus"
	"csvimport/csv-import/internal/importer"
	"csvimport/csv-import/internal/ledger"
	"csvimport/csv-import/internal/logging"
	"csvimport/csv-import/internal/notify"
	"csvimport/csv-import/internal/remote"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation except for the remote gate, which
// is connected on demand by ConnectRemote.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	ledger     *ledger.Store
	parser     *csvrows.Parser
	delimiter  rune
	classifier *classifier.Classifier
	dispatcher *dispatcher.Dispatcher
	notifier   notify.Notifier
	batch      importer.BatchSettings

	gate *remote.Gate
}

// Option customizes a Container.
type Option func(*options)

type options struct {
	logger logging.Logger
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewContainer creates and wires all application dependencies.
// This is the main entry point for dependency injection in the application.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger first as it's needed by other components
	logger := o.logger
	if logger == nil {
		logger = config.ConfigureLoggingFromConfig(cfg)
	}

	store, err := ledger.Open(cfg.Ledger.File, logger)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	delimiter := csvrows.DefaultDelimiter
	if d := []rune(cfg.CSV.Delimiter); len(d) > 0 {
		delimiter = d[0]
	}
	parser := csvrows.NewParser(logger,
		csvrows.WithDelimiter(delimiter),
		csvrows.WithEncoding(cfg.CSV.Encoding),
	)

	var notifier notify.Notifier
	if cfg.Notify.Enabled {
		mailer, err := notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.Notify.SMTPHost,
			Port:     cfg.Notify.SMTPPort,
			Username: cfg.Notify.Username,
			Password: cfg.Notify.Password,
			From:     cfg.Notify.From,
			To:       cfg.Notify.To,
		}, logger)
		if err != nil {
			return nil, err
		}
		notifier = mailer
		logger.Info("E-mail notifications enabled")
	} else {
		notifier = notify.NewLogNotifier(logger)
		logger.Info("E-mail notifications disabled")
	}

	c := &Container{
		logger:     logger,
		config:     cfg,
		ledger:     store,
		parser:     parser,
		delimiter:  delimiter,
		classifier: classifier.New(cfg.Import.AllowedUmsatzKeys, cfg.Import.ClearingCode),
		dispatcher: dispatcher.New(store, logger, cfg.Import.MaxAttempts),
		notifier:   notifier,
		batch: importer.BatchSettings{
			Kind: dtaus.Kind(cfg.DTAUS.Kind),
			Sender: dtaus.Account{
				Number:   cfg.DTAUS.SenderAccount,
				BankCode: cfg.DTAUS.SenderBankCode,
				Holder:   cfg.DTAUS.SenderName,
			},
			Dir:    cfg.Local.BatchDir,
			Suffix: cfg.DTAUS.FileSuffix,
		},
	}

	logger.Info("Container initialized successfully",
		logging.F("remote_backend", cfg.Remote.Backend),
		logging.F("ledger", cfg.Ledger.File))
	return c, nil
}

// RemoteConfig translates the configuration into remote channel settings.
func RemoteConfig(cfg *config.Config) remote.Config {
	return remote.Config{
		Backend: cfg.Remote.Backend,
		SFTP: remote.SFTPConfig{
			Host:                  cfg.Remote.Host,
			Port:                  cfg.Remote.Port,
			User:                  cfg.Remote.User,
			KeyFile:               cfg.Remote.KeyFile,
			KnownHosts:            cfg.Remote.KnownHosts,
			InsecureIgnoreHostKey: cfg.Remote.InsecureIgnoreHostKey,
			Timeout:               time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
		},
		Bucket:          cfg.Remote.Bucket,
		CredentialsFile: cfg.Remote.CredentialsFile,
		Root:            cfg.Remote.Root,
	}
}

// ConnectRemote opens the configured drop box. It is needed only for
// importing from remote; local imports work without it.
func (c *Container) ConnectRemote(ctx context.Context) (*remote.Gate, error) {
	if c.gate != nil {
		return c.gate, nil
	}
	ch, err := remote.Open(ctx, RemoteConfig(c.config), c.logger)
	if err != nil {
		return nil, err
	}
	c.gate = remote.NewGate(ch, remote.Paths{
		CSVDir:       c.config.Remote.CSVDir,
		ProcessedDir: c.config.Remote.ProcessedDir,
		DownloadDir:  c.config.Local.DownloadDir,
		UploadDir:    c.config.Local.UploadDir,
		BatchDir:     c.config.Local.BatchDir,
	}, c.logger)
	return c.gate, nil
}

// GetImporter returns an importer. It can run against the remote drop box
// only after ConnectRemote succeeded.
func (c *Container) GetImporter() *importer.Importer {
	deps := importer.Deps{
		Parser:     c.parser,
		Classifier: c.classifier,
		Dispatcher: c.dispatcher,
		Notifier:   c.notifier,
		Batch:      c.batch,
		Logger:     c.logger,
	}
	if c.gate != nil {
		deps.Gate = c.gate
	}
	return importer.New(deps)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetDelimiter returns the field delimiter of import files.
func (c *Container) GetDelimiter() rune {
	return c.delimiter
}

// GetLedger returns the container's ledger.
func (c *Container) GetLedger() *ledger.Store {
	return c.ledger
}

// GetNotifier returns the notifier used for import feedback.
func (c *Container) GetNotifier() notify.Notifier {
	return c.notifier
}

// Close releases the remote connection, if any.
func (c *Container) Close() error {
	if c.gate != nil {
		if err := c.gate.Close(); err != nil {
			return err
		}
		c.gate = nil
	}
	c.logger.Debug("Container closed")
	return nil
}
