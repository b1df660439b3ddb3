package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HumanPrinter/enkoni-sub003/internal/config"
	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/internal/logger"
	"github.com/HumanPrinter/enkoni-sub003/internal/printer"
	"github.com/HumanPrinter/enkoni-sub003/pkg/entities"
	"github.com/HumanPrinter/enkoni-sub003/pkg/mvvm"
	"github.com/HumanPrinter/enkoni-sub003/pkg/serialization"
	"github.com/HumanPrinter/enkoni-sub003/pkg/validation"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	annotationNoContainer = "enkoni/no-container"

	outputTable = "table"
	outputYAML  = "yaml"

	// contactsChangedName binds domain.ContactsChanged on the Redis bridge.
	contactsChangedName = "contacts.changed"
)

// container holds all the dependencies for the application.
type container struct {
	configFile string
	logLevel   string
	output     string

	fs        afero.Fs
	cfg       *config.Config
	logger    *zap.Logger
	printer   *printer.Printer
	validate  *validator.Validate
	messenger *mvvm.Messenger
	culture   language.Tag

	repo  *entities.FileRepository[*domain.Contact]
	redis redis.UniversalClient
}

// init loads the configuration and builds the shared dependencies.
func (c *container) init(cmd *cobra.Command) error {
	c.printer = printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if c.output != outputTable && c.output != outputYAML {
		return fmt.Errorf("unsupported output %q: expected table or yaml", c.output)
	}
	cfg, err := config.LoadConfig(c.configFile)
	if err != nil {
		return c.printer.Error(
			"Invalid configuration",
			err.Error(),
			[]string{"Check .enkoni.yaml and the ENKONI_* environment variables"},
		)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	culture, err := serialization.ParseCulture(cfg.Culture)
	if err != nil {
		return err
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validation.RegisterValidations(validate); err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = log
	c.culture = culture.Tag
	c.validate = validate
	c.messenger = mvvm.NewMessenger()
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	return nil
}

// contacts opens the configured data file. monitor forces file monitoring
// on regardless of the configuration.
func (c *container) contacts(monitor bool) (*entities.FileRepository[*domain.Contact], error) {
	if c.repo != nil {
		return c.repo, nil
	}
	info := c.cfg.FileSourceInfo()
	info.MonitorSourceFile = info.MonitorSourceFile || monitor
	repo, err := c.openContacts(info, c.cfg.Format)
	if err != nil {
		return nil, err
	}
	c.repo = repo
	return repo, nil
}

// openContacts opens a contact file in format.
func (c *container) openContacts(info *entities.FileSourceInfo, format string) (*entities.FileRepository[*domain.Contact], error) {
	opts := []entities.Option{entities.WithFs(c.fs), entities.WithLogger(c.logger)}
	var (
		repo *entities.FileRepository[*domain.Contact]
		err  error
	)
	switch strings.ToLower(format) {
	case config.FormatCSV:
		repo, err = entities.NewCSVFileRepository[*domain.Contact](info, c.cfg.CSVOptions(), opts...)
	case config.FormatXML:
		repo, err = entities.NewXMLFileRepository[*domain.Contact](info, "Contacts", "Contact", opts...)
	case config.FormatJSON:
		repo, err = entities.NewJSONFileRepository[*domain.Contact](info, opts...)
	default:
		return nil, fmt.Errorf("unsupported format %q: expected csv, xml or json", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", info.FileName, err)
	}
	return repo, nil
}

// bridge connects to Redis when redis_addr is configured. It returns nil
// without error otherwise.
func (c *container) bridge() (*mvvm.RedisBridge, error) {
	if c.cfg.RedisAddr == "" {
		return nil, nil
	}
	if c.redis == nil {
		c.redis = redis.NewClient(&redis.Options{Addr: c.cfg.RedisAddr})
	}
	b, err := mvvm.NewRedisBridge(c.redis, c.cfg.RedisChannel, c.messenger, c.logger)
	if err != nil {
		return nil, err
	}
	if err := mvvm.Bind[domain.ContactsChanged](b, contactsChangedName); err != nil {
		return nil, err
	}
	return b, nil
}

// close releases everything init and the lazy getters opened.
func (c *container) close() error {
	var errs []error
	if c.repo != nil {
		errs = append(errs, c.repo.Close())
		c.repo = nil
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
		c.redis = nil
	}
	if c.logger != nil {
		// Syncing stderr fails on some platforms; nothing to report.
		_ = c.logger.Sync()
	}
	return errors.Join(errs...)
}
