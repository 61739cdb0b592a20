package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/nyumba/apps/api/echo"
	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/admin"
	"github.com/trezcool/nyumba/core/blog"
	"github.com/trezcool/nyumba/core/campaign"
	"github.com/trezcool/nyumba/core/dashboard"
	"github.com/trezcool/nyumba/core/developer"
	"github.com/trezcool/nyumba/core/event"
	"github.com/trezcool/nyumba/core/export"
	"github.com/trezcool/nyumba/core/lead"
	"github.com/trezcool/nyumba/core/property"
	"github.com/trezcool/nyumba/core/upload"
	emailsvc "github.com/trezcool/nyumba/services/email"
	logsvc "github.com/trezcool/nyumba/services/logger"
	storagesvc "github.com/trezcool/nyumba/services/storage"
	"github.com/trezcool/nyumba/storage/database"
	sqlxrepos "github.com/trezcool/nyumba/storage/database/sqlx"
)

const uploadProgressTTL = 10 * time.Minute

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	return logsvc.NewRollbarLogger(zl.Named("api"), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	return logsvc.NewRollbarLogger(zl.Named("db"), conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DBExecutor) {
	ctx := context.Background()
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newFileStorage(conf *core.Config, logger core.Logger) core.FileStorage {
	store, err := storagesvc.New(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}
	return store
}

func newUploader(store core.FileStorage) *upload.Uploader {
	return upload.NewUploader(store, upload.NewProgressTracker(uploadProgressTTL))
}

func newAudienceSource(svc lead.Service) campaign.AudienceSource { return svc }

type ServerParams struct {
	dig.In

	Conf         *core.Config
	Logger       core.Logger
	Validate     *validator.Validate
	Translator   ut.Translator
	AdminSvc     admin.Service
	DeveloperSvc developer.Service
	PropertySvc  property.Service
	BlogSvc      blog.Service
	EventSvc     event.Service
	CampaignSvc  campaign.Service
	LeadSvc      lead.Service
	ExportSvc    export.Service
	DashboardSvc dashboard.Service
	Uploader     *upload.Uploader
}

func newServerOptions(p ServerParams) *echoapi.Options {
	opts := &echoapi.Options{
		Conf:         p.Conf,
		Logger:       p.Logger,
		Validate:     p.Validate,
		Translator:   p.Translator,
		AdminSvc:     p.AdminSvc,
		DeveloperSvc: p.DeveloperSvc,
		PropertySvc:  p.PropertySvc,
		BlogSvc:      p.BlogSvc,
		EventSvc:     p.EventSvc,
		CampaignSvc:  p.CampaignSvc,
		LeadSvc:      p.LeadSvc,
		ExportSvc:    p.ExportSvc,
		DashboardSvc: p.DashboardSvc,
		Uploader:     p.Uploader,
	}
	// local uploads are served by the API itself
	if driver := p.Conf.Storage.Driver; driver == "local" || driver == "" {
		opts.MediaDir = p.Conf.Storage.LocalDir
	}
	return opts
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(newFileStorage))
	must(c.Provide(newUploader))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))

	// repositories
	must(c.Provide(sqlxrepos.NewAdminRepository, dig.As(new(admin.Repository))))
	must(c.Provide(sqlxrepos.NewDeveloperRepository, dig.As(new(developer.Repository))))
	must(c.Provide(sqlxrepos.NewPropertyRepository, dig.As(new(property.Repository))))
	must(c.Provide(sqlxrepos.NewPostRepository, dig.As(new(blog.Repository))))
	must(c.Provide(sqlxrepos.NewEventRepository, dig.As(new(event.Repository))))
	must(c.Provide(sqlxrepos.NewCampaignRepository, dig.As(new(campaign.Repository))))
	must(c.Provide(sqlxrepos.NewLeadRepository, dig.As(new(lead.Repository))))
	must(c.Provide(sqlxrepos.NewExportRepository, dig.As(new(export.Repository))))
	must(c.Provide(sqlxrepos.NewDashboardRepository, dig.As(new(dashboard.Repository))))

	// services
	must(c.Provide(admin.NewService, dig.As(new(admin.Service))))
	must(c.Provide(developer.NewService, dig.As(new(developer.Service))))
	must(c.Provide(property.NewService, dig.As(new(property.Service))))
	must(c.Provide(blog.NewService, dig.As(new(blog.Service))))
	must(c.Provide(event.NewService, dig.As(new(event.Service))))
	must(c.Provide(lead.NewService, dig.As(new(lead.Service))))
	must(c.Provide(newAudienceSource))
	must(c.Provide(campaign.NewService, dig.As(new(campaign.Service))))
	must(c.Provide(export.NewService, dig.As(new(export.Service))))
	must(c.Provide(dashboard.NewService, dig.As(new(dashboard.Service))))

	must(c.Provide(newServerOptions))
	must(c.Provide(echoapi.NewServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
