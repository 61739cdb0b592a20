package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

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
)

type (
	Options struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

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

		MediaDir string // local storage root, served under /media when set
	}

	Server struct {
		opts     *Options
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(opts *Options) (*Server, error) {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Translator, s.opts.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	renderer, err := newSiteRenderer(conf)
	if err != nil {
		return errors.Wrap(err, "parsing site templates")
	}
	s.app.Renderer = renderer

	s.app.GET("/", home)
	s.app.StaticFS("/static", echo.MustSubFS(staticFS(), "assets/static"))
	if s.opts.MediaDir != "" {
		s.app.Static("/media", s.opts.MediaDir)
	}

	// guard chain: jwt -> approved -> superadmin
	jwt := newJWTMiddleware(conf)
	approved := approvedMiddleware(s.opts.AdminSvc)
	superadmin := superadminMiddleware()

	v1 := s.app.Group("/v1")
	public := v1.Group("/public")
	admg := v1.Group("/admin", jwt, approved)

	registerAuthAPI(v1.Group("/auth"), jwt, approved, s.opts)
	registerAdminAPI(admg.Group("/admins", superadmin), s.opts)
	registerDeveloperAPI(public, admg, s.opts)
	registerPropertyAPI(public, admg, s.opts)
	registerBlogAPI(public, admg, s.opts)
	registerEventAPI(public, admg, s.opts)
	registerCampaignAPI(admg, s.opts)
	registerLeadAPI(public, admg, s.opts)
	registerUploadAPI(admg, s.opts)
	registerExportAPI(admg, s.opts)
	registerDashboardAPI(admg, s.opts)

	registerSite(s.app.Group("/site"), s.opts)
	return nil
}

// Start listens on the configured address until the server is shut down. Listen errors go to Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Nyumba API!")
}
