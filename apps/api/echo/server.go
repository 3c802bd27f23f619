package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/enrollment"
	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/report"
	"github.com/acadeo/gradebook/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc       *user.Service
		CatalogSvc    *catalog.Service
		EnrollmentSvc *enrollment.Service
		GradeSvc      *grade.Service
		ReportSvc     *report.Service

		// Shutdown is signalled on unrecoverable errors; optional.
		Shutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(ctx context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var (
	_ Server = (*server)(nil)

	appValidate   *validator.Validate
	appTranslator ut.Translator
)

func NewServer(opts *Options) Server {
	initAuth(opts.Conf)
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	shutdown := s.opts.Shutdown
	if shutdown == nil {
		shutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, shutdown)
	s.app.Debug = conf.Debug

	appValidate, appTranslator = core.NewValidators()
	user.RegisterValidators(appValidate, appTranslator)

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerCatalogAPI(v1, jwt, s.opts.CatalogSvc)
	registerEnrollmentAPI(v1, jwt, s.opts.EnrollmentSvc)
	registerGradeAPI(v1, jwt, s.opts.GradeSvc)
	registerReportAPI(v1, jwt, s.opts.ReportSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Address()))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Gradebook API!")
}
