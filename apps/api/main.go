package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acadeo/gradebook/apps/api/echo"
	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/enrollment"
	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/report"
	"github.com/acadeo/gradebook/core/user"
	"github.com/acadeo/gradebook/services/email"
	"github.com/acadeo/gradebook/services/logger"
	"github.com/acadeo/gradebook/storage/database"
	"github.com/acadeo/gradebook/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig(".")

	var appLogger core.Logger
	if conf.Debug {
		appLogger = core.StdLogger{Std: std}
	} else {
		appLogger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(std, err)
	defer db.Close()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	enrRepo := sqlxrepos.NewEnrollmentRepository(db)
	catRepo := sqlxrepos.NewCatalogRepository(db)

	// the services form a cycle (registration auto-enrolls, catalog gates
	// deletion on enrollments); it is broken by wiring in two passes
	usrSvc := user.NewService(conf, usrRepo, mailSvc, appLogger, nil)
	enrSvc := enrollment.NewService(enrRepo, catalog.NewService(catRepo, nil, usrSvc))
	catSvc := catalog.NewService(catRepo, enrSvc, usrSvc)
	usrSvc = user.NewService(conf, usrRepo, mailSvc, appLogger, enrSvc)
	grdSvc := grade.NewService(sqlxrepos.NewGradeRepository(db), catSvc, enrSvc)
	rptSvc := report.NewService(sqlxrepos.NewReportRepository(db))

	// start API server
	shutdown := make(chan struct{}, 1)
	app := echoapi.NewServer(&echoapi.Options{
		Conf:          conf,
		Logger:        appLogger,
		UserSvc:       usrSvc,
		CatalogSvc:    catSvc,
		EnrollmentSvc: enrSvc,
		GradeSvc:      grdSvc,
		ReportSvc:     rptSvc,
		Shutdown:      func() { shutdown <- struct{}{} },
	})

	go app.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case <-shutdown:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		std.Fatal(err)
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
