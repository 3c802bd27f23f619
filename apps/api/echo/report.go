package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core/report"
	"github.com/acadeo/gradebook/core/role"
)

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *report.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports", jwt)
	rg.GET("/courses/:id/averages", api.courseAverages, instructorMiddleware())
	rg.GET("/students/:id/averages", api.studentAverages)
	rg.GET("/users/counts", api.userCounts, adminMiddleware())
	rg.GET("/courses/:id/curriculum", api.curriculum)
}

func (api *reportApi) courseAverages(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	avgs, err := api.svc.CourseAverages(ctx.Request().Context(), claims.Role, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course averages")
	}
	if avgs == nil {
		avgs = []report.StudentAverage{}
	}
	return ctx.JSON(http.StatusOK, avgs)
}

func (api *reportApi) studentAverages(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// students only see their own averages
	if claims.Role == role.Student && claims.Subject != ctx.Param("id") {
		return errHttpForbidden
	}

	avgs, err := api.svc.StudentAverages(ctx.Request().Context(), claims.Role, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student averages")
	}
	if avgs == nil {
		avgs = []report.StudentAverage{}
	}
	return ctx.JSON(http.StatusOK, avgs)
}

func (api *reportApi) userCounts(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	counts, err := api.svc.UserCounts(ctx.Request().Context(), claims.Role)
	if err != nil {
		return errors.Wrap(err, "querying user counts")
	}
	if counts == nil {
		counts = []report.RoleCount{}
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *reportApi) curriculum(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	terms, err := api.svc.Curriculum(ctx.Request().Context(), claims.Role, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying curriculum")
	}
	if terms == nil {
		terms = []report.CurriculumTerm{}
	}
	return ctx.JSON(http.StatusOK, terms)
}
