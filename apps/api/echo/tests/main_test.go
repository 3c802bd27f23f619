package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	. "github.com/acadeo/gradebook/apps/api/echo"
	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/enrollment"
	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/report"
	"github.com/acadeo/gradebook/core/user"
	"github.com/acadeo/gradebook/services/email"
	"github.com/acadeo/gradebook/storage/database/inmem"
)

var (
	app Server

	usrRepo *inmem.UserRepository
	catRepo *inmem.CatalogRepository
	enrRepo *inmem.EnrollmentRepository
	grdRepo *inmem.GradeRepository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf := core.NewTestConfig()
	logger := core.StdLogger{Std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}

	// set up repos
	usrRepo = inmem.NewUserRepository()
	catRepo = inmem.NewCatalogRepository()
	enrRepo = inmem.NewEnrollmentRepository()
	grdRepo = inmem.NewGradeRepository()

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrSvc := user.NewService(conf, usrRepo, mailSvc, logger, nil)
	enrSvc := enrollment.NewService(enrRepo, catalog.NewService(catRepo, nil, usrSvc))
	catSvc := catalog.NewService(catRepo, enrSvc, usrSvc)
	usrSvc = user.NewService(conf, usrRepo, mailSvc, logger, enrSvc)
	grdSvc := grade.NewService(grdRepo, catSvc, enrSvc)
	rptSvc := report.NewService(inmem.NewReportRepository(usrRepo, catRepo, grdRepo))

	// set up server
	app = NewServer(&Options{
		Conf:           conf,
		Logger:         logger,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		CatalogSvc:     catSvc,
		EnrollmentSvc:  enrSvc,
		GradeSvc:       grdSvc,
		ReportSvc:      rptSvc,
	})

	os.Exit(m.Run())
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()

	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
