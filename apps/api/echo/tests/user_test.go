package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/acadeo/gradebook/apps/api/echo"
	"github.com/acadeo/gradebook/core/role"
	"github.com/acadeo/gradebook/core/user"
	"github.com/acadeo/gradebook/tests"
)

func Test_userApi_login(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Login", "User", "loginusr", "loginusr@gradebook.test", "s3cret", role.Student, true)
	testutil.CreateUser(t, usrRepo, "Gone", "User", "goneusr", "goneusr@gradebook.test", "s3cret", role.Student, false)

	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{
			name: "empty body", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown user", body: []byte(`{"username": "lol", "password": "s3cret"}`),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "wrong password", body: []byte(`{"username": "loginusr", "password": "lol"}`),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "inactive account", body: []byte(`{"username": "goneusr", "password": "s3cret"}`),
			wantCode: http.StatusBadRequest, wantData: authFailed,
		},
		{
			name: "login with username", body: []byte(`{"username": "loginusr", "password": "s3cret"}`),
			wantCode: http.StatusOK,
		},
		{
			name: "login with email", body: []byte(`{"username": "loginusr@gradebook.test", "password": "s3cret"}`),
			wantCode: http.StatusOK,
		},
		{
			name: "username is cleaned", body: []byte(`{"username": "  LoginUsr ", "password": "s3cret"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("json.Unmarshal() failed, %v", err)
				}
				if resp.Token == "" {
					t.Error("empty token returned")
				}
			}
		})
	}

	t.Run("token grants access", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", []byte(`{"username": "loginusr", "password": "s3cret"}`))
		app.ServeHTTP(rec, req)

		var resp echoapi.LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed, %v", err)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+usr.ID, resp.Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
	})
}

func Test_userApi_register(t *testing.T) {
	t.Run("sign-up creates a student", func(t *testing.T) {
		body := []byte(`{
			"username": "newstudent",
			"email": "newstudent@gradebook.test",
			"password": "s3cret",
			"password_confirm": "s3cret",
			"first_name": "New",
			"last_name": "Student",
			"year_level": 1,
			"role": "admin"
		}`)
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body = %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("json.Unmarshal() failed, %v", err)
		}
		// requested role is ignored; sign-up only ever yields students
		if usr.Role != role.Student {
			t.Errorf("Role = %s, want %s", usr.Role, role.Student)
		}
		if !usr.IsActive {
			t.Error("account not active")
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		body := []byte(`{
			"username": "newstudent",
			"email": "other@gradebook.test",
			"password": "s3cret",
			"password_confirm": "s3cret",
			"first_name": "Other",
			"last_name": "Student"
		}`)
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
		}
	})
}

func Test_userApi_authorization(t *testing.T) {
	student := testutil.CreateUser(t, usrRepo, "Authz", "Student", "authzstud", "authzstud@gradebook.test", "", role.Student, true)
	admin := testutil.CreateUser(t, usrRepo, "Authz", "Admin", "authzadmin", "authzadmin@gradebook.test", "", role.Admin, true)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admin required", method: http.MethodGet, path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin can list", method: http.MethodGet, path: "/v1/users", token: getToken(t, admin),
			wantCode: http.StatusOK,
		},
		{
			name: "roles listing", method: http.MethodGet, path: "/v1/users/roles", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, role.All),
		},
		{
			name: "student cannot see other accounts", method: http.MethodGet, path: "/v1/users/" + admin.ID,
			token: getToken(t, student), wantCode: http.StatusNotFound,
		},
		{
			name: "student sees own account", method: http.MethodGet, path: "/v1/users/" + student.ID,
			token: getToken(t, student), wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
