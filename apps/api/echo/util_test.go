package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/nyumba/apps/api/echo"
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
	"github.com/trezcool/nyumba/services/email"
	"github.com/trezcool/nyumba/services/storage"
	"github.com/trezcool/nyumba/storage/database/sqlx"
	"github.com/trezcool/nyumba/testutil"
)

const strongPwd = "Sup3r-S3cret!"

var (
	errMissingToken    = httpErr{Error: "missing or malformed jwt"}
	errForbidden       = httpErr{Error: "permission denied"}
	errPendingApproval = httpErr{Error: "account pending approval"}
)

type env struct {
	conf      *core.Config
	app       *Server
	adminRepo admin.Repository
	devRepo   developer.Repository
	propRepo  property.Repository
	eventRepo event.Repository
	leadRepo  lead.Repository
	mediaDir  string
}

func setup(t *testing.T) *env {
	t.Helper()
	conf := testutil.Config()
	logger := testutil.Logger()
	db := testutil.OpenDB(t)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	admin.InitValidators(validate, translator, logger)
	property.InitValidators(validate, translator)
	event.InitValidators(validate, translator)
	campaign.InitValidators(validate, translator)
	lead.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	mediaDir := t.TempDir()
	store, err := storagesvc.NewLocalStorage(mediaDir, conf.Storage.PublicBaseURL)
	require.NoError(t, err)

	e := &env{
		conf:      conf,
		adminRepo: sqlxrepos.NewAdminRepository(db),
		devRepo:   sqlxrepos.NewDeveloperRepository(db),
		propRepo:  sqlxrepos.NewPropertyRepository(db),
		eventRepo: sqlxrepos.NewEventRepository(db),
		leadRepo:  sqlxrepos.NewLeadRepository(db),
		mediaDir:  mediaDir,
	}
	leadSvc := lead.NewService(conf, e.leadRepo, store, mailSvc)

	e.app, err = NewServer(&Options{
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		AdminSvc:     admin.NewService(conf, logger, e.adminRepo, mailSvc),
		DeveloperSvc: developer.NewService(e.devRepo, store),
		PropertySvc:  property.NewService(e.propRepo, store),
		BlogSvc:      blog.NewService(sqlxrepos.NewPostRepository(db), store),
		EventSvc:     event.NewService(e.eventRepo, store),
		CampaignSvc:  campaign.NewService(sqlxrepos.NewCampaignRepository(db), leadSvc, mailSvc, logger),
		LeadSvc:      leadSvc,
		ExportSvc:    export.NewService(sqlxrepos.NewExportRepository(db)),
		DashboardSvc: dashboard.NewService(sqlxrepos.NewDashboardRepository(db)),
		Uploader:     upload.NewUploader(store, upload.NewProgressTracker(time.Minute)),
		MediaDir:     mediaDir,
	})
	require.NoError(t, err)
	return e
}

// staff creates an approved admin, a pending admin and a superadmin, with their tokens.
func (e *env) staff(t *testing.T) (approved, pending, super admin.Admin) {
	t.Helper()
	approved = testutil.CreateAdmin(t, e.adminRepo, "Agent", "agent@test.cd", strongPwd, true, false)
	pending = testutil.CreateAdmin(t, e.adminRepo, "Newbie", "newbie@test.cd", strongPwd, false, false)
	super = testutil.CreateAdmin(t, e.adminRepo, "Boss", "boss@test.cd", strongPwd, true, true)
	return approved, pending, super
}

func (e *env) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	e.app.ServeHTTP(rec, req)
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
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	if method == "" {
		method = http.MethodGet
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

func getToken(t *testing.T, conf *core.Config, adm admin.Admin) string {
	token, err := GenerateToken(conf, GetAdminClaims(conf, adm))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
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

// checkCodeAndData checks the status code, and the body when tt.wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
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

func runHTTPTests(t *testing.T, e *env, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			e.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// decode unmarshals the JSON body of rec into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
