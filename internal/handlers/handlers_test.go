package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"quit-tracker/internal/auth"
	"quit-tracker/internal/calendar"
	"quit-tracker/internal/models"
	"quit-tracker/internal/storage"
	"quit-tracker/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const templateDir = "../../web/templates"

var fixedNow = time.Date(2024, time.January, 4, 12, 0, 0, 0, time.UTC)

// HandlersTestSuite drives the handlers against an in-memory database
type HandlersTestSuite struct {
	suite.Suite
	db     *storage.DB
	h      *Handlers
	user   *models.User
	cookie *http.Cookie
}

// SetupTest runs before each test
func (suite *HandlersTestSuite) SetupTest() {
	if _, err := os.Stat(templateDir); os.IsNotExist(err) {
		suite.T().Skip("Template directory not found")
	}

	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	db.SetLocation(time.UTC)
	suite.db = db

	tr := tracker.NewService(db,
		tracker.WithClock(func() time.Time { return fixedNow }),
		tracker.WithLocation(time.UTC))
	suite.h = NewHandlers(db, tr, templateDir, false, nil)

	hash, err := auth.HashPassword("testpass")
	require.NoError(suite.T(), err)
	suite.user, err = db.CreateUser("testuser", hash)
	require.NoError(suite.T(), err)

	token, err := auth.GenerateSessionToken()
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), db.CreateSession(token, suite.user.ID, time.Now().Add(SessionDuration)))
	suite.cookie = &http.Cookie{Name: SessionCookieName, Value: token}
}

// TearDownTest runs after each test
func (suite *HandlersTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *HandlersTestSuite) do(handler http.HandlerFunc, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, http.NoBody)
	}
	req.AddCookie(suite.cookie)
	w := httptest.NewRecorder()
	suite.h.AuthMiddleware(handler).ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) record() models.AccountRecord {
	rec, ok, err := suite.db.Load(suite.user.ID)
	require.NoError(suite.T(), err)
	if !ok {
		return models.NewAccountRecord()
	}
	return *rec
}

func (suite *HandlersTestSuite) TestAuthMiddlewareRedirectsWithoutCookie() {
	req := httptest.NewRequest(http.MethodGet, "/tracker", http.NoBody)
	w := httptest.NewRecorder()
	suite.h.AuthMiddleware(http.HandlerFunc(suite.h.Tracker)).ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/login", w.Header().Get("Location"))
}

func (suite *HandlersTestSuite) TestAuthMiddlewareRejectsUnknownSession() {
	req := httptest.NewRequest(http.MethodGet, "/tracker", http.NoBody)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
	w := httptest.NewRecorder()
	suite.h.AuthMiddleware(http.HandlerFunc(suite.h.Tracker)).ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Contains(suite.T(), w.Header().Get("Set-Cookie"), "Max-Age=0")
}

func (suite *HandlersTestSuite) TestAuthMiddlewareRenewsAgingSession() {
	token, err := auth.GenerateSessionToken()
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.db.CreateSession(token, suite.user.ID, time.Now().Add(time.Hour)))
	suite.cookie = &http.Cookie{Name: SessionCookieName, Value: token}

	w := suite.do(suite.h.Tracker, http.MethodGet, "/tracker", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	info, err := suite.db.ValidateSessionWithInfo(token)
	require.NoError(suite.T(), err)
	assert.Greater(suite.T(), time.Until(info.ExpiresAt), SessionDuration/2)
}

func (suite *HandlersTestSuite) TestLogin() {
	form := url.Values{"username": {"testuser"}, "password": {"testpass"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	suite.h.Login(w, req)

	assert.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/tracker", w.Header().Get("Location"))
	assert.Contains(suite.T(), w.Header().Get("Set-Cookie"), SessionCookieName+"=")
}

func (suite *HandlersTestSuite) TestLoginWrongPassword() {
	form := url.Values{"username": {"testuser"}, "password": {"nope"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	suite.h.Login(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Invalid username or password")
	assert.Empty(suite.T(), w.Header().Get("Set-Cookie"))
}

func (suite *HandlersTestSuite) TestSignup() {
	form := url.Values{"username": {"newbie"}, "password": {"pw"}, "confirm": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	suite.h.Signup(w, req)

	assert.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/tracker", w.Header().Get("Location"))
	_, err := suite.db.GetUserByUsername("newbie")
	assert.NoError(suite.T(), err)
}

func (suite *HandlersTestSuite) TestSignupRejectsTakenAndMismatched() {
	for _, tc := range []struct {
		form url.Values
		want string
	}{
		{url.Values{"username": {"testuser"}, "password": {"pw"}, "confirm": {"pw"}}, "That username is taken"},
		{url.Values{"username": {"other"}, "password": {"pw"}, "confirm": {"px"}}, "Passwords do not match"},
		{url.Values{"username": {""}, "password": {""}, "confirm": {""}}, "Username and password are required"},
	} {
		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(tc.form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		suite.h.Signup(w, req)
		assert.Equal(suite.T(), http.StatusOK, w.Code)
		assert.Contains(suite.T(), w.Body.String(), tc.want)
	}
}

func (suite *HandlersTestSuite) TestLogoutDeletesSession() {
	req := httptest.NewRequest(http.MethodPost, "/logout", http.NoBody)
	req.AddCookie(suite.cookie)
	w := httptest.NewRecorder()
	suite.h.Logout(w, req)

	assert.Equal(suite.T(), http.StatusFound, w.Code)
	_, err := suite.db.ValidateSession(suite.cookie.Value)
	assert.Error(suite.T(), err)
}

func (suite *HandlersTestSuite) TestTrackerShowsLandingWithoutQuitDate() {
	w := suite.do(suite.h.Tracker, http.MethodGet, "/tracker", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "When did you quit?")
	assert.Contains(suite.T(), w.Body.String(), `max="2024-01-04"`)
}

func (suite *HandlersTestSuite) TestStartJourneyThenTiles() {
	w := suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {"2024-01-01"}})
	assert.Equal(suite.T(), http.StatusSeeOther, w.Code)
	assert.Equal(suite.T(), "/tracker", w.Header().Get("Location"))

	w = suite.do(suite.h.Tracker, http.MethodGet, "/tracker", nil)
	body := w.Body.String()
	assert.Contains(suite.T(), body, `id="money-value">$13.74<`)
	assert.Contains(suite.T(), body, `id="units-value">6<`)
	assert.Contains(suite.T(), body, `id="days-value">3<`)
	assert.Contains(suite.T(), body, `id="resets-value">0<`)
	assert.Contains(suite.T(), body, "<html")
}

func (suite *HandlersTestSuite) TestTrackerHtmxRendersContentOnly() {
	suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {"2024-01-01"}})

	req := httptest.NewRequest(http.MethodGet, "/tracker", http.NoBody)
	req.AddCookie(suite.cookie)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	suite.h.AuthMiddleware(http.HandlerFunc(suite.h.Tracker)).ServeHTTP(w, req)

	assert.NotContains(suite.T(), w.Body.String(), "<html")
	assert.Contains(suite.T(), w.Body.String(), `id="tiles"`)
}

func (suite *HandlersTestSuite) TestStartJourneyRequiresDate() {
	w := suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {""}})

	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Please select your quit date.")
	assert.Nil(suite.T(), suite.record().Profile.QuitDate)
}

func (suite *HandlersTestSuite) TestStartJourneyKeepsRunningStreak() {
	suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {"2024-01-01"}})

	w := suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {"2024-01-03"}})
	assert.Equal(suite.T(), http.StatusSeeOther, w.Code)
	assert.Equal(suite.T(), "/tracker", w.Header().Get("Location"))

	rec := suite.record()
	require.NotNil(suite.T(), rec.Profile.QuitDate)
	assert.Equal(suite.T(), "2024-01-01", calendar.FormatDate(*rec.Profile.QuitDate))
	assert.Equal(suite.T(), 0, rec.Resets.Count)
}

func (suite *HandlersTestSuite) TestRestartJourney() {
	suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {"2024-01-01"}})

	w := suite.do(suite.h.RestartJourney, http.MethodPost, "/tracker/restart", nil)
	assert.Equal(suite.T(), http.StatusSeeOther, w.Code)

	rec := suite.record()
	assert.Nil(suite.T(), rec.Profile.QuitDate)
	assert.Equal(suite.T(), 1, rec.Resets.Count)

	// Restarting again with nothing tracked changes nothing.
	w = suite.do(suite.h.RestartJourney, http.MethodPost, "/tracker/restart", nil)
	assert.Equal(suite.T(), http.StatusSeeOther, w.Code)
	assert.Equal(suite.T(), 1, suite.record().Resets.Count)
}

func (suite *HandlersTestSuite) TestRestartJourneyHtmxUsesLocationHeader() {
	suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {"2024-01-01"}})

	req := httptest.NewRequest(http.MethodPost, "/tracker/restart", http.NoBody)
	req.AddCookie(suite.cookie)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	suite.h.AuthMiddleware(http.HandlerFunc(suite.h.RestartJourney)).ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Header().Get("HX-Location"), `"path":"/tracker"`)
}

func (suite *HandlersTestSuite) TestSettings() {
	w := suite.do(suite.h.SettingsForm, http.MethodGet, "/settings", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `value="2.29"`)

	w = suite.do(suite.h.SaveSettings, http.MethodPost, "/settings", url.Values{
		"price": {"3.499"}, "units_per_day": {"0"}, "quit_date": {"2024-01-02"}, "theme": {"light"},
	})
	assert.Equal(suite.T(), http.StatusSeeOther, w.Code)
	assert.Equal(suite.T(), "/settings?saved=1", w.Header().Get("Location"))

	p := suite.record().Profile
	assert.Equal(suite.T(), int64(350), p.PricePerUnitMinor)
	assert.Equal(suite.T(), 1, p.UnitsPerDay)
	assert.Equal(suite.T(), models.ThemeLight, p.Theme)
	require.NotNil(suite.T(), p.QuitDate)
}

func (suite *HandlersTestSuite) TestSettingsValidationError() {
	w := suite.do(suite.h.SaveSettings, http.MethodPost, "/settings", url.Values{
		"price": {"cheap"}, "units_per_day": {"2"},
	})

	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `aria-invalid="true"`)
	assert.Contains(suite.T(), w.Body.String(), `value="cheap"`)
	_, ok, err := suite.db.Load(suite.user.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *HandlersTestSuite) TestSettingsRejectsOversizedUnits() {
	w := suite.do(suite.h.SaveSettings, http.MethodPost, "/settings", url.Values{
		"price": {"2.29"}, "units_per_day": {"9000000000000000000"},
	})

	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `name="units_per_day" min="1" max="10000" value="9000000000000000000" aria-invalid="true"`)
	_, ok, err := suite.db.Load(suite.user.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
}

func (suite *HandlersTestSuite) TestBreakdown() {
	suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {"2024-01-01"}})

	for kind, want := range map[string]string{
		"money": "$13.74",
		"units": "Units Avoided",
		"days":  "2024-01-04",
	} {
		req := httptest.NewRequest(http.MethodGet, "/breakdown/"+kind, http.NoBody)
		req.SetPathValue("kind", kind)
		req.AddCookie(suite.cookie)
		w := httptest.NewRecorder()
		suite.h.AuthMiddleware(http.HandlerFunc(suite.h.Breakdown)).ServeHTTP(w, req)

		assert.Equal(suite.T(), http.StatusOK, w.Code, kind)
		assert.Contains(suite.T(), w.Body.String(), want, kind)
	}
}

func (suite *HandlersTestSuite) TestBreakdownUnknownKind() {
	req := httptest.NewRequest(http.MethodGet, "/breakdown/cans", http.NoBody)
	req.SetPathValue("kind", "cans")
	req.AddCookie(suite.cookie)
	w := httptest.NewRecorder()
	suite.h.AuthMiddleware(http.HandlerFunc(suite.h.Breakdown)).ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestBreakdownEmpty() {
	req := httptest.NewRequest(http.MethodGet, "/breakdown/days", http.NoBody)
	req.SetPathValue("kind", "days")
	req.AddCookie(suite.cookie)
	w := httptest.NewRecorder()
	suite.h.AuthMiddleware(http.HandlerFunc(suite.h.Breakdown)).ServeHTTP(w, req)

	assert.Contains(suite.T(), w.Body.String(), "No data yet.")
}

func (suite *HandlersTestSuite) TestChartHealthResets() {
	suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {"2023-12-30"}})

	w := suite.do(suite.h.Chart, http.MethodGet, "/chart", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "<polyline")
	assert.Contains(suite.T(), w.Body.String(), "Dec 23")
	assert.Contains(suite.T(), w.Body.String(), "Jan 24")

	w = suite.do(suite.h.Health, http.MethodGet, "/health", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "5 days free.")
	assert.Contains(suite.T(), w.Body.String(), "Next milestone at day 7.")

	suite.do(suite.h.RestartJourney, http.MethodPost, "/tracker/restart", nil)
	w = suite.do(suite.h.Resets, http.MethodGet, "/resets", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "1 resets logged.")
	assert.Contains(suite.T(), w.Body.String(), "2023-12-30")
}

func (suite *HandlersTestSuite) TestAPISummary() {
	suite.do(suite.h.StartJourney, http.MethodPost, "/tracker/start", url.Values{"quit_date": {"2024-01-01"}})

	w := suite.do(suite.h.APISummary, http.MethodGet, "/api/summary", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "application/json", w.Header().Get("Content-Type"))

	var resp SummaryResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(suite.T(), resp.Tracking)
	assert.Equal(suite.T(), 3, resp.DaysFree)
	assert.Equal(suite.T(), int64(6), resp.UnitsAvoided)
	assert.Equal(suite.T(), int64(1374), resp.MoneySavedMinor)
	assert.Equal(suite.T(), "$13.74", resp.MoneySaved)
	require.NotNil(suite.T(), resp.Record.QuitDate)
	assert.Equal(suite.T(), "2024-01-01", *resp.Record.QuitDate)
	assert.Empty(suite.T(), resp.Record.ResetHistory)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestBuildLineChart(t *testing.T) {
	c := BuildLineChart([]models.MonthlyPoint{
		{Key: "2024-01", Label: "Jan 24", CumulativeMoneyMinor: 916},
		{Key: "2024-02", Label: "Feb 24", CumulativeMoneyMinor: 1832},
	}, 200, 100, 10)

	require.Len(t, c.Points, 2)
	assert.Equal(t, 10.0, c.Points[0].X)
	assert.Equal(t, 190.0, c.Points[1].X)
	assert.Equal(t, 10.0, c.Points[1].Y, "largest value touches the top padding")
	assert.Equal(t, 50.0, c.Points[0].Y)
	assert.Equal(t, "10.0,50.0 190.0,10.0", c.Line)
	assert.Equal(t, "M10.0,90.0 L10.0,50.0 L190.0,10.0 L190.0,90.0 L10.0,90.0 Z", c.Area)
	assert.False(t, c.Empty())
}

func TestBuildLineChartSinglePointAndEmpty(t *testing.T) {
	c := BuildLineChart([]models.MonthlyPoint{{Label: "Jan 24", CumulativeMoneyMinor: 0}}, 200, 100, 10)
	require.Len(t, c.Points, 1)
	assert.Equal(t, 10.0, c.Points[0].X)
	assert.Equal(t, 90.0, c.Points[0].Y, "zero sits on the axis")

	assert.True(t, BuildLineChart(nil, 200, 100, 10).Empty())
}
