package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/afrominerals/atlas/internal/cache/memory"
	"github.com/afrominerals/atlas/internal/dataset"
	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/repository"
	"github.com/afrominerals/atlas/internal/service"
	"github.com/afrominerals/atlas/internal/sources"
)

// memoryUserRepository is an in-memory repository.UserRepository for
// exercising the full HTTP stack without a database.
type memoryUserRepository struct {
	users  map[int64]*domain.User
	nextID int64
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[int64]*domain.User), nextID: 1}
}

func (m *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return domain.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *memoryUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUserRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(m.users))
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *memoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryUserRepository) EnsureSeedAdmin(ctx context.Context, passwordHash string) error {
	if len(m.users) > 0 {
		return nil
	}
	return m.Create(ctx, domain.NewUser("admin", passwordHash, domain.RoleAdministrator, ""))
}

const testAdminSecret = "letmein"

// newTestServer builds the full HTTP stack over in-memory backends and a
// temp source directory, seeded with one account per role.
func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		sources.CountriesFile: "CountryID,CountryName,GDP_BillionUSD,MiningRevenue_BillionUSD,KeyProjects\n" +
			"1,Zed,100,20,Big Pit\n",
		sources.MineralsFile: "MineralID,MineralName,Description\n" +
			"1,Cobalt,Battery metal\n",
		sources.ProductionFile: "CountryID,MineralID,Production_tonnes,ExportValue_BillionUSD\n" +
			"1,1,1000,2.5\n",
		sources.SitesFile: "SiteID,SiteName,CountryID,MineralID,Latitude,Longitude,Production_tonnes\n" +
			"1,Big Pit,1,1,-11.6,27.5,900\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	store, err := sources.NewFilesystemStore(dir)
	require.NoError(t, err)

	logger := zerolog.Nop()
	cache := memory.NewCache()
	t.Cleanup(cache.Stop)

	userService := service.NewUserService(newMemoryUserRepository(), testAdminSecret, logger)
	require.NoError(t, userService.EnsureSeedAdmin(context.Background(), "password"))

	sessionService := service.NewSessionService(userService, cache, time.Hour, logger)
	datasetService := service.NewDatasetService(dataset.NewRepository(store, logger), nil, logger)
	insightService := service.NewInsightService(datasetService, logger)

	for _, account := range []struct {
		username string
		role     string
	}{
		{"ingrid", "Investor"},
		{"rita", "Researcher"},
	} {
		_, err := userService.Register(context.Background(), service.RegisterInput{
			Username: account.username,
			Password: "secret",
			Confirm:  "secret",
			Role:     account.role,
		})
		require.NoError(t, err)
	}

	router := NewRouter(RouterConfig{
		AuthHandler: NewAuthHandler(AuthConfig{
			UserService:    userService,
			SessionService: sessionService,
			SessionTTL:     time.Hour,
			Logger:         logger,
		}),
		DashboardHandler: NewDashboardHandler(DashboardConfig{
			DatasetService: datasetService,
			InsightService: insightService,
			Logger:         logger,
		}),
		AdminHandler: NewAdminHandler(AdminConfig{
			UserService:    userService,
			DatasetService: datasetService,
			Logger:         logger,
		}),
		SessionService: sessionService,
		Logger:         logger,
	})

	server := httptest.NewServer(router.Handler())
	t.Cleanup(server.Close)
	return server, dir
}

// login authenticates and returns the session cookie.
func login(t *testing.T, server *httptest.Server, identifier, password string) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"identifier": identifier, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func doRequest(t *testing.T, method, url string, cookie *http.Cookie, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()

	var reader *bytes.Buffer
	if body == nil {
		reader = &bytes.Buffer{}
	} else {
		reader = body
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRouter_Health(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_LoginAndSession(t *testing.T) {
	server, _ := newTestServer(t)
	cookie := login(t, server, "rita", "secret")

	resp := doRequest(t, http.MethodGet, server.URL+"/api/auth/session", cookie, nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session struct {
		Username string   `json:"username"`
		Role     string   `json:"role"`
		Pages    []string `json:"pages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	require.Equal(t, "rita", session.Username)
	require.Equal(t, "Researcher", session.Role)
	require.Equal(t, []string{"researcher", "home"}, session.Pages)
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	server, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"identifier": "rita", "password": "wrong"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_AnonymousRejected(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{
		"/api/dashboard/minerals/top",
		"/api/dashboard/summary",
		"/api/admin/users",
		"/api/auth/session",
	} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
	}
}

func TestRouter_RoleGating(t *testing.T) {
	server, _ := newTestServer(t)

	investor := login(t, server, "ingrid", "secret")
	researcher := login(t, server, "rita", "secret")
	admin := login(t, server, "admin", "password")

	tests := []struct {
		path       string
		cookie     *http.Cookie
		wantStatus int
	}{
		// Shared dashboard routes are open to every role.
		{"/api/dashboard/minerals/top", investor, http.StatusOK},
		{"/api/dashboard/countries/top", investor, http.StatusOK},
		{"/api/map", investor, http.StatusOK},
		{"/api/minerals", investor, http.StatusOK},

		// Full dashboard is closed to investors.
		{"/api/dashboard/summary", investor, http.StatusForbidden},
		{"/api/dashboard/compare", investor, http.StatusForbidden},
		{"/api/countries", investor, http.StatusForbidden},
		{"/api/dashboard/summary", researcher, http.StatusOK},
		{"/api/dashboard/summary", admin, http.StatusOK},

		// Admin routes are closed to everyone else.
		{"/api/admin/users", investor, http.StatusForbidden},
		{"/api/admin/users", researcher, http.StatusForbidden},
		{"/api/admin/users", admin, http.StatusOK},
	}

	for _, tt := range tests {
		resp := doRequest(t, http.MethodGet, server.URL+tt.path, tt.cookie, nil, "")
		resp.Body.Close()
		require.Equal(t, tt.wantStatus, resp.StatusCode, "path %s", tt.path)
	}
}

func TestRouter_Logout(t *testing.T) {
	server, _ := newTestServer(t)
	cookie := login(t, server, "rita", "secret")

	resp := doRequest(t, http.MethodPost, server.URL+"/api/auth/logout", cookie, nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, server.URL+"/api/auth/session", cookie, nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_AdminDeleteUser(t *testing.T) {
	server, _ := newTestServer(t)
	admin := login(t, server, "admin", "password")

	// ingrid has id 2 (seed admin is 1).
	resp := doRequest(t, http.MethodDelete, server.URL+"/api/admin/users/2", admin, nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The seeded administrator is protected.
	resp = doRequest(t, http.MethodDelete, server.URL+"/api/admin/users/1", admin, nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Deleting an unknown id is a no-op.
	resp = doRequest(t, http.MethodDelete, server.URL+"/api/admin/users/99", admin, nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fmt.Fprint(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestRouter_AdminImportSource(t *testing.T) {
	server, _ := newTestServer(t)
	admin := login(t, server, "admin", "password")

	csv := "MineralID,MineralName,Description\n1,Cobalt,x\n2,Graphite,y\n"
	body, contentType := multipartUpload(t, sources.MineralsFile, csv)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/sources", admin, body, contentType)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The new mineral shows up in the filter list immediately.
	listResp := doRequest(t, http.MethodGet, server.URL+"/api/minerals", admin, nil, "")
	defer listResp.Body.Close()
	var names []string
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&names))
	require.Contains(t, names, "Graphite")
}

func TestRouter_AdminImportRejectsUnknownName(t *testing.T) {
	server, _ := newTestServer(t)
	admin := login(t, server, "admin", "password")

	body, contentType := multipartUpload(t, "evil.csv", "whatever")
	resp := doRequest(t, http.MethodPost, server.URL+"/api/admin/sources", admin, body, contentType)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_MapFilter(t *testing.T) {
	server, _ := newTestServer(t)
	investor := login(t, server, "ingrid", "secret")

	resp := doRequest(t, http.MethodGet, server.URL+"/api/map?mineral=Cobalt", investor, nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var model struct {
		Markers []struct {
			SiteName    string `json:"site_name"`
			MineralName string `json:"mineral_name"`
		} `json:"markers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&model))
	require.Len(t, model.Markers, 1)
	require.Equal(t, "Big Pit", model.Markers[0].SiteName)

	// Unknown mineral filters everything out but is not an error.
	resp = doRequest(t, http.MethodGet, server.URL+"/api/map?mineral=Unobtainium", investor, nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
