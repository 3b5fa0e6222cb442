package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	. "github.com/fivetwenty-io/minthcm-client/internal/client"
	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

// fakeAPI serves the token endpoint at /legacy/Api/access_token and the API
// below /legacy/Api/V8.
type fakeAPI struct {
	server      *httptest.Server
	tokenCalls  int32
	apiCalls    int32
	logoutCalls int32

	mutex    sync.Mutex
	issued   int
	lastPath string
	lastRaw  string
	lastBody []byte
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{}

	mux := http.NewServeMux()
	mux.HandleFunc("/legacy/Api/access_token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&api.tokenCalls, 1)

		_, secret, _ := r.BasicAuth()
		if secret != "client-secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Client authentication failed"}`))

			return
		}

		api.mutex.Lock()
		api.issued++
		token := "token-" + strconv.Itoa(api.issued)
		api.mutex.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/legacy/Api/V8/logout", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&api.logoutCalls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/legacy/Api/V8/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&api.apiCalls, 1)

		body, _ := io.ReadAll(r.Body)

		api.mutex.Lock()
		api.lastPath = r.URL.Path
		api.lastRaw = r.URL.RawQuery
		api.lastBody = body
		api.mutex.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"type":"Employees","id":"1"}]}`))
	})

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)

	return api
}

func (a *fakeAPI) baseURL() string {
	return a.server.URL + "/legacy/Api/V8"
}

func (a *fakeAPI) config(tokenPath string) *minthcm.Config {
	return &minthcm.Config{
		BaseURL:      a.baseURL(),
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenPath:    tokenPath,
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("validates config", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), nil)
		require.ErrorIs(t, err, minthcm.ErrConfigRequired)

		_, err = New(context.Background(), &minthcm.Config{ClientID: "id", ClientSecret: "secret"})
		require.ErrorIs(t, err, minthcm.ErrBaseURLRequired)

		_, err = New(context.Background(), &minthcm.Config{BaseURL: "https://h/Api/V8", ClientSecret: "secret"})
		require.ErrorIs(t, err, minthcm.ErrClientIDRequired)

		_, err = New(context.Background(), &minthcm.Config{BaseURL: "https://h/Api/V8", ClientID: "id"})
		require.ErrorIs(t, err, minthcm.ErrClientSecretRequired)
	})

	t.Run("fetches and persists a token", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		tokenPath := filepath.Join(t.TempDir(), "AccessToken.json")

		client, err := New(context.Background(), api.config(tokenPath))
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, minthcm.StateAuthenticated, client.State())
		assert.Equal(t, int32(1), atomic.LoadInt32(&api.tokenCalls))

		data, err := os.ReadFile(tokenPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"access_token":"token-1"`)
	})

	t.Run("reuses a persisted token", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		tokenPath := filepath.Join(t.TempDir(), "AccessToken.json")
		writeToken(t, tokenPath, &oauth2.Token{AccessToken: "saved", Expiry: time.Now().Add(time.Hour)})

		client, err := New(context.Background(), api.config(tokenPath))
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, int32(0), atomic.LoadInt32(&api.tokenCalls))
	})

	t.Run("expired persisted token costs one fetch and one request", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		tokenPath := filepath.Join(t.TempDir(), "AccessToken.json")
		writeToken(t, tokenPath, &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)})

		client, err := New(context.Background(), api.config(tokenPath))
		require.NoError(t, err)
		defer client.Close()

		_, err = client.Module("Employees").GetAllRecords(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int32(1), atomic.LoadInt32(&api.tokenCalls))
		assert.Equal(t, int32(1), atomic.LoadInt32(&api.apiCalls))
	})

	t.Run("invalid credentials are an authentication error", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		config := api.config("")
		config.DisableTokenPersistence = true
		config.ClientSecret = "wrong"

		_, err := New(context.Background(), config)
		require.Error(t, err)
		assert.True(t, minthcm.IsAuthenticationError(err))
	})

	t.Run("token URL override", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		config := api.config("")
		config.DisableTokenPersistence = true
		config.BaseURL = api.server.URL + "/legacy/Api/V8/"
		config.TokenURL = api.server.URL + "/legacy/Api/access_token"

		client, err := New(context.Background(), config)
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, api.baseURL(), client.BaseURL())
	})
}

func TestNormalizeBaseURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://hcm.example.com/legacy/Api/V8", NormalizeBaseURL("hcm.example.com/legacy/Api/V8/"))
	assert.Equal(t, "http://localhost/Api/V8", NormalizeBaseURL(" http://localhost/Api/V8 "))
	assert.Equal(t, "", NormalizeBaseURL(""))
}

func TestClient_Requests(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t)
	config := api.config("")
	config.DisableTokenPersistence = true

	client, err := New(context.Background(), config)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	_, err = client.Module("Employees").Query(ctx, minthcm.NewQueryParams().
		WithFields("name").
		WhereOp("age", minthcm.OpGreaterThan, 30))
	require.NoError(t, err)

	api.mutex.Lock()
	assert.Equal(t, "/legacy/Api/V8/module/Employees", api.lastPath)
	assert.Equal(t, "fields%5BEmployees%5D=name&filter%5Boperator%5D=and&filter%5Bage%5D%5BGT%5D=30", api.lastRaw)
	api.mutex.Unlock()

	_, err = client.Module("Employees").Create(ctx, minthcm.Attributes{"name": "X"})
	require.NoError(t, err)

	api.mutex.Lock()
	assert.JSONEq(t, `{"data":{"type":"Employees","attributes":{"name":"X"}}}`, string(api.lastBody))
	api.mutex.Unlock()

	_, err = client.GetModulesMetadata(ctx)
	require.NoError(t, err)

	_, err = client.GetUserPreferences(ctx, "1")
	require.NoError(t, err)

	api.mutex.Lock()
	assert.Equal(t, "/legacy/Api/V8/user-preferences/1", api.lastPath)
	api.mutex.Unlock()
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Logout(t *testing.T) {
	t.Parallel()

	t.Run("logout truncates the token file", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		tokenPath := filepath.Join(t.TempDir(), "AccessToken.json")

		client, err := New(context.Background(), api.config(tokenPath))
		require.NoError(t, err)

		require.NoError(t, client.Logout(context.Background()))
		assert.Equal(t, minthcm.StateLoggedOut, client.State())
		assert.Equal(t, int32(1), atomic.LoadInt32(&api.logoutCalls))

		data, err := os.ReadFile(tokenPath)
		require.NoError(t, err)
		assert.Empty(t, data)

		_, err = client.Module("Employees").GetAllRecords(context.Background())
		require.ErrorIs(t, err, minthcm.ErrSessionClosed)
		require.ErrorIs(t, err, minthcm.ErrRequest)

		require.NoError(t, client.Close())
		assert.Equal(t, int32(1), atomic.LoadInt32(&api.logoutCalls))
	})

	t.Run("storage failures during logout are swallowed", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		config := api.config("")
		config.TokenStorage = &brokenClearStorage{}

		client, err := New(context.Background(), config)
		require.NoError(t, err)

		require.NoError(t, client.Logout(context.Background()))
		assert.Equal(t, minthcm.StateLoggedOut, client.State())
	})

	t.Run("close logs out when configured", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		config := api.config("")
		config.DisableTokenPersistence = true
		config.LogoutOnExit = true

		client, err := New(context.Background(), config)
		require.NoError(t, err)

		require.NoError(t, client.Close())
		require.NoError(t, client.Close())
		assert.Equal(t, int32(1), atomic.LoadInt32(&api.logoutCalls))
		assert.Equal(t, minthcm.StateLoggedOut, client.State())
	})

	t.Run("close without logout sends nothing", func(t *testing.T) {
		t.Parallel()

		api := newFakeAPI(t)
		config := api.config("")
		config.DisableTokenPersistence = true

		client, err := New(context.Background(), config)
		require.NoError(t, err)

		require.NoError(t, client.Close())
		assert.Equal(t, int32(0), atomic.LoadInt32(&api.logoutCalls))
		assert.Equal(t, minthcm.StateAuthenticated, client.State())
	})
}

func writeToken(t *testing.T, path string, token *oauth2.Token) {
	t.Helper()

	data, err := json.Marshal(token)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

type brokenClearStorage struct{}

func (s *brokenClearStorage) Load(context.Context) (*oauth2.Token, error) {
	return nil, nil //nolint:nilnil // empty storage
}

func (s *brokenClearStorage) Save(context.Context, *oauth2.Token) error {
	return nil
}

func (s *brokenClearStorage) Clear(context.Context) error {
	return os.ErrPermission
}
