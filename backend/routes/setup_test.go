package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ieltsprep/backend/config"
	"ieltsprep/backend/models"
	"ieltsprep/backend/services/generator"
	"ieltsprep/backend/session"
	"ieltsprep/backend/storage"
	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "Passw0rd!"

// scriptedModel answers every prompt with the configured reply.
type scriptedModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (m *scriptedModel) Generate(context.Context, string, ...generator.Attachment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.reply, m.err
}

func (m *scriptedModel) set(reply string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply, m.err = reply, err
}

// recordingDispatcher keeps jobs instead of running them.
type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []models.ExtractionJob
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job models.ExtractionJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type testEnv struct {
	app        *fiber.App
	db         *gorm.DB
	cfg        *config.Config
	model      *scriptedModel
	gen        *generator.Service
	store      storage.Storage
	dispatcher *recordingDispatcher
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Environment:    "test",
		DBDriver:       "sqlite",
		DBPath:         filepath.Join(t.TempDir(), "test.db"),
		JWTSecret:      "testsecret",
		JWTExpiry:      time.Hour,
		BcryptCost:     bcrypt.MinCost,
		MaxUploadSize:  1 << 20,
		CORSOrigins:    "*",
		StorageBackend: "local",
		UploadDir:      t.TempDir(),
		WorkerCount:    1,
	}

	db, err := utils.InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	t.Cleanup(func() { utils.CloseDB(db) })

	store, err := storage.New(cfg)
	require.NoError(t, err)

	model := &scriptedModel{}
	gen := generator.NewService(model, time.Second)
	dispatcher := &recordingDispatcher{}

	app := NewApp(Deps{
		DB:         db,
		Cfg:        cfg,
		Generator:  gen,
		Storage:    store,
		Dispatcher: dispatcher,
		Revoker:    session.NewMemoryRevoker(),
		Logger:     zerolog.Nop(),
	})

	return &testEnv{app: app, db: db, cfg: cfg, model: model, gen: gen, store: store, dispatcher: dispatcher}
}

// createUser stores an account and returns it with a valid token.
func (e *testEnv) createUser(t *testing.T, name, email string, role models.Role) (*models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Name: name, Email: email, PasswordHash: string(hash), Role: role, IsActive: true}
	require.NoError(t, e.db.Create(user).Error)

	token, _, err := utils.GenerateJWTToken(user, e.cfg)
	require.NoError(t, err)
	return user, token
}

type envelope struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Data      json.RawMessage    `json:"data"`
	Errors    []utils.FieldError `json:"errors"`
	Timestamp string             `json:"timestamp"`
	Stack     string             `json:"stack"`
}

func (env envelope) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

type page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return resp.StatusCode, env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, token)
}

func (e *testEnv) upload(t *testing.T, filename string, content []byte, section, token string) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if section != "" {
		require.NoError(t, w.WriteField("section", section))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/questions/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.send(t, req, token)
}

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

var errUnreachable = errors.New("dial tcp: connection refused")
