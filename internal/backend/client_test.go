package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockAPI создаёт mock HTTP-сервер backend и клиент к нему.
func setupMockAPI(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Options{
		BaseURL:            server.URL + "/",
		MediaBaseURL:       "https://cdn.pbs.local/",
		Timeout:            5 * time.Second,
		BreakerMaxFailures: 3,
		BreakerTimeout:     time.Minute,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return client, server
}

func TestClient_ListUsers(t *testing.T) {
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q, ожидается Bearer tok-1", got)
		}
		if got := r.URL.Query().Get("q"); got != "ann" {
			t.Errorf("q = %q, ожидается ann", got)
		}
		json.NewEncoder(w).Encode([]model.User{
			{ID: 1, UserName: "ann", Role: model.RoleSubscriber, Active: true},
			{ID: 2, UserName: "anna", Role: model.RoleAdmin},
		})
	})

	ctx := WithToken(context.Background(), "tok-1")
	users, err := client.ListUsers(ctx, " ann ")
	if err != nil {
		t.Fatalf("ListUsers вернул ошибку: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("ожидалось 2 пользователя, получено %d", len(users))
	}
	if users[0].UserName != "ann" || !users[0].IsSubscriber() {
		t.Errorf("неожиданный первый пользователь: %+v", users[0])
	}
}

func TestClient_NoTokenOmitsAuthorization(t *testing.T) {
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("Authorization не должен передаваться без токена")
		}
		if r.URL.RawQuery != "" {
			t.Errorf("пустой поиск не должен передавать q, получено %q", r.URL.RawQuery)
		}
		w.Write([]byte("[]"))
	})

	subs, err := client.ListSubscriptions(context.Background(), "")
	if err != nil {
		t.Fatalf("ListSubscriptions вернул ошибку: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("ожидался пустой список, получено %d", len(subs))
	}
}

func TestClient_ListSubscribers(t *testing.T) {
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.User{
			{ID: 1, Role: model.RoleUser},
			{ID: 2, Role: model.RoleSubscriber},
			{ID: 3, Role: model.RoleSubscriber},
		})
	})

	subs, err := client.ListSubscribers(context.Background())
	if err != nil {
		t.Fatalf("ListSubscribers вернул ошибку: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != 2 || subs[1].ID != 3 {
		t.Errorf("неожиданные подписчики: %+v", subs)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		unauthorized bool
	}{
		{"not found", http.StatusNotFound, false},
		{"unauthorized", http.StatusUnauthorized, true},
		{"bad request", http.StatusBadRequest, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"detail":"nope"}`))
			})

			err := client.DeleteUser(context.Background(), 7)
			if err == nil {
				t.Fatal("ожидалась ошибка")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("ожидался *APIError, получен %T: %v", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, ожидается %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Op != "delete user" {
				t.Errorf("Op = %q, ожидается delete user", apiErr.Op)
			}
			if errors.Is(err, ErrUnauthorized) != tt.unauthorized {
				t.Errorf("errors.Is(ErrUnauthorized) = %v, ожидается %v", !tt.unauthorized, tt.unauthorized)
			}
		})
	}
}

func TestClient_CreateAndUpdateUser(t *testing.T) {
	var bodies []map[string]any
	var methods, paths []string
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("декодирование тела: %v", err)
		}
		bodies = append(bodies, body)
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{}`))
	})

	ctx := context.Background()
	if err := client.CreateUser(ctx, model.UserInput{UserName: "bob", Email: "b@pbs", Password: "pw"}); err != nil {
		t.Fatalf("CreateUser вернул ошибку: %v", err)
	}
	if err := client.UpdateUser(ctx, 5, model.UserInput{UserName: "bob", Role: model.RoleSubscriber, Active: true}); err != nil {
		t.Fatalf("UpdateUser вернул ошибку: %v", err)
	}

	if methods[0] != http.MethodPost || paths[0] != "/users" {
		t.Errorf("create: %s %s", methods[0], paths[0])
	}
	if bodies[0]["role"] != model.RoleUser {
		t.Errorf("роль по умолчанию = %v, ожидается user", bodies[0]["role"])
	}
	if bodies[0]["password"] != "pw" {
		t.Errorf("password не передан при создании")
	}
	if methods[1] != http.MethodPut || paths[1] != "/users/5" {
		t.Errorf("update: %s %s", methods[1], paths[1])
	}
	if _, ok := bodies[1]["password"]; ok {
		t.Error("пустой пароль не должен передаваться")
	}
}

func TestClient_ContentType(t *testing.T) {
	got := map[string]string{}
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		got[r.Method] = r.Header.Get("Content-Type")
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"user_id": 5}`))
		}
	})

	ctx := context.Background()
	if _, err := client.GetUser(ctx, 5); err != nil {
		t.Fatalf("GetUser вернул ошибку: %v", err)
	}
	if err := client.DeleteUser(ctx, 5); err != nil {
		t.Fatalf("DeleteUser вернул ошибку: %v", err)
	}
	if err := client.UpdateUser(ctx, 5, model.UserInput{UserName: "bob"}); err != nil {
		t.Fatalf("UpdateUser вернул ошибку: %v", err)
	}

	tests := []struct {
		method, want string
	}{
		{http.MethodGet, ""},
		{http.MethodDelete, ""},
		{http.MethodPut, "application/json"},
	}
	for _, tt := range tests {
		if got[tt.method] != tt.want {
			t.Errorf("%s: Content-Type = %q, ожидается %q", tt.method, got[tt.method], tt.want)
		}
	}
}

func TestClient_ListMedia(t *testing.T) {
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("user_id") != "42" || q.Get("date") != "2024-03-05" {
			t.Errorf("неожиданные параметры: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[
			{"id":1,"user_id":42,"original_name":"a.png","url":"/uploads/a.png","media_type":"image/png","created_at":"2024-03-05T10:00:00Z"},
			{"id":2,"user_id":42,"original_name":"b.mp4","url":"uploads/b.mp4","media_type":"video/mp4","created_at":"2024-03-05T11:00:00Z"},
			{"id":3,"user_id":42,"original_name":"c.jpg","url":"https://other.host/c.jpg","media_type":"image/jpeg","created_at":"2024-03-05T12:00:00Z"}
		]`))
	})

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local)
	items, err := client.ListMedia(context.Background(), 42, day)
	if err != nil {
		t.Fatalf("ListMedia вернул ошибку: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("ожидалось 3 элемента, получено %d", len(items))
	}

	want := []struct {
		url  string
		kind model.MediaKind
	}{
		{"https://cdn.pbs.local/uploads/a.png", model.MediaImage},
		{"https://cdn.pbs.local/uploads/b.mp4", model.MediaVideo},
		{"https://other.host/c.jpg", model.MediaImage},
	}
	for i, w := range want {
		if items[i].URL != w.url {
			t.Errorf("items[%d].URL = %q, ожидается %q", i, items[i].URL, w.url)
		}
		if items[i].Kind != w.kind {
			t.Errorf("items[%d].Kind = %v, ожидается %v", i, items[i].Kind, w.kind)
		}
	}
}

func TestClient_UploadMedia(t *testing.T) {
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/media" {
			t.Errorf("неожиданный запрос: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("user_id") != "42" || r.FormValue("date") != "2024-03-05" {
			t.Errorf("поля формы: user_id=%q date=%q", r.FormValue("user_id"), r.FormValue("date"))
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 {
			t.Errorf("ожидалось 2 файла, получено %d", len(files))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if files[0].Filename != "a.png" || files[0].Header.Get("Content-Type") != "image/png" {
			t.Errorf("первый файл: %s %s", files[0].Filename, files[0].Header.Get("Content-Type"))
		}
		f, _ := files[1].Open()
		data, _ := io.ReadAll(f)
		if string(data) != "video-bytes" {
			t.Errorf("содержимое второго файла = %q", data)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[]`))
	})

	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local)
	err := client.UploadMedia(context.Background(), 42, day, []model.UploadFile{
		{Name: "a.png", ContentType: "image/png", Data: []byte("png-bytes")},
		{Name: "b.mp4", ContentType: "video/mp4", Data: []byte("video-bytes")},
	})
	if err != nil {
		t.Fatalf("UploadMedia вернул ошибку: %v", err)
	}
}

func TestClient_UploadRejectedLocally(t *testing.T) {
	var calls atomic.Int32
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	ctx := context.Background()
	if err := client.UploadMedia(ctx, 1, time.Now(), nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("ожидалась ErrNoFiles, получена %v", err)
	}
	err := client.UploadAdvertisements(ctx, []model.UploadFile{
		{Name: "ad.png", ContentType: "image/png"},
		{Name: "clip.mp4", ContentType: "video/mp4"},
	})
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("ожидалась ErrNotImage, получена %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("backend не должен вызываться, вызовов: %d", calls.Load())
	}
}

func TestClient_ListAdvertisements(t *testing.T) {
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":9,"original_name":"promo.jpg","url":"/ads/promo.jpg"}]`))
	})

	ads, err := client.ListAdvertisements(context.Background())
	if err != nil {
		t.Fatalf("ListAdvertisements вернул ошибку: %v", err)
	}
	if len(ads) != 1 || ads[0].URL != "https://cdn.pbs.local/ads/promo.jpg" {
		t.Errorf("неожиданный результат: %+v", ads)
	}
}

func TestClient_Login(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantToken  string
		wantUserID string
		wantMsg    string
		wantErr    error
	}{
		{"строковый user_id", 200, `{"token":"t1","user_id":"17"}`, "t1", "17", "", nil},
		{"числовой user_id", 200, `{"token":"t2","user_id":17}`, "t2", "17", "", nil},
		{"нет токена", 200, `{"user_id":17}`, "", "", "", ErrInvalidLoginResponse},
		{"detail строкой", 401, `{"detail":"Invalid credentials"}`, "", "", "Invalid credentials", nil},
		{"detail списком", 422, `{"detail":[{"loc":["body"],"msg":"field required"}]}`, "", "", `[{"loc":["body"],"msg":"field required"}]`, nil},
		{"message", 400, `{"message":"User disabled"}`, "", "", "User disabled", nil},
		{"пустое тело", 500, ``, "", "", "Login failed", nil},
		{"без полей", 403, `{"error":"x"}`, "", "", "Login failed", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
					t.Errorf("неожиданный запрос: %s %s", r.Method, r.URL.Path)
				}
				if r.Header.Get("Authorization") != "" {
					t.Error("логин не должен передавать Authorization")
				}
				var creds map[string]string
				json.NewDecoder(r.Body).Decode(&creds)
				if creds["user_name"] != "admin" || creds["password"] != "pw" {
					t.Errorf("неожиданные учётные данные: %v", creds)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			ctx := WithToken(context.Background(), "stale")
			res, err := client.Login(ctx, "admin", "pw")

			if tt.wantMsg != "" {
				var loginErr *LoginError
				if !errors.As(err, &loginErr) {
					t.Fatalf("ожидался *LoginError, получено %v", err)
				}
				if loginErr.Message != tt.wantMsg {
					t.Errorf("Message = %q, ожидается %q", loginErr.Message, tt.wantMsg)
				}
				return
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ожидалась %v, получена %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login вернул ошибку: %v", err)
			}
			if res.Token != tt.wantToken || res.UserID != tt.wantUserID {
				t.Errorf("результат = %+v", res)
			}
		})
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.ListUsers(ctx, ""); err == nil {
			t.Fatalf("запрос %d: ожидалась ошибка", i)
		}
	}
	if client.BreakerState() != "open" {
		t.Fatalf("BreakerState = %q, ожидается open", client.BreakerState())
	}

	_, err := client.ListUsers(ctx, "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("ожидалась ErrUnavailable, получена %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("разомкнутый breaker не должен пропускать запросы, вызовов: %d", calls.Load())
	}
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	client, _ := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 5; i++ {
		client.GetUser(context.Background(), 1)
	}
	if client.BreakerState() != "closed" {
		t.Errorf("BreakerState = %q, ожидается closed", client.BreakerState())
	}
}

func TestResolveMediaURL(t *testing.T) {
	tests := []struct {
		base, u, want string
	}{
		{"https://cdn", "/a.png", "https://cdn/a.png"},
		{"https://cdn/", "a.png", "https://cdn/a.png"},
		{"https://cdn", "http://x/a.png", "http://x/a.png"},
		{"https://cdn", "", ""},
	}
	for _, tt := range tests {
		if got := ResolveMediaURL(tt.base, tt.u); got != tt.want {
			t.Errorf("ResolveMediaURL(%q, %q) = %q, ожидается %q", tt.base, tt.u, got, tt.want)
		}
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Options{}, testLogger()); err == nil {
		t.Error("ожидалась ошибка без BaseURL")
	}
	_, err := New(Options{BaseURL: "http://x", CACertPath: "/nonexistent/ca.pem"}, testLogger())
	if err == nil || !strings.Contains(err.Error(), "CA") {
		t.Errorf("ожидалась ошибка загрузки CA, получена %v", err)
	}
}
