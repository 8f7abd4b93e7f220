package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/crypto"
	"github.com/pqlammy/Gennerweb-sub000/internal/handler"
	"github.com/pqlammy/Gennerweb-sub000/internal/lockout"
	"github.com/pqlammy/Gennerweb-sub000/internal/model"
	"github.com/pqlammy/Gennerweb-sub000/internal/router"
	"github.com/pqlammy/Gennerweb-sub000/internal/security"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Contribution{}, &model.Settlement{}, &model.LoginLog{}); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	cfg := &config.Config{
		Security: config.SecurityConfig{
			EncryptionKey:      "0123456789abcdef0123456789abcdef",
			LoginMaxAttempts:   5,
			LoginWindowMinutes: 15,
			LockoutMinutes:     15,
		},
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenExpiryHours: 1},
		Contribution: config.ContributionConfig{
			Fields: config.FieldPolicy{
				Email:      config.FieldRequired,
				Address:    config.FieldOptional,
				City:       config.FieldOptional,
				PostalCode: config.FieldOptional,
				Phone:      config.FieldOptional,
			},
			AmountPresets: config.AmountPresets{Values: []float64{5, 10, 20}},
		},
	}
	key, err := crypto.KeyFromSecret(cfg.Security.EncryptionKey)
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	guard := lockout.NewStore(lockout.Config{
		MaxAttempts:  cfg.Security.LoginMaxAttempts,
		Window:       cfg.Security.LoginWindow(),
		LockDuration: cfg.Security.LockoutDuration(),
	})

	return &testServer{
		engine: router.Setup(db, key, guard, cfg),
		db:     db,
	}
}

func (s *testServer) createUser(t *testing.T, username, password string, role model.Role) *model.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &model.User{Username: username, Password: hash, Role: role}
	if err := s.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (s *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	w := s.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Data.Token
}

func sampleContribution() gin.H {
	return gin.H{
		"amount":         20,
		"first_name":     "Hans",
		"last_name":      "Muster",
		"email":          "hans.muster@example.ch",
		"payment_method": "twint",
	}
}

func TestLoginEndpointLockout(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "hans", "correct-horse", model.RoleMember)

	for i := 0; i < 5; i++ {
		w := s.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
			"username": "hans", "password": "wrong",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, w.Code)
		}
	}

	w := s.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "hans", "password": "correct-horse",
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after lockout, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	var resp struct {
		Data struct {
			RetryAfterSeconds int `json:"retry_after_seconds"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.RetryAfterSeconds <= 0 {
		t.Fatalf("expected machine-usable retry-after, got %d", resp.Data.RetryAfterSeconds)
	}
}

func TestContributionLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "hans", "correct-horse", model.RoleMember)
	s.createUser(t, "admin", "admin-secret", model.RoleAdmin)
	memberToken := s.login(t, "hans", "correct-horse")
	adminToken := s.login(t, "admin", "admin-secret")

	// member records a contribution
	w := s.request(t, http.MethodPost, "/api/v1/contributions", memberToken, sampleContribution())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		Data handler.ContributionResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Data.FirstName != "Hans" {
		t.Fatalf("expected decrypted response, got %q", created.Data.FirstName)
	}
	if created.Data.PaymentStatus != "unpaid" {
		t.Fatalf("expected unpaid, got %s", created.Data.PaymentStatus)
	}

	// stored row is ciphertext
	var stored model.Contribution
	if err := s.db.First(&stored, "id = ?", created.Data.ID).Error; err != nil {
		t.Fatalf("fetch stored: %v", err)
	}
	if stored.FirstName == "Hans" {
		t.Fatal("PII stored in plaintext")
	}

	// member toggling is forbidden, admin toggles pending -> paid -> unpaid
	path := fmt.Sprintf("/api/v1/contributions/%s/toggle", created.Data.ID)
	if w := s.request(t, http.MethodPatch, path, memberToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("member toggle: expected 403, got %d", w.Code)
	}
	if w := s.request(t, http.MethodPatch, path, adminToken, nil); w.Code != http.StatusOK {
		t.Fatalf("admin toggle: status %d body %s", w.Code, w.Body.String())
	}

	// member list is scoped, admin list sees everything
	s.createUser(t, "vreni", "another-pass", model.RoleMember)
	otherToken := s.login(t, "vreni", "another-pass")
	if w := s.request(t, http.MethodPost, "/api/v1/contributions", otherToken, sampleContribution()); w.Code != http.StatusCreated {
		t.Fatalf("second create: status %d", w.Code)
	}

	var list struct {
		Data []handler.ContributionResponse `json:"data"`
	}
	w = s.request(t, http.MethodGet, "/api/v1/contributions", memberToken, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Data) != 1 {
		t.Fatalf("member must only see own contributions, got %d", len(list.Data))
	}
	w = s.request(t, http.MethodGet, "/api/v1/contributions", adminToken, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Data) != 2 {
		t.Fatalf("admin must see all contributions, got %d", len(list.Data))
	}
}

func TestSettlementOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "hans", "correct-horse", model.RoleMember)
	token := s.login(t, "hans", "correct-horse")

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		w := s.request(t, http.MethodPost, "/api/v1/contributions", token, sampleContribution())
		var created struct {
			Data handler.ContributionResponse `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		ids = append(ids, created.Data.ID)
	}

	w := s.request(t, http.MethodPost, "/api/v1/settlements", token, gin.H{
		"ids":            ids,
		"payment_method": "cash",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("settlement: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data handler.SettlementResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Code) != 10 {
		t.Fatalf("expected 10-character code, got %q", resp.Data.Code)
	}
	if len(resp.Data.Contributions) != 3 {
		t.Fatalf("expected 3 contributions, got %d", len(resp.Data.Contributions))
	}
	for _, record := range resp.Data.Contributions {
		if record.PaymentStatus != "cash_pending" {
			t.Fatalf("expected cash_pending, got %s", record.PaymentStatus)
		}
		if record.SettlementCode == nil || *record.SettlementCode != resp.Data.Code {
			t.Fatal("contributions must carry the shared code")
		}
	}
}

func TestEndpointsRequireToken(t *testing.T) {
	s := newTestServer(t)
	if w := s.request(t, http.MethodGet, "/api/v1/contributions", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := s.request(t, http.MethodGet, "/api/v1/contributions", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}
}

func TestPortalConfigEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "hans", "correct-horse", model.RoleMember)
	token := s.login(t, "hans", "correct-horse")

	w := s.request(t, http.MethodGet, "/api/v1/portal-config", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("portal-config: status %d", w.Code)
	}
	var resp struct {
		Data handler.PortalConfigResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Fields["email"] != "required" {
		t.Fatalf("expected email required, got %q", resp.Data.Fields["email"])
	}
	if len(resp.Data.AmountPresets) != 3 {
		t.Fatalf("expected 3 presets, got %v", resp.Data.AmountPresets)
	}
}
