package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"healthloop/internal/config"
	"healthloop/internal/http/handlers"
	"healthloop/internal/loyalty"
	"healthloop/internal/repository/memory"
	"healthloop/internal/service"
	"healthloop/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg, err := config.FromEnv(func(k string) string {
		switch k {
		case "STORE_DRIVER":
			return config.StoreMemory
		case "JWT_SECRET":
			return "test-secret"
		}
		return ""
	})
	require.NoError(t, err)

	store := memory.New()
	rules := loyalty.DefaultRules()
	hub := ws.NewHub()
	tokens := service.NewTokenService(cfg.JWTSecret, time.Hour)
	audit := service.NewAuditService(store)
	points := service.NewPointsService(store, rules, hub)
	badges := service.NewBadgeService(store)
	membership := service.NewMembershipService(store, rules, points, hub)
	auth := service.NewAuthService(store, points, tokens, audit, bcrypt.MinCost)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Config: cfg,
		Handler: &handlers.Handler{
			Auth:       auth,
			Points:     points,
			Badges:     badges,
			Membership: membership,
			Dashboard:  service.NewDashboardService(auth, points, badges, membership),
			Audit:      audit,
			Stats:      service.NewStatsService(store),
		},
		Health: handlers.NewHealthHandler(store, nil, "test"),
		Tokens: tokens,
		Hub:    hub,
	})
	return r
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func register(t *testing.T, r http.Handler, email, role string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": email, "name": "Test", "password": "demo123", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["token"].(string)
}

func TestRegisterLoginAndMe(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "ana@example.com", "client")

	w := do(r, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	user := me["user"].(map[string]any)
	assert.Equal(t, float64(100), user["points"])
	assert.Equal(t, "Beginner", user["level"])
	assert.NotContains(t, user, "password_hash")
	progress := me["progress"].(map[string]any)
	assert.Equal(t, float64(100), progress["total_points"])
	assert.Equal(t, float64(500), progress["next_level_points"])

	w = do(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ANA@example.com", "password": "demo123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["token"])

	w = do(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ana@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/me/activity", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["activity"])
}

func TestRegister_Rejected(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "ana@example.com", "")

	w := do(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "ana@example.com", "name": "Again", "password": "demo123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "not-an-email", "name": "X", "password": "demo123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "b@example.com", "name": "X", "password": "demo123", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddPoints_LevelUpAndBadge(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "ana@example.com", "client")

	w := do(r, http.MethodPost, "/api/v1/points/add", token, gin.H{"action": "purchase", "amount_spent": 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, float64(500), res["points_awarded"])
	assert.Equal(t, float64(600), res["points"])
	assert.Equal(t, float64(600), res["total_points_earned"])
	assert.Equal(t, "Active", res["level"])

	w = do(r, http.MethodGet, "/api/v1/badges", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	badges := decode(t, w)["badges"].([]any)
	require.Len(t, badges, 1)
	assert.Equal(t, "level_active", badges[0].(map[string]any)["badge_type"])

	w = do(r, http.MethodGet, "/api/v1/points/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode(t, w)
	txs := hist["transactions"].([]any)
	require.Len(t, txs, 2)
	assert.Equal(t, "purchase", txs[0].(map[string]any)["action"])
	assert.Equal(t, "registration", txs[1].(map[string]any)["action"])
	assert.Equal(t, float64(600), hist["total_points"])
	assert.Equal(t, "Active", hist["current_level"])
	assert.Equal(t, float64(1500), hist["next_level_points"])
	assert.InDelta(t, 10.0, hist["progress_percentage"], 0.001)

	w = do(r, http.MethodGet, "/api/v1/points/history?limit=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["transactions"], 1)
}

func TestAddPoints_Rejected(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "ana@example.com", "client")

	for _, body := range []gin.H{
		{"action": "hack"},
		{"action": "membership_upgrade"},
		{"action": "monthly_membership_points"},
		{"action": "purchase", "amount_spent": -5},
		{"action": "purchase", "amount_spent": 1e18},
		{},
	} {
		w := do(r, http.MethodPost, "/api/v1/points/add", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}

	w := do(r, http.MethodPost, "/api/v1/points/add", "", gin.H{"action": "purchase"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for _, q := range []string{"0", "501", "abc"} {
		w := do(r, http.MethodGet, "/api/v1/points/history?limit="+q, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit %s", q)
	}
}

func TestMembershipUpgrade(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "ana@example.com", "client")

	w := do(r, http.MethodGet, "/api/v1/membership/plans", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	plans := decode(t, w)
	assert.Len(t, plans["plans"], 3)
	assert.NotEmpty(t, plans["promotions"])

	w = do(r, http.MethodPost, "/api/v1/membership/upgrade", token, gin.H{"new_level": "premium"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, "premium", res["membership_level"])
	assert.Equal(t, float64(500), res["bonus_points"])
	assert.Equal(t, float64(2), res["benefits"].(map[string]any)["consultations_per_month"])

	cases := map[string]int{
		"premium":  http.StatusConflict,
		"basic":    http.StatusConflict,
		"platinum": http.StatusBadRequest,
	}
	for level, want := range cases {
		w := do(r, http.MethodPost, "/api/v1/membership/upgrade", token, gin.H{"new_level": level})
		assert.Equal(t, want, w.Code, "level %s", level)
	}
}

func TestClientDashboard(t *testing.T) {
	r := newTestRouter(t)
	client := register(t, r, "ana@example.com", "client")
	pro := register(t, r, "doc@example.com", "professional")

	w := do(r, http.MethodGet, "/api/v1/dashboard/client", pro, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/api/v1/dashboard/client", client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode(t, w)
	assert.Len(t, d["recent_transactions"], 1)
	assert.Equal(t, "basic", d["membership_plan"].(map[string]any)["name"])

	w = do(r, http.MethodGet, "/api/v1/dashboard/professional", client, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/api/v1/dashboard/professional", pro, nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode(t, w)
	assert.Equal(t, float64(1), p["stats"].(map[string]any)["total_members"])
	top := p["top_earners"].([]any)
	require.Len(t, top, 1)
	assert.NotContains(t, top[0].(map[string]any), "email")
}

func TestPublicAndLegacyRoutes(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "ana@example.com", "client")

	for _, path := range []string{"/health", "/healthz", "/readyz", "/api/health", "/api/v1/points/levels", "/metrics"} {
		w := do(r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := do(r, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestEventStream(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	token := register(t, r, "ana@example.com", "client")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readEvent := func() map[string]any {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev map[string]any
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	}
	assert.Equal(t, "ready", readEvent()["type"])

	w := do(r, http.MethodPost, "/api/v1/points/add", token, gin.H{"action": "video_completion"})
	require.Equal(t, http.StatusOK, w.Code)

	ev := readEvent()
	assert.Equal(t, service.EventPointsAwarded, ev["type"])
	assert.Equal(t, float64(50), ev["payload"].(map[string]any)["points"])

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token=bogus", nil)
	assert.Error(t, err)
}
