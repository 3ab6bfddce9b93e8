package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pgss/backend/config"
	"pgss/backend/internal/access"
	apperrors "pgss/backend/pkg/errors"
	"pgss/backend/pkg/jwt"
	"pgss/backend/pkg/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── 测试辅助 ──

type fakeResolver struct {
	caller     *access.Caller
	resolveErr error
	revoked    bool
	revokeErr  error
}

func (f *fakeResolver) ResolveCaller(_ context.Context, userID string) (*access.Caller, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if f.caller != nil {
		return f.caller, nil
	}
	return &access.Caller{UserID: userID, Role: "student", StudentID: "stu-1"}, nil
}

func (f *fakeResolver) IsTokenRevoked(_ context.Context, _ string) (bool, error) {
	return f.revoked, f.revokeErr
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "middleware-test-secret-2026",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

// newAuthEngine 挂载 JWTAuth，命中路由时回写上下文中的 Caller
func newAuthEngine(mgr *jwt.Manager, resolver CallerResolver, got **access.Caller) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuth(mgr, resolver, zap.NewNop()))
	r.GET("/me", func(c *gin.Context) {
		if v, ok := c.Get("caller"); ok {
			*got = v.(*access.Caller)
		}
		if c.GetString("token_jti") == "" {
			c.Status(http.StatusTeapot)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// ── JWTAuth ──

func TestJWTAuth_Success(t *testing.T) {
	mgr := newTestJWT()
	var got *access.Caller
	r := newAuthEngine(mgr, &fakeResolver{}, &got)

	token, _ := mgr.GenerateAccessToken("user-1", "student")
	w := doRequest(r, bearer(token))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if got == nil || got.UserID != "user-1" || got.StudentID != "stu-1" {
		t.Errorf("Caller 注入错误: %+v", got)
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	mgr := newTestJWT()
	accessToken, _ := mgr.GenerateAccessToken("user-1", "student")
	refresh, _ := mgr.GenerateRefreshToken("user-1", "student")

	tests := []struct {
		name     string
		header   string
		resolver *fakeResolver
		want     int
	}{
		{"缺少认证头", "", &fakeResolver{}, http.StatusUnauthorized},
		{"格式错误", "Token " + accessToken, &fakeResolver{}, http.StatusUnauthorized},
		{"无效 Token", "Bearer garbage", &fakeResolver{}, http.StatusUnauthorized},
		{"Refresh Token 不可用于接口", "Bearer " + refresh, &fakeResolver{}, http.StatusUnauthorized},
		{"已吊销", "Bearer " + accessToken, &fakeResolver{revoked: true}, http.StatusUnauthorized},
		{"账号已停用", "Bearer " + accessToken, &fakeResolver{
			resolveErr: apperrors.New(apperrors.KindUnauthenticated, 11002, "账号已停用"),
		}, http.StatusUnauthorized},
		{"解析异常", "Bearer " + accessToken, &fakeResolver{resolveErr: errors.New("db down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *access.Caller
			r := newAuthEngine(mgr, tt.resolver, &got)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := doRequest(r, req)

			if w.Code != tt.want {
				t.Errorf("期望 %d，实际=%d", tt.want, w.Code)
			}
			if got != nil {
				t.Error("被拒绝的请求不应到达处理器")
			}
		})
	}
}

func TestJWTAuth_RevokeCheckFailureDegrades(t *testing.T) {
	mgr := newTestJWT()
	var got *access.Caller
	r := newAuthEngine(mgr, &fakeResolver{revokeErr: errors.New("redis down")}, &got)

	token, _ := mgr.GenerateAccessToken("user-1", "student")
	if w := doRequest(r, bearer(token)); w.Code != http.StatusOK {
		t.Errorf("黑名单查询失败应降级放行，实际=%d", w.Code)
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"student", http.StatusForbidden},
		{"supervisor", http.StatusOK},
		{"administrator", http.StatusOK},
	}

	for _, tt := range tests {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) {
			if tt.role != "" {
				c.Set("role", tt.role)
			}
		}, RoleAuth("supervisor", "administrator"), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := doRequest(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != tt.want {
			t.Errorf("role=%q: 期望 %d，实际=%d", tt.role, tt.want, w.Code)
		}
	}
}

// ── Timeout ──

func TestTimeout_SetsDeadline(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(2 * time.Second))
	r.GET("/x", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		if !ok || time.Until(deadline) > 2*time.Second {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	if w := doRequest(r, httptest.NewRequest(http.MethodGet, "/x", nil)); w.Code != http.StatusOK {
		t.Errorf("请求上下文应带截止时间，实际=%d", w.Code)
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	newEngine := func(skipMultipart bool) *gin.Engine {
		r := gin.New()
		r.Use(BodyLimit(8, skipMultipart))
		r.POST("/x", func(c *gin.Context) {
			if _, err := io.ReadAll(c.Request.Body); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					c.Status(http.StatusRequestEntityTooLarge)
					return
				}
			}
			c.Status(http.StatusOK)
		})
		return r
	}

	w := doRequest(newEngine(true), httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("short")))
	if w.Code != http.StatusOK {
		t.Errorf("未超限应放行，实际=%d", w.Code)
	}

	w = doRequest(newEngine(true), httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("this body is too long")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("超限应返回 413，实际=%d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("this body is too long"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	if w := doRequest(newEngine(true), req); w.Code != http.StatusOK {
		t.Errorf("multipart 请求应跳过全局限制，实际=%d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("this body is too long"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	if w := doRequest(newEngine(false), req); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("上传路由限制应作用于 multipart，实际=%d", w.Code)
	}
}

// ── RateLimit ──

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	client := redis.NewFromClient(rdb, zap.NewNop())

	r := gin.New()
	r.POST("/login", RateLimit(client, 2, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		if w := doRequest(r, httptest.NewRequest(http.MethodPost, "/login", nil)); w.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求应放行，实际=%d", i+1, w.Code)
		}
	}

	w := doRequest(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("超限应返回 429，实际=%d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After 应为 60，实际=%q", w.Header().Get("Retry-After"))
	}
}

func TestRateLimit_NilClient(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(nil, 1, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		if w := doRequest(r, httptest.NewRequest(http.MethodPost, "/login", nil)); w.Code != http.StatusOK {
			t.Fatalf("无 Redis 时应放行，实际=%d", w.Code)
		}
	}
}

// ── RequestID / SecurityHeaders ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := doRequest(r, req)
	if w.Header().Get(requestIDHeader) != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("应沿用客户端 Request-ID，实际 header=%q body=%q", w.Header().Get(requestIDHeader), w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("a", requestIDMaxLen+1))
	w = doRequest(r, req)
	if got := w.Header().Get(requestIDHeader); len(got) != 36 {
		t.Errorf("过长的 Request-ID 应重新生成 UUID，实际=%q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get("X-Frame-Options") != "DENY" || w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("安全头缺失: %v", w.Header())
	}
}

func TestSecurityHeaders_HSTSBehindProxy(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, httptest.NewRequest(http.MethodGet, "/x", nil)); w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HTTP 明文访问不应下发 HSTS")
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	if w := doRequest(r, req); w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("经 HTTPS 代理访问应下发 HSTS")
	}
}

// ── CORS ──

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://portal.example.com/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		return doRequest(r, req)
	}

	w := preflight("https://portal.example.com")
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://portal.example.com" {
		t.Errorf("授权来源预检应返回 204: code=%d headers=%v", w.Code, w.Header())
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Error("预检应声明 PATCH")
	}

	if w := preflight("https://evil.example.com"); w.Code != http.StatusForbidden {
		t.Errorf("未授权来源预检应返回 403，实际=%d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w = doRequest(r, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
		t.Errorf("简单请求应放行并暴露下载文件名头: code=%d headers=%v", w.Code, w.Header())
	}
}

func TestCORS_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	if w := doRequest(r, req); w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("通配配置应回显来源，实际=%q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

// ── Logger ──

func TestLogger_LevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/students/:id", func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Set("role", "student")
		c.Status(http.StatusNotFound)
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("db down"))
		c.Status(http.StatusInternalServerError)
	})

	doRequest(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	doRequest(r, httptest.NewRequest(http.MethodGet, "/students/abc", nil))
	doRequest(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("期望 3 条访问日志，实际=%d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("探活成功应记 Debug，实际=%v", entries[0].Level)
	}

	warn := entries[1].ContextMap()
	if entries[1].Level != zapcore.WarnLevel || warn["route"] != "/students/:id" || warn["user_id"] != "user-1" {
		t.Errorf("4xx 日志字段不符: level=%v fields=%v", entries[1].Level, warn)
	}
	if rid, _ := warn["request_id"].(string); rid == "" {
		t.Error("日志应带 request_id")
	}

	if entries[2].Level != zapcore.ErrorLevel {
		t.Errorf("5xx 应记 Error，实际=%v", entries[2].Level)
	}
	if _, ok := entries[2].ContextMap()["errors"]; !ok {
		t.Error("应输出挂载的内部错误")
	}
}
