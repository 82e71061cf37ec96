package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"andesgo/intake/internal/captcha"
	"andesgo/intake/internal/config"
)

func setupCaptchaTestEngine(cfg *config.Config, verifier captcha.ITurnstileVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CaptchaMiddleware(cfg, verifier))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"is_human": c.GetBool(ContextKeyIsHumanVerified), "xct": c.Writer.Header().Get("X-C-T")})
	})
	return r
}

func captchaRequest(t *testing.T, router *gin.Engine, ip string, headers map[string]string) map[string]interface{} {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ip + ":12345"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCaptchaMiddleware_NoHeaders(t *testing.T) {
	mockVerifier := new(MockTurnstileVerifier)
	router := setupCaptchaTestEngine(&config.Config{}, mockVerifier)

	body := captchaRequest(t, router, "10.0.0.1", nil)

	assert.False(t, body["is_human"].(bool))
	assert.Empty(t, body["xct"])
	mockVerifier.AssertNotCalled(t, "Verify")
	mockVerifier.AssertNotCalled(t, "ValidateHumanToken")
}

func TestCaptchaMiddleware_ValidChallengeIssuesToken(t *testing.T) {
	cfg := &config.Config{CaptchaTokenTTL: 10 * time.Minute}
	mockVerifier := new(MockTurnstileVerifier)
	router := setupCaptchaTestEngine(cfg, mockVerifier)
	client := captcha.Client{IP: "1.1.1.1", Fingerprint: "fp1", SPASession: "sess1"}

	mockVerifier.On("Verify", mock.Anything, "challenge", client.IP).Return(true, nil)
	mockVerifier.On("GenerateHumanToken", client, cfg.CaptchaTokenTTL).Return("issued-xct", nil)

	body := captchaRequest(t, router, client.IP, map[string]string{"X-C-V": "challenge", "X-BFP": "fp1", "X-SPA": "sess1"})

	assert.True(t, body["is_human"].(bool))
	assert.Equal(t, "issued-xct", body["xct"])
	mockVerifier.AssertExpectations(t)
}

func TestCaptchaMiddleware_FailedChallenge(t *testing.T) {
	mockVerifier := new(MockTurnstileVerifier)
	router := setupCaptchaTestEngine(&config.Config{}, mockVerifier)

	mockVerifier.On("Verify", mock.Anything, "bad", "2.2.2.2").Return(false, nil).Once()
	mockVerifier.On("Verify", mock.Anything, "boom", "2.2.2.2").Return(false, errors.New("cloudflare down")).Once()

	body := captchaRequest(t, router, "2.2.2.2", map[string]string{"X-C-V": "bad"})
	assert.False(t, body["is_human"].(bool))
	body = captchaRequest(t, router, "2.2.2.2", map[string]string{"X-C-V": "boom"})
	assert.False(t, body["is_human"].(bool))

	mockVerifier.AssertNotCalled(t, "GenerateHumanToken", mock.Anything, mock.Anything)
}

func TestCaptchaMiddleware_ValidHumanToken(t *testing.T) {
	mockVerifier := new(MockTurnstileVerifier)
	router := setupCaptchaTestEngine(&config.Config{}, mockVerifier)
	client := captcha.Client{IP: "3.3.3.3", Fingerprint: "fp2", SPASession: "sess2"}

	mockVerifier.On("ValidateHumanToken", "xct", client).Return(true)

	body := captchaRequest(t, router, client.IP, map[string]string{"X-C-T": "xct", "X-C-V": "ignored", "X-BFP": "fp2", "X-SPA": "sess2"})

	assert.True(t, body["is_human"].(bool))
	assert.Empty(t, body["xct"])
	mockVerifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestCaptchaMiddleware_StaleHumanTokenFallsBackToChallenge(t *testing.T) {
	cfg := &config.Config{CaptchaTokenTTL: time.Minute}
	mockVerifier := new(MockTurnstileVerifier)
	router := setupCaptchaTestEngine(cfg, mockVerifier)
	client := captcha.Client{IP: "4.4.4.4"}

	mockVerifier.On("ValidateHumanToken", "stale", client).Return(false)
	mockVerifier.On("Verify", mock.Anything, "fresh", client.IP).Return(true, nil)
	mockVerifier.On("GenerateHumanToken", client, time.Minute).Return("", errors.New("signing failed"))

	body := captchaRequest(t, router, client.IP, map[string]string{"X-C-T": "stale", "X-C-V": "fresh"})

	assert.True(t, body["is_human"].(bool))
	assert.Empty(t, body["xct"])
	mockVerifier.AssertExpectations(t)
}
