package middleware

import (
	"log"

	"github.com/gin-gonic/gin"

	"andesgo/intake/internal/captcha"
	"andesgo/intake/internal/config"
)

// ContextKeyIsHumanVerified holds the captcha status in the Gin context.
const ContextKeyIsHumanVerified = "isHumanVerified"

// CaptchaMiddleware accepts either a previously issued human token (X-C-T) or
// a fresh Turnstile challenge (X-C-V). A verified challenge is answered with a
// new X-C-T header so the form can skip the widget on its next submission.
func CaptchaMiddleware(cfg *config.Config, verifier captcha.ITurnstileVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := captcha.Client{
			IP:          c.ClientIP(),
			Fingerprint: c.GetHeader("X-BFP"),
			SPASession:  c.GetHeader("X-SPA"),
		}
		humanToken := c.GetHeader("X-C-T")
		challenge := c.GetHeader("X-C-V")

		isHuman := humanToken != "" && verifier.ValidateHumanToken(humanToken, client)

		if !isHuman && challenge != "" {
			verified, err := verifier.Verify(c.Request.Context(), challenge, client.IP)
			switch {
			case err != nil:
				log.Printf("Turnstile verification error for %s: %v", client, err)
			case verified:
				isHuman = true
				token, err := verifier.GenerateHumanToken(client, cfg.CaptchaTokenTTL)
				if err != nil {
					log.Printf("Error generating X-C-T token for %s: %v", client, err)
				} else {
					c.Header("X-C-T", token)
				}
			}
		}

		c.Set(ContextKeyIsHumanVerified, isHuman)
		c.Next()
	}
}
