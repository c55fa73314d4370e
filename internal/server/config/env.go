package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load %s: %w", path, err))
	}
}

// parseEnv overlays environment variables onto config. Variable names follow
// the deployment's .env file.
func parseEnv(config *Config) {
	envBool("DEBUG", &config.Debug)
	envString("HTTP_ADDR", &config.EndpointAddrHTTP)
	envString("GRPC_ADDR", &config.EndpointAddrGRPC)
	envString("BASE_URL", &config.BaseURL)
	envString("DATABASE_URL", &config.DatabaseDSN)

	envString("SECRET_KEY", &config.SecretKey)
	envString("ALGORITHM", &config.Algorithm)
	envMinutes("ACCESS_TOKEN_EXPIRE_MINUTES", &config.AccessTokenValidityDuration)

	envInt("FREE_DAILY_TIPS", &config.FreeDailyLimit)
	envInt("PREMIUM_DAY_LIMIT", &config.PremiumDayLimit)

	envString("FROM_EMAIL", &config.FromEmail)
	envString("ADMIN_EMAIL", &config.AdminEmail)
	envString("SMTP_HOST", &config.SMTPHost)
	envInt("SMTP_PORT", &config.SMTPPort)
	envString("SMTP_USERNAME", &config.SMTPUsername)
	envString("SMTP_PASSWORD", &config.SMTPPassword)
	envString("SMTP_TLS_MODE", &config.SMTPTLSMode)

	envString("AWS_ACCESS_KEY_ID", &config.S3AccessKeyID)
	envString("AWS_SECRET_ACCESS_KEY", &config.S3SecretAccessKey)
	envString("AWS_S3_BUCKET", &config.S3Bucket)
	envString("AWS_REGION", &config.S3Region)
	envString("S3_ENDPOINT", &config.S3BaseEndpoint)

	envString("RENDERER_PATH", &config.RendererPath)
	envString("TEMP_ROOT", &config.TempRoot)
	envDuration("RENDER_TIMEOUT", &config.RenderTimeout)
	envDuration("UPLOAD_TIMEOUT", &config.UploadTimeout)
	envDuration("MAIL_TIMEOUT", &config.MailTimeout)

	envFloat("LOGIN_RPS", &config.LoginRPS)
	envInt("LOGIN_BURST", &config.LoginBurst)
	envList("TRUSTED_PROXIES", &config.TrustedProxies)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

// envList splits a comma-separated value, dropping blank items.
func envList(key string, dst *[]string) {
	if v, ok := os.LookupEnv(key); ok {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", key, err))
		}
		*dst = b
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", key, err))
		}
		*dst = n
	}
}

func envFloat(key string, dst *float64) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(fmt.Errorf("%s: %w", key, err))
		}
		*dst = f
	}
}

func envMinutes(key string, dst *time.Duration) {
	var n int
	if v, ok := os.LookupEnv(key); ok && v != "" {
		envInt(key, &n)
		*dst = time.Duration(n) * time.Minute
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", key, err))
		}
		*dst = d
	}
}
