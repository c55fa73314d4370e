package config

import (
	"encoding/json"
	"os"

	"github.com/bbelderbos/codeimages/internal/flagx"
	"github.com/bbelderbos/codeimages/internal/timex"
)

// JsonConfig is the on-disk JSON shape. Durations accept "30s" style strings
// or integer nanoseconds. Pointer fields distinguish "absent" from zero.
type JsonConfig struct {
	Debug *bool `json:"debug"`

	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	BaseURL          string `json:"base_url"`
	DatabaseDSN      string `json:"database_dsn"`

	SecretKey                     string          `json:"secret_key"`
	Algorithm                     string          `json:"algorithm"`
	AccessTokenValidityDuration   *timex.Duration `json:"access_token_validity_duration"`
	ActivationKeyValidityDuration *timex.Duration `json:"activation_key_validity_duration"`

	FreeDailyLimit  *int `json:"free_daily_limit"`
	PremiumDayLimit *int `json:"premium_day_limit"`

	FromEmail    string          `json:"from_email"`
	AdminEmail   string          `json:"admin_email"`
	SMTPHost     string          `json:"smtp_host"`
	SMTPPort     int             `json:"smtp_port"`
	SMTPUsername string          `json:"smtp_username"`
	SMTPPassword string          `json:"smtp_password"`
	SMTPTLSMode  string          `json:"smtp_tls_mode"`
	MailTimeout  *timex.Duration `json:"mail_timeout"`

	S3AccessKeyID     string          `json:"s3_access_key_id"`
	S3SecretAccessKey string          `json:"s3_secret_access_key"`
	S3Bucket          string          `json:"s3_bucket"`
	S3Region          string          `json:"s3_region"`
	S3BaseEndpoint    string          `json:"s3_base_endpoint"`
	UploadTimeout     *timex.Duration `json:"upload_timeout"`

	RendererPath  string          `json:"renderer_path"`
	TempRoot      string          `json:"temp_root"`
	RenderTimeout *timex.Duration `json:"render_timeout"`
}

// parseJson overlays values from the JSON file named by -c/-config in args.
// Fields absent from the file keep their current value. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.JSONConfigPath(args)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Debug != nil {
		config.Debug = *c.Debug
	}
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Algorithm, c.Algorithm)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.ActivationKeyValidityDuration != nil {
		config.ActivationKeyValidityDuration = c.ActivationKeyValidityDuration.Duration
	}
	if c.FreeDailyLimit != nil {
		config.FreeDailyLimit = *c.FreeDailyLimit
	}
	if c.PremiumDayLimit != nil {
		config.PremiumDayLimit = *c.PremiumDayLimit
	}
	setString(&config.FromEmail, c.FromEmail)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPTLSMode, c.SMTPTLSMode)
	if c.MailTimeout != nil {
		config.MailTimeout = c.MailTimeout.Duration
	}
	setString(&config.S3AccessKeyID, c.S3AccessKeyID)
	setString(&config.S3SecretAccessKey, c.S3SecretAccessKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.UploadTimeout != nil {
		config.UploadTimeout = c.UploadTimeout.Duration
	}
	setString(&config.RendererPath, c.RendererPath)
	setString(&config.TempRoot, c.TempRoot)
	if c.RenderTimeout != nil {
		config.RenderTimeout = c.RenderTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
