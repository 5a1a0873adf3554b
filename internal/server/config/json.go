package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/flagx"
	"github.com/dmitrijs2005/leasekeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// both strings such as "168h" and integer nanoseconds. Absent keys keep
// the values already in Config.
type JsonConfig struct {
	HTTPAddr           *string         `json:"http_addr"`
	DatabaseDSN        *string         `json:"database_dsn"`
	SecretKey          *string         `json:"secret_key"`
	PublicBaseURL      *string         `json:"public_base_url"`
	TemplatePath       *string         `json:"template_path"`
	InvitationValidity *timex.Duration `json:"invitation_validity"`
	PDFServiceURL      *string         `json:"pdf_service_url"`
	PDFTimeout         *timex.Duration `json:"pdf_timeout"`
	EmailAPIURL        *string         `json:"email_api_url"`
	EmailAPIKey        *string         `json:"email_api_key"`
	EmailFrom          *string         `json:"email_from"`
	S3RootUser         *string         `json:"s3_root_user"`
	S3RootPassword     *string         `json:"s3_root_password"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Region           *string         `json:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint"`
	LogLevel           *string         `json:"log_level"`
}

// parseJson loads the file named by -c or -config, if any, into config.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])

	// nothing to load
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

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.TemplatePath, c.TemplatePath)
	setDuration(&config.InvitationValidity, c.InvitationValidity)
	setString(&config.PDFServiceURL, c.PDFServiceURL)
	setDuration(&config.PDFTimeout, c.PDFTimeout)
	setString(&config.EmailAPIURL, c.EmailAPIURL)
	setString(&config.EmailAPIKey, c.EmailAPIKey)
	setString(&config.EmailFrom, c.EmailFrom)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
