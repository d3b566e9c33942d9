package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"ENVIRONMENT", "SERVER_HOST", "PORT", "SERVER_PORT",
	"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
	"AUTH_ENDPOINT_TIMEOUT", "AUTH_MAX_PAYLOAD_BYTES", "AUTH_TRUST_FORWARDED_PROTO", "AUTH_REQUIRED", "AUTH_ALLOWED_HOSTS",
	"CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED",
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.False(t, cfg.IsProduction())
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 10*time.Second, cfg.Auth.EndpointTimeout)
				assert.Equal(t, int64(1<<20), cfg.Auth.MaxPayloadBytes)
				assert.True(t, cfg.Auth.TrustForwardedProto)
				assert.True(t, cfg.Auth.Required)
				assert.Empty(t, cfg.CORS.AllowedOrigins)
				assert.Empty(t, cfg.Auth.AllowedHosts)
				assert.Equal(t, "info", cfg.Observability.LogLevel)
				assert.Equal(t, "json", cfg.Observability.LogFormat)
				assert.True(t, cfg.Observability.MetricsEnabled)
			},
		},
		{
			name: "auth overrides",
			envVars: map[string]string{
				"AUTH_ENDPOINT_TIMEOUT":      "2s",
				"AUTH_MAX_PAYLOAD_BYTES":     "4096",
				"AUTH_TRUST_FORWARDED_PROTO": "false",
				"AUTH_REQUIRED":              "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2*time.Second, cfg.Auth.EndpointTimeout)
				assert.Equal(t, int64(4096), cfg.Auth.MaxPayloadBytes)
				assert.False(t, cfg.Auth.TrustForwardedProto)
				assert.False(t, cfg.Auth.Required)
			},
		},
		{
			name: "invalid values fall back to defaults",
			envVars: map[string]string{
				"AUTH_ENDPOINT_TIMEOUT": "soon",
				"AUTH_REQUIRED":         "maybe",
				"SERVER_PORT":           "http",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10*time.Second, cfg.Auth.EndpointTimeout)
				assert.True(t, cfg.Auth.Required)
				assert.Equal(t, 8080, cfg.Server.Port)
			},
		},
		{
			name: "PORT takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
				assert.Equal(t, "0.0.0.0:9443", cfg.Server.Address())
			},
		},
		{
			name: "CORS origins are split and trimmed",
			envVars: map[string]string{
				"CORS_ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com ,",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
			},
		},
		{
			name: "allowed hosts are split and trimmed",
			envVars: map[string]string{
				"AUTH_ALLOWED_HOSTS": "myapp.azurewebsites.net, www.example.com",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"myapp.azurewebsites.net", "www.example.com"}, cfg.Auth.AllowedHosts)
			},
		},
		{
			name: "wildcard CORS origin is rejected",
			envVars: map[string]string{
				"CORS_ALLOWED_ORIGINS": "https://*",
			},
			wantErr: true,
		},
		{
			name: "custom server timeouts",
			envVars: map[string]string{
				"SERVER_READ_TIMEOUT":     "60s",
				"SERVER_WRITE_TIMEOUT":    "90s",
				"SERVER_SHUTDOWN_TIMEOUT": "5s",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
			},
		},
		{
			name: "production with anonymous access",
			envVars: map[string]string{
				"ENVIRONMENT":   "production",
				"AUTH_REQUIRED": "false",
			},
			wantErr: true,
		},
		{
			name: "unknown log format",
			envVars: map[string]string{
				"LOG_FORMAT": "xml",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range configKeys {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Server:      ServerConfig{Host: "0.0.0.0", Port: 8080},
		Auth: AuthConfig{
			EndpointTimeout: 10 * time.Second,
			MaxPayloadBytes: 1 << 20,
			Required:        true,
		},
		Observability: ObservabilityConfig{LogLevel: "info", LogFormat: "json"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
			errMsg:  "out of range",
		},
		{
			name:    "zero endpoint timeout",
			mutate:  func(c *Config) { c.Auth.EndpointTimeout = 0 },
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name:    "zero payload limit",
			mutate:  func(c *Config) { c.Auth.MaxPayloadBytes = 0 },
			wantErr: true,
			errMsg:  "payload bytes must be positive",
		},
		{
			name: "production requires auth",
			mutate: func(c *Config) {
				c.Environment = "prod"
				c.Auth.Required = false
			},
			wantErr: true,
			errMsg:  "AUTH_REQUIRED",
		},
		{
			name:    "wildcard origin with credentials",
			mutate:  func(c *Config) { c.CORS.AllowedOrigins = []string{"https://app.example.com", "*"} },
			wantErr: true,
			errMsg:  "wildcards are not allowed",
		},
		{
			name:    "explicit origins",
			mutate:  func(c *Config) { c.CORS.AllowedOrigins = []string{"https://app.example.com"} },
			wantErr: false,
		},
		{
			name:    "allowed host with a scheme",
			mutate:  func(c *Config) { c.Auth.AllowedHosts = []string{"https://myapp.azurewebsites.net"} },
			wantErr: true,
			errMsg:  "plain host name",
		},
		{
			name:    "missing log level",
			mutate:  func(c *Config) { c.Observability.LogLevel = "" },
			wantErr: true,
			errMsg:  "log level is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}
