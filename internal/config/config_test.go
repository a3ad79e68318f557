package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shic-it/feishu-approval-mailer/internal/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
server:
  port: 9090
feishu:
  app_id: cli_test
  app_secret: s3cret
  verification_token: vtoken
smtp:
  host: smtp.example.com
  port: 587
  user: mailer@example.com
  password: smtp-pass
  from_email: mailer@example.com
categories:
  费用报销: finance@example.com
  付款test: ""
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/webhook/approval", cfg.Server.WebhookPath)
	assert.Equal(t, "cli_test", cfg.Feishu.AppID)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "finance@example.com", cfg.Categories["费用报销"])
	assert.Equal(t, "", cfg.Categories["付款test"])
}

func TestLoadDecryptsEncryptedValues(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "config-test-key")

	encrypted := secret.Encrypt("real-smtp-pass")
	cfg, err := Load(writeConfig(t, `
feishu:
  app_id: cli_test
  app_secret: plain-secret
  verification_token: vtoken
smtp:
  host: smtp.example.com
  user: u
  password: "`+encrypted+`"
  from_email: u@example.com
`))
	require.NoError(t, err)

	assert.Equal(t, "real-smtp-pass", cfg.SMTP.Password)
	assert.Equal(t, "plain-secret", cfg.Feishu.AppSecret)
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing app id",
			content: `
feishu:
  app_secret: s
  verification_token: v
smtp:
  host: h
  user: u
  from_email: f@example.com
`,
			wantErr: "feishu.app_id",
		},
		{
			name: "missing smtp host",
			content: `
feishu:
  app_id: a
  app_secret: s
  verification_token: v
smtp:
  user: u
  from_email: f@example.com
`,
			wantErr: "smtp.host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
