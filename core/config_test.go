package core

import (
	"net/mail"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func Test_parseDebug(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true},
		{"true", true},
		{" TRUE ", true},
		{"debug", true},
		{"on", true},
		{"", false},
		{"0", false},
		{"false", false},
		{"production", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDebug(tt.in))
		})
	}
}

func Test_fromViper_defaults(t *testing.T) {
	conf := fromViper(newTestViper(nil), "DEV")

	assert.Equal(t, "DEV", conf.Env)
	assert.False(t, conf.Debug)
	assert.Equal(t, "memory", conf.Storage)
	assert.Equal(t, "0.0.0.0:5000", conf.Server.Address())
	assert.Equal(t, 5*time.Second, conf.Server.ReadTimeout)
	assert.Equal(t, "filesystem", conf.Session.Store)
	assert.Equal(t, "smtp.gmail.com", conf.Email.Host)
	assert.Equal(t, 587, conf.Email.Port)
	assert.Empty(t, conf.Email.DefaultFrom)
	assert.False(t, conf.Email.SMTPConfigured())

	// no secret configured: a random one is generated
	assert.True(t, conf.SecretKeyGenerated)
	assert.Len(t, conf.SecretKey, 64)
	other := fromViper(newTestViper(nil), "DEV")
	assert.NotEqual(t, conf.SecretKey, other.SecretKey)
}

func Test_fromViper(t *testing.T) {
	conf := fromViper(newTestViper(map[string]interface{}{
		"debug":          "1",
		"secret_key":     "s3cret",
		"storage":        " Postgres ",
		"session.store":  "REDIS",
		"email.user":     "sender@example.com",
		"email.password": "pwd",
	}), "PROD")

	assert.True(t, conf.Debug)
	assert.Equal(t, "s3cret", conf.SecretKey)
	assert.False(t, conf.SecretKeyGenerated)
	assert.Equal(t, "postgres", conf.Storage)
	assert.Equal(t, "redis", conf.Session.Store)

	// the recipient falls back to the sending account
	assert.Equal(t, "sender@example.com", conf.Email.Recipient)
	assert.True(t, conf.Email.SMTPConfigured())
}

func TestNewConfig_legacySMTPEnv(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("EMAIL_HOST_USER", "school@gmail.com")
	t.Setenv("EMAIL_HOST_PASSWORD", "app-password")

	conf := NewConfig()

	assert.True(t, conf.Email.SMTPConfigured())
	assert.Equal(t, "school@gmail.com", conf.Email.Recipient)
	// without an explicit default sender, mail goes out as the authenticated account
	assert.Equal(t, mail.Address{Name: conf.AppName, Address: "school@gmail.com"}, conf.Email.From(conf.AppName))
}

func TestEmailConfig_From(t *testing.T) {
	tests := []struct {
		name string
		conf EmailConfig
		want mail.Address
	}{
		{
			name: "default from",
			conf: EmailConfig{DefaultFrom: "EduQuest <hello@eduquest.com>", User: "smtp@example.com"},
			want: mail.Address{Name: "EduQuest", Address: "hello@eduquest.com"},
		},
		{
			name: "smtp user",
			conf: EmailConfig{User: "smtp@example.com"},
			want: mail.Address{Name: "EduQuest Academy", Address: "smtp@example.com"},
		},
		{
			name: "fallback",
			conf: EmailConfig{},
			want: mail.Address{Name: "EduQuest Academy", Address: "no-reply@eduquest.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.conf.From("EduQuest Academy"))
		})
	}
}

func TestEmailConfig_RecipientAddress(t *testing.T) {
	assert.Equal(t, mail.Address{Name: "Office", Address: "office@eduquest.com"},
		EmailConfig{Recipient: "Office <office@eduquest.com>"}.RecipientAddress())
	assert.Equal(t, mail.Address{}, EmailConfig{}.RecipientAddress())
}
