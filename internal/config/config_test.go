package config

import (
	"testing"
	"time"

	"causelens/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_SOURCE", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/causelens")
	t.Setenv("BACKEND_URL", "")
	t.Setenv("ROW_LIMIT", "")
	t.Setenv("CURVE_SAMPLES", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, SourceDatabase, cfg.Data.Source)
	assert.Equal(t, 10000, cfg.Data.RowLimit)
	assert.Equal(t, 50, cfg.Data.CurveSamples)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "8081", cfg.Server.UIPort)
	assert.False(t, cfg.Backend.Enabled())
}

func TestLoad_Backend(t *testing.T) {
	t.Setenv("DATA_SOURCE", "backend")
	t.Setenv("BACKEND_URL", "https://analysis.example.com/api/")
	t.Setenv("BACKEND_AUTH_METHOD", "bearer")
	t.Setenv("BACKEND_TOKEN", "secret")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("BACKEND_RATE_LIMIT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://analysis.example.com/api", cfg.Backend.URL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 60, cfg.Backend.RateLimit)
	assert.Equal(t, "data", cfg.Backend.DataPath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"database source without url", map[string]string{"DATA_SOURCE": "database", "DATABASE_URL": ""}},
		{"unknown source", map[string]string{"DATA_SOURCE": "ftp"}},
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "mysql", "DATABASE_URL": "x"}},
		{"backend without url", map[string]string{"DATA_SOURCE": "backend", "BACKEND_URL": ""}},
		{"bearer without token", map[string]string{"DATA_SOURCE": "file", "BACKEND_URL": "http://b", "BACKEND_AUTH_METHOD": "bearer", "BACKEND_TOKEN": ""}},
		{"bad auth method", map[string]string{"DATA_SOURCE": "file", "BACKEND_URL": "http://b", "BACKEND_AUTH_METHOD": "oauth"}},
		{"one curve sample", map[string]string{"DATA_SOURCE": "file", "CURVE_SAMPLES": "1"}},
		{"negative row limit", map[string]string{"DATA_SOURCE": "file", "ROW_LIMIT": "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"DATA_SOURCE", "DATABASE_DRIVER", "DATABASE_URL", "BACKEND_URL", "BACKEND_AUTH_METHOD", "BACKEND_TOKEN", "CURVE_SAMPLES", "ROW_LIMIT"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
