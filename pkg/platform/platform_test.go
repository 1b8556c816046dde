package platform

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("SAFLCA_TEST_STR", "wind")
	t.Setenv("SAFLCA_TEST_INT", " 8 ")
	t.Setenv("SAFLCA_TEST_BAD_INT", "eight")
	t.Setenv("SAFLCA_TEST_FLOAT", "89.5")
	t.Setenv("SAFLCA_TEST_BOOL", "TRUE")

	assert.Equal(t, "wind", GetEnv("SAFLCA_TEST_STR", "solar"))
	assert.Equal(t, "solar", GetEnv("SAFLCA_TEST_UNSET", "solar"))
	assert.Equal(t, 8, GetEnvInt("SAFLCA_TEST_INT", 4))
	assert.Equal(t, 4, GetEnvInt("SAFLCA_TEST_BAD_INT", 4))
	assert.Equal(t, 89.5, GetEnvFloat("SAFLCA_TEST_FLOAT", 94))
	assert.Equal(t, 94.0, GetEnvFloat("SAFLCA_TEST_UNSET", 94))
	assert.True(t, GetEnvBool("SAFLCA_TEST_BOOL", false))
	assert.False(t, GetEnvBool("SAFLCA_TEST_STR", true))
	assert.True(t, GetEnvBool("SAFLCA_TEST_UNSET", true))
}

func TestInitLoggerLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	l := initLogger(&buf, "warn", false)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	initLogger(&buf, "verbose", false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestAPIKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusNoContent},
		{"missing", "secret", "", http.StatusUnauthorized},
		{"wrong", "secret", "guess", http.StatusUnauthorized},
		{"match", "secret", "secret", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			APIKey(tt.key)(ok).ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}
