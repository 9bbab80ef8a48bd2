package httpfiber

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
	"github.com/hyperledger/web3j-cli-sub000/pkg/metrics"
)

func init() {
	_ = logger.InitLogger()
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	m.SetBalance("rinkeby", "deployer", "ETH", 1.5)

	srv := NewServer(":0", WithRegistry(registry), WithRequestLogging(zaptest.NewLogger(t)))

	resp, err := srv.app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `web3j_watch_balance{account="deployer",network="rinkeby",unit="ETH"} 1.5`), string(body))
}

func TestReadinessEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		readiness  ReadinessFunc
		wantStatus int
		wantBody   string
	}{
		{"no check", nil, 200, "ok"},
		{"ready", func() error { return nil }, 200, "ok"},
		{"not ready", func() error { return errors.New("scheduler not running") }, 503, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(":0", WithReadiness(tt.readiness))

			resp, err := srv.app.Test(httptest.NewRequest("GET", "/readiness", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantBody, body["status"])
		})
	}
}
