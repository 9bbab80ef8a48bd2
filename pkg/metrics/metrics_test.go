package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/pow"
)

var _ faucet.Observer = (*Metrics)(nil)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("rinkeby", "fetch challenge", 200, 10*time.Millisecond)
	m.ObserveRequest("rinkeby", "fetch challenge", 0, time.Second)
	m.ObserveSolve("rinkeby", 1500, 2*time.Second, nil)
	m.ObserveSolve("rinkeby", 500, time.Minute, fmt.Errorf("wrapped: %w", pow.ErrTimeout))
	m.ObserveFunding("rinkeby", faucet.MethodProofOfWork, 3*time.Second, nil)
	m.ObserveFunding("rinkeby", faucet.MethodToken, time.Second, errors.New("boom"))
	m.SetBalance("rinkeby", "deployer", "ETH", 0.25)
	m.SetUnhealthy("ropsten", "ops")
	m.ObserveGrant(faucet.MethodToken, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("rinkeby", "fetch challenge", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("rinkeby", "fetch challenge", "0")))
	assert.Equal(t, 2000.0, testutil.ToFloat64(m.solveAttempts.WithLabelValues("rinkeby")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.solveDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fundings.WithLabelValues("rinkeby", "pow", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fundings.WithLabelValues("rinkeby", "token", OutcomeFailure)))
	assert.Equal(t, 0.25, testutil.ToFloat64(m.balance.WithLabelValues("rinkeby", "deployer", "ETH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.health.WithLabelValues("rinkeby", "deployer")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.health.WithLabelValues("ropsten", "ops")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.grants.WithLabelValues("token", OutcomeSuccess)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, outcome(nil))
	assert.Equal(t, OutcomeTimeout, outcome(pow.ErrTimeout))
	assert.Equal(t, OutcomeFailure, outcome(errors.New("x")))
}
