package faucet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
	"github.com/hyperledger/web3j-cli-sub000/pkg/pow"
	"github.com/hyperledger/web3j-cli-sub000/pkg/progress"
)

func init() {
	_ = logger.InitLogger()
}

// mockFaucet serves the seed/send API and counts the calls it receives.
type mockFaucet struct {
	seed       string
	difficulty int

	seedStatus  int
	seedBody    string
	sendStatus  []int
	sendBody    string
	tokenResult string

	seedCalls  atomic.Int32
	sendCalls  atomic.Int32
	tokenCalls atomic.Int32

	lastForm      atomic.Value
	lastUserAgent atomic.Value
}

func newMockFaucet(seed string, difficulty int) *mockFaucet {
	return &mockFaucet{seed: seed, difficulty: difficulty, sendBody: `{"result":"0xDEADBEEF"}`, tokenResult: "0xT0KEN"}
}

func (m *mockFaucet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.lastUserAgent.Store(r.UserAgent())
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/seed/"):
		m.seedCalls.Add(1)
		if m.seedStatus != 0 {
			w.WriteHeader(m.seedStatus)
		}
		if m.seedBody != "" {
			_, _ = w.Write([]byte(m.seedBody))
			return
		}
		_ = json.NewEncoder(w).Encode(pow.Challenge{Seed: m.seed, Difficulty: m.difficulty})

	case r.Method == http.MethodPost && r.URL.Path == "/send":
		n := int(m.sendCalls.Add(1))
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m.lastForm.Store(r.MultipartForm.Value)
		if n <= len(m.sendStatus) && m.sendStatus[n-1] != http.StatusOK {
			w.WriteHeader(m.sendStatus[n-1])
			_, _ = w.Write([]byte(`{"error":"nope"}`))
			return
		}
		nonce, err := strconv.ParseUint(r.FormValue("nonce"), 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sol := pow.Solution{Seed: r.FormValue("seed"), Nonce: nonce}
		if err := pow.Verify(pow.Challenge{Seed: m.seed, Difficulty: m.difficulty}, sol, pow.DefaultDigestOffset); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(m.sendBody))

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/send/"):
		m.tokenCalls.Add(1)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m.lastForm.Store(r.MultipartForm.Value)
		if strings.TrimPrefix(r.URL.Path, "/send/") != "good-token" {
			http.Error(w, `{"error":"unknown token"}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"result": m.tokenResult})

	default:
		http.NotFound(w, r)
	}
}

func (m *mockFaucet) form() map[string][]string {
	v, _ := m.lastForm.Load().(map[string][]string)
	return v
}

type stubSolver struct {
	calls atomic.Int32
	res   *pow.Result
	err   error
}

func (s *stubSolver) Solve(context.Context, pow.Challenge) (*pow.Result, error) {
	s.calls.Add(1)
	return s.res, s.err
}

func testNetwork(baseURL string) Network {
	n := Local
	n.BaseURL = baseURL
	n.ExplorerURL = "https://local.epirus.io/transactions/%s"
	return n
}

const testAddress = "0x1234567890123456789012345678901234567890"

func TestFund_ProofOfWork(t *testing.T) {
	mock := newMockFaucet("abc123", 1)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	client := NewClient(5*time.Second, WithSolver(pow.NewSolver(pow.WithWorkers(2))))
	res, err := client.Fund(context.Background(), testAddress, testNetwork(srv.URL), "")
	require.NoError(t, err)

	assert.Equal(t, "0xDEADBEEF", res.TransactionHash)
	assert.Equal(t, "https://local.epirus.io/transactions/0xDEADBEEF", res.ExplorerLink)
	assert.Equal(t, MethodProofOfWork, res.Method)
	require.NotNil(t, res.Challenge)
	assert.Equal(t, "abc123", res.Challenge.Seed)
	assert.True(t, pow.Satisfies(res.Nonce, "abc123", 1, pow.DefaultDigestOffset))

	assert.Equal(t, int32(1), mock.seedCalls.Load())
	assert.Equal(t, int32(1), mock.sendCalls.Load())
	form := mock.form()
	assert.Equal(t, []string{testAddress}, form["address"])
	assert.Equal(t, []string{"abc123"}, form["seed"])
	assert.Equal(t, []string{strconv.FormatUint(res.Nonce, 10)}, form["nonce"])
	assert.True(t, strings.HasPrefix(mock.lastUserAgent.Load().(string), "web3j-cli/"))
}

func TestFund_TokenSkipsChallenge(t *testing.T) {
	mock := newMockFaucet("abc123", 1)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	solver := &stubSolver{}
	client := NewClient(5*time.Second, WithSolver(solver))
	res, err := client.Fund(context.Background(), testAddress, testNetwork(srv.URL), "good-token")
	require.NoError(t, err)

	assert.Equal(t, "0xT0KEN", res.TransactionHash)
	assert.Equal(t, MethodToken, res.Method)
	assert.Nil(t, res.Challenge)
	assert.Equal(t, int32(0), mock.seedCalls.Load())
	assert.Equal(t, int32(0), mock.sendCalls.Load())
	assert.Equal(t, int32(1), mock.tokenCalls.Load())
	assert.Equal(t, int32(0), solver.calls.Load())
	assert.Equal(t, map[string][]string{"address": {testAddress}}, mock.form())
}

func TestFund_TokenRejected(t *testing.T) {
	mock := newMockFaucet("abc123", 1)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	_, err := NewClient(5*time.Second).Fund(context.Background(), testAddress, testNetwork(srv.URL), "bad-token")
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
	assert.Equal(t, opToken, remoteErr.Op)
	assert.False(t, IsRetryable(err))
}

func TestFund_ChallengeFailureSkipsSolver(t *testing.T) {
	mock := newMockFaucet("abc123", 1)
	mock.seedStatus = http.StatusServiceUnavailable
	mock.seedBody = "maintenance"
	srv := httptest.NewServer(mock)
	defer srv.Close()

	solver := &stubSolver{}
	_, err := NewClient(5*time.Second, WithSolver(solver)).Fund(context.Background(), testAddress, testNetwork(srv.URL), "")

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusServiceUnavailable, remoteErr.StatusCode)
	assert.Equal(t, "maintenance", remoteErr.Body)
	assert.Contains(t, err.Error(), "an HTTP request failed with code: 503")
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(0), solver.calls.Load())
	assert.Equal(t, int32(0), mock.sendCalls.Load())
}

func TestFund_MalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		seedBody string
		sendBody string
		wantOp   string
	}{
		{"challenge_not_json", "<html>", "", opChallenge},
		{"challenge_missing_difficulty", `{"seed":"abc123"}`, "", opChallenge},
		{"submit_not_json", "", "ok", opSubmit},
		{"submit_missing_result", "", `{"status":"queued"}`, opSubmit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockFaucet("abc123", 1)
			mock.seedBody = tt.seedBody
			if tt.sendBody != "" {
				mock.sendBody = tt.sendBody
			}
			srv := httptest.NewServer(mock)
			defer srv.Close()

			_, err := NewClient(5*time.Second).Fund(context.Background(), testAddress, testNetwork(srv.URL), "")
			var decodeErr *DeserializationError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, tt.wantOp, decodeErr.Op)
			assert.False(t, IsRetryable(err))
		})
	}
}

func TestFund_SubmissionRejected(t *testing.T) {
	mock := newMockFaucet("abc123", 1)
	mock.sendStatus = []int{http.StatusBadRequest}
	srv := httptest.NewServer(mock)
	defer srv.Close()

	_, err := NewClient(5*time.Second).FundWithRetry(context.Background(), testAddress, testNetwork(srv.URL), "", 3)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
	assert.Equal(t, opSubmit, remoteErr.Op)
	assert.Equal(t, int32(1), mock.sendCalls.Load(), "client errors are not retried")
}

func TestFundWithRetry_RecoversFromServerError(t *testing.T) {
	mock := newMockFaucet("abc123", 1)
	mock.sendStatus = []int{http.StatusBadGateway}
	srv := httptest.NewServer(mock)
	defer srv.Close()

	res, err := NewClient(5*time.Second).FundWithRetry(context.Background(), testAddress, testNetwork(srv.URL), "", 2)
	require.NoError(t, err)
	assert.Equal(t, "0xDEADBEEF", res.TransactionHash)
	assert.Equal(t, int32(2), mock.seedCalls.Load(), "every attempt fetches a fresh challenge")
	assert.Equal(t, int32(2), mock.sendCalls.Load())
}

func TestFundWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	mock := newMockFaucet("abc123", 1)
	mock.sendStatus = []int{http.StatusBadGateway, http.StatusBadGateway}
	srv := httptest.NewServer(mock)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := NewClient(5*time.Second).FundWithRetry(ctx, testAddress, testNetwork(srv.URL), "", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), mock.sendCalls.Load())
}

func TestFund_NetworkError(t *testing.T) {
	srv := httptest.NewServer(newMockFaucet("abc123", 1))
	baseURL := srv.URL
	srv.Close()

	_, err := NewClient(time.Second).Fund(context.Background(), testAddress, testNetwork(baseURL), "")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, opChallenge, netErr.Op)
	assert.True(t, IsRetryable(err))
}

func TestFund_TimeoutAppliesToEveryCall(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(slow)
	defer srv.Close()

	for _, token := range []string{"", "good-token"} {
		start := time.Now()
		_, err := NewClient(100*time.Millisecond).Fund(context.Background(), testAddress, testNetwork(srv.URL), token)
		var netErr *NetworkError
		require.ErrorAs(t, err, &netErr, "token %q", token)
		assert.Less(t, time.Since(start), 2*time.Second)
	}
}

func TestFund_SolverTimeout(t *testing.T) {
	mock := newMockFaucet("abc123", 1)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	solver := &stubSolver{err: pow.ErrTimeout}
	_, err := NewClient(5*time.Second, WithSolver(solver)).Fund(context.Background(), testAddress, testNetwork(srv.URL), "")
	assert.ErrorIs(t, err, ErrSolverTimeout)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, int32(0), mock.sendCalls.Load())
}

func TestFund_InvalidNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls.Add(1) }))
	defer srv.Close()

	_, err := DefaultRegistry().Lookup("kovan")
	assert.ErrorIs(t, err, ErrInvalidNetwork)

	_, err = NewClient(time.Second).Fund(context.Background(), testAddress, Network{Name: "kovan"}, "")
	assert.ErrorIs(t, err, ErrInvalidNetwork)
	assert.Equal(t, int32(0), calls.Load())
}

func TestFund_RendersProgress(t *testing.T) {
	mock := newMockFaucet("abc123", 2)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	var out bytes.Buffer
	_, err := NewClient(5*time.Second, WithProgress(&out)).Fund(context.Background(), testAddress, testNetwork(srv.URL), "")
	require.NoError(t, err)
	assert.Contains(t, out.String(), progress.DefaultMessage)
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
}

type recordingObserver struct {
	nopObserver
	funding []error
	methods []string
}

func (r *recordingObserver) ObserveFunding(_, method string, _ time.Duration, err error) {
	r.methods = append(r.methods, method)
	r.funding = append(r.funding, err)
}

func TestFund_Observer(t *testing.T) {
	mock := newMockFaucet("abc123", 1)
	srv := httptest.NewServer(mock)
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewClient(5*time.Second, WithObserver(obs))
	_, err := client.Fund(context.Background(), testAddress, testNetwork(srv.URL), "")
	require.NoError(t, err)
	_, err = client.Fund(context.Background(), testAddress, testNetwork(srv.URL), "bad-token")
	require.Error(t, err)

	assert.Equal(t, []string{MethodProofOfWork, MethodToken}, obs.methods)
	assert.NoError(t, obs.funding[0])
	assert.Error(t, obs.funding[1])
}

func TestLoggingContextPrefix(t *testing.T) {
	var nilCtx *LoggingContext
	assert.Equal(t, "[faucet]", nilCtx.logPrefix())

	ctx := WithLoggingContext(context.Background(), &LoggingContext{Account: "deployer"})
	assert.Equal(t, "[faucet rinkeby/deployer]", loggingContextFrom(ctx, Rinkeby).logPrefix())
	assert.Equal(t, "[faucet ropsten]", loggingContextFrom(context.Background(), Ropsten).logPrefix())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&RemoteError{StatusCode: 429}))
	assert.False(t, IsRetryable(&RemoteError{StatusCode: 404}))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(ErrUserCancelled))
}
