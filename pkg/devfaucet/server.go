// Package devfaucet is a local faucet speaking the same seed/send protocol as
// the public testnet faucets. Funds are not moved: each grant is recorded and
// answered with a synthetic transaction hash.
package devfaucet

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperledger/web3j-cli-sub000/pkg/config"
	"github.com/hyperledger/web3j-cli-sub000/pkg/faucet"
	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
	"github.com/hyperledger/web3j-cli-sub000/pkg/pow"
	"github.com/hyperledger/web3j-cli-sub000/pkg/validation"
)

// Observer is notified of every send request.
type Observer interface {
	ObserveGrant(method string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveGrant(string, error) {}

type Server struct {
	app      *fiber.App
	store    *Store
	cfg      *config.DevFaucet
	tokens   map[string]struct{}
	offset   int
	observer Observer
}

type Option func(*Server)

func WithObserver(o Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithDigestOffset must match the offset used by clients.
func WithDigestOffset(offset int) Option {
	return func(s *Server) {
		s.offset = offset
	}
}

func WithRequestLogging(zapLogger *zap.Logger) Option {
	return func(s *Server) {
		s.app.Use(fiberzap.New(fiberzap.Config{Logger: zapLogger}))
	}
}

func New(cfg *config.DevFaucet, store *Store, opts ...Option) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			JSONEncoder:           json.Marshal,
			JSONDecoder:           json.Unmarshal,
			DisableStartupMessage: true,
		}),
		store:    store,
		cfg:      cfg,
		tokens:   make(map[string]struct{}, len(cfg.Tokens)),
		offset:   pow.DefaultDigestOffset,
		observer: nopObserver{},
	}
	for _, token := range cfg.Tokens {
		s.tokens[token] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}

	s.MapRoutes()
	return s
}

func (s *Server) MapRoutes() {
	s.app.Get("/seed/:amount", s.handleSeed)
	s.app.Post("/send", s.handleSend)
	s.app.Post("/send/:token", s.handleSendToken)
	s.app.Get("/grants", s.handleGrants)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	logger.Infof("[devfaucet] listening on %s (difficulty %d)", s.cfg.ListenAddr, s.cfg.Difficulty)
	return s.app.Listen(s.cfg.ListenAddr)
}

func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(time.Second)
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func (s *Server) handleSeed(c *fiber.Ctx) error {
	amount := c.Params("amount")
	if _, err := strconv.ParseFloat(amount, 64); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid amount")
	}

	issued := IssuedChallenge{
		Seed:       uuid.NewString(),
		Difficulty: s.cfg.Difficulty,
		Amount:     amount,
		IssuedAt:   time.Now().UTC(),
	}
	if err := s.store.PutChallenge(issued); err != nil {
		logger.ErrorContext(c.UserContext(), "failed to store challenge", "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to issue challenge")
	}

	logger.DebugContext(c.UserContext(), "issued challenge", "seed", issued.Seed, "difficulty", issued.Difficulty)
	return c.JSON(pow.Challenge{Seed: issued.Seed, Difficulty: issued.Difficulty})
}

func (s *Server) handleSend(c *fiber.Ctx) error {
	address := c.FormValue("address")
	seed := c.FormValue("seed")

	if err := validation.ValidateAddress(address, faucet.Local); err != nil {
		s.observer.ObserveGrant(faucet.MethodProofOfWork, err)
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	nonce, err := strconv.ParseUint(c.FormValue("nonce"), 10, 64)
	if err != nil || seed == "" {
		err = errors.New("seed and numeric nonce are required")
		s.observer.ObserveGrant(faucet.MethodProofOfWork, err)
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	issued, err := s.store.Redeem(seed, func(ch pow.Challenge) error {
		return pow.Verify(ch, pow.Solution{Seed: seed, Nonce: nonce}, s.offset)
	})
	s.observer.ObserveGrant(faucet.MethodProofOfWork, err)
	switch {
	case errors.Is(err, ErrUnknownSeed):
		return fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrSeedSpent):
		return fail(c, fiber.StatusConflict, err.Error())
	case err != nil:
		logger.WarnContext(c.UserContext(), "rejected solution", "address", address, "seed", seed, "nonce", nonce, "error", err)
		return fail(c, fiber.StatusForbidden, err.Error())
	}

	return s.grant(c, Grant{
		Address: address,
		Amount:  issued.Amount,
		Seed:    seed,
		Nonce:   nonce,
	})
}

func (s *Server) handleSendToken(c *fiber.Ctx) error {
	address := c.FormValue("address")

	if _, ok := s.tokens[c.Params("token")]; !ok {
		err := errors.New("unknown token")
		s.observer.ObserveGrant(faucet.MethodToken, err)
		return fail(c, fiber.StatusUnauthorized, err.Error())
	}

	if err := validation.ValidateAddress(address, faucet.Local); err != nil {
		s.observer.ObserveGrant(faucet.MethodToken, err)
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	s.observer.ObserveGrant(faucet.MethodToken, nil)
	return s.grant(c, Grant{
		Address: address,
		Amount:  s.cfg.GrantAmount,
		Token:   true,
	})
}

func (s *Server) grant(c *fiber.Ctx, g Grant) error {
	g.GrantedAt = time.Now().UTC()
	g.TxHash = txHash(g)

	if err := s.store.PutGrant(g); err != nil {
		logger.ErrorContext(c.UserContext(), "failed to store grant", "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to record grant")
	}

	logger.InfoContext(c.UserContext(), "granted funds", "address", g.Address, "amount", g.Amount, "tx", g.TxHash, "token", g.Token)
	return c.JSON(fiber.Map{"result": g.TxHash})
}

func (s *Server) handleGrants(c *fiber.Ctx) error {
	grants, err := s.store.Grants(c.Query("address"))
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	if grants == nil {
		grants = []Grant{}
	}
	return c.JSON(grants)
}

// txHash derives a unique transaction-like hash for a grant.
func txHash(g Grant) string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], g.Nonce)
	binary.BigEndian.PutUint64(buf[8:], uint64(g.GrantedAt.UnixNano()))
	id := uuid.New()
	return crypto.Keccak256Hash([]byte(strings.ToLower(g.Address)), []byte(g.Seed), buf[:], id[:]).Hex()
}

func equalFoldAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
