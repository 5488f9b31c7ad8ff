package httptransport_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"aurum/internal/assetnft"
	"aurum/internal/compliance"
	"aurum/internal/dividend"
	"aurum/internal/identity"
	identitystore "aurum/internal/identity/store"
	"aurum/internal/identityregistry"
	registrystore "aurum/internal/identityregistry/store"
	"aurum/internal/instruments"
	"aurum/internal/operatorauth"
	"aurum/internal/redemption"
	redemptionstore "aurum/internal/redemption/store"
	"aurum/internal/token"
	tokenmodels "aurum/internal/token/models"
	tokenstore "aurum/internal/token/store"
	httptransport "aurum/internal/transport/http"
	"aurum/internal/trust"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	auditmem "aurum/pkg/platform/audit/store/memory"
)

// RouterSuite runs the full HTTP surface against real in-memory services,
// authenticated the way production traffic is: a bearer token minted for the
// operator address.
type RouterSuite struct {
	suite.Suite
	server   *httptest.Server
	bearer   string
	operator domain.Address
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	s.operator = domain.AddressFromKey(pub)

	jwtSvc := operatorauth.NewJWTService("router-test-key", "aurum", "aurum-api")
	s.bearer, err = jwtSvc.GenerateToken(s.operator, time.Hour)
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(auditmem.NewInMemoryStore())

	identities := identity.NewService(identitystore.NewInMemoryStore(), recorder, logger)
	topics := trust.NewTopicsRegistry(s.operator, recorder)
	issuers := trust.NewIssuersRegistry(s.operator, recorder)
	registry := identityregistry.NewService(s.operator, registrystore.NewInMemoryStore(), identities, topics, issuers, recorder, logger)

	insts := instruments.NewRegistry()
	operator := s.operator
	newInstrument := func(name, symbol string, decimals uint8, owner domain.Address) (instruments.Instrument, error) {
		id := domain.NewTokenID()
		comp := compliance.New(owner, recorder, logger)
		if err := comp.BindToken(context.Background(), owner, id); err != nil {
			return instruments.Instrument{}, err
		}
		ledger := token.NewService(
			tokenmodels.Info{Token: id, Name: name, Symbol: symbol, Decimals: decimals},
			owner,
			tokenstore.NewInMemoryLedger(),
			registry,
			comp,
			recorder,
			logger,
		)
		if owner != operator {
			if err := ledger.Access().AddAgent(owner, operator); err != nil {
				return instruments.Instrument{}, err
			}
		}
		inst := instruments.Instrument{Token: ledger, Compliance: comp}
		if err := insts.Add(inst); err != nil {
			return instruments.Instrument{}, err
		}
		return inst, nil
	}

	assets := assetnft.NewRegistry(recorder)
	redemptions := redemption.NewService(redemptionstore.NewInMemoryStore(), insts, registry, assets, s.operator, recorder, logger)
	dividends := dividend.NewService(insts, registry, recorder, logger)

	h := httptransport.NewHandler(identities, topics, issuers, registry, insts, newInstrument, assets, redemptions, dividends, logger)
	s.server = httptest.NewServer(httptransport.NewRouter(h, jwtSvc))
	s.T().Cleanup(s.server.Close)
}

func (s *RouterSuite) do(method, path string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *RouterSuite) decode(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var out map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *RouterSuite) expectStatus(resp *http.Response, status int) {
	s.Require().Equal(status, resp.StatusCode)
	resp.Body.Close()
}

// registerWallet deploys an identity over the API and binds a fresh wallet
// to it, returning the wallet address.
func (s *RouterSuite) registerWallet(country uint64) domain.Address {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	wallet := domain.AddressFromKey(pub)

	resp := s.do(http.MethodPost, "/identities", map[string]any{
		"owner":     wallet.String(),
		"owner_key": base64.StdEncoding.EncodeToString(pub),
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	identityID, ok := s.decode(resp)["id"].(string)
	s.Require().True(ok)

	resp = s.do(http.MethodPost, "/registry/wallets", map[string]any{
		"wallet":   wallet.String(),
		"identity": identityID,
		"country":  country,
	})
	s.expectStatus(resp, http.StatusNoContent)
	return wallet
}

func (s *RouterSuite) createToken() string {
	resp := s.do(http.MethodPost, "/tokens", map[string]any{
		"name":     "Gold Bond",
		"symbol":   "AUB",
		"decimals": 2,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	id, ok := s.decode(resp)["id"].(string)
	s.Require().True(ok)
	return id
}

func (s *RouterSuite) TestHealthOpen() {
	resp, err := s.server.Client().Get(s.server.URL + "/healthz")
	s.Require().NoError(err)
	s.expectStatus(resp, http.StatusOK)
}

func (s *RouterSuite) TestAuthRequired() {
	s.Run("missing bearer", func() {
		resp, err := s.server.Client().Get(s.server.URL + "/trust/topics")
		s.Require().NoError(err)
		s.Require().Equal(http.StatusUnauthorized, resp.StatusCode)
		body := s.decode(resp)
		s.Equal("unauthorized", body["error"])
	})

	s.Run("garbage bearer", func() {
		req, err := http.NewRequest(http.MethodGet, s.server.URL+"/trust/topics", nil)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		resp, err := s.server.Client().Do(req)
		s.Require().NoError(err)
		s.Require().Equal(http.StatusUnauthorized, resp.StatusCode)
		body := s.decode(resp)
		s.Equal("unauthorized", body["error"])
	})

	s.Run("valid bearer", func() {
		resp := s.do(http.MethodGet, "/trust/topics", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		body := s.decode(resp)
		s.Contains(body, "topics")
	})
}

func (s *RouterSuite) TestTokenLifecycle() {
	tokenID := s.createToken()

	s.Run("info on fresh token", func() {
		resp := s.do(http.MethodGet, "/tokens/"+tokenID+"/", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		body := s.decode(resp)
		s.Equal("Gold Bond", body["name"])
		s.Equal("AUB", body["symbol"])
		s.EqualValues(0, body["supply"])
		s.Equal(false, body["paused"])
	})

	alice := s.registerWallet(756)
	bob := s.registerWallet(276)

	s.Run("registered wallet is verified with no required topics", func() {
		resp := s.do(http.MethodGet, "/registry/wallets/"+alice.String()+"/verified", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.Equal(true, s.decode(resp)["verified"])
	})

	s.Run("mint as operator", func() {
		resp := s.do(http.MethodPost, "/tokens/"+tokenID+"/mint", map[string]any{
			"to": alice.String(), "amount": 1000,
		})
		s.expectStatus(resp, http.StatusNoContent)

		resp = s.do(http.MethodGet, "/tokens/"+tokenID+"/balances/"+alice.String(), nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		body := s.decode(resp)
		s.EqualValues(1000, body["balance"])
		s.EqualValues(0, body["frozen"])
		s.EqualValues(1000, body["available"])
		s.Equal(false, body["fully_frozen"])
	})

	s.Run("partial freeze shows in balance", func() {
		resp := s.do(http.MethodPost, "/tokens/"+tokenID+"/freeze-tokens", map[string]any{
			"wallet": alice.String(), "amount": 400,
		})
		s.expectStatus(resp, http.StatusNoContent)

		resp = s.do(http.MethodGet, "/tokens/"+tokenID+"/balances/"+alice.String(), nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		body := s.decode(resp)
		s.EqualValues(400, body["frozen"])
		s.EqualValues(600, body["available"])
	})

	s.Run("forced transfer moves shares to bob", func() {
		resp := s.do(http.MethodPost, "/tokens/"+tokenID+"/forced-transfer", map[string]any{
			"from": alice.String(), "to": bob.String(), "amount": 300,
		})
		s.expectStatus(resp, http.StatusNoContent)

		resp = s.do(http.MethodGet, "/tokens/"+tokenID+"/balances/"+bob.String(), nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		s.EqualValues(300, s.decode(resp)["balance"])
	})

	s.Run("unknown token id", func() {
		resp := s.do(http.MethodGet, "/tokens/"+domain.NewTokenID().String()+"/balances/"+alice.String(), nil)
		s.Require().Equal(http.StatusNotFound, resp.StatusCode)
		s.Equal("not_found", s.decode(resp)["error"])
	})
}

func (s *RouterSuite) TestErrorMapping() {
	tokenID := s.createToken()
	wallet := s.registerWallet(756)

	s.Run("mint to unregistered wallet", func() {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		s.Require().NoError(err)
		stranger := domain.AddressFromKey(pub)

		resp := s.do(http.MethodPost, "/tokens/"+tokenID+"/mint", map[string]any{
			"to": stranger.String(), "amount": 10,
		})
		s.Require().Equal(http.StatusNotFound, resp.StatusCode)
		s.Equal("not_found", s.decode(resp)["error"])
	})

	s.Run("malformed body", func() {
		req, err := http.NewRequest(http.MethodPost, s.server.URL+"/tokens/"+tokenID+"/mint", bytes.NewReader([]byte("{bad-json")))
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+s.bearer)
		resp, err := s.server.Client().Do(req)
		s.Require().NoError(err)
		s.Require().Equal(http.StatusBadRequest, resp.StatusCode)
		s.Equal("invalid_input", s.decode(resp)["error"])
	})

	s.Run("mint while paused", func() {
		resp := s.do(http.MethodPost, "/tokens/"+tokenID+"/pause", nil)
		s.expectStatus(resp, http.StatusNoContent)

		resp = s.do(http.MethodPost, "/tokens/"+tokenID+"/mint", map[string]any{
			"to": wallet.String(), "amount": 10,
		})
		s.Require().Equal(http.StatusUnprocessableEntity, resp.StatusCode)
		s.Equal("paused", s.decode(resp)["error"])

		resp = s.do(http.MethodPost, "/tokens/"+tokenID+"/unpause", nil)
		s.expectStatus(resp, http.StatusNoContent)
	})

	s.Run("mint to unverified wallet", func() {
		resp := s.do(http.MethodPost, "/trust/topics", map[string]any{"topic": 1})
		s.expectStatus(resp, http.StatusNoContent)

		resp = s.do(http.MethodPost, "/tokens/"+tokenID+"/mint", map[string]any{
			"to": wallet.String(), "amount": 10,
		})
		s.Require().Equal(http.StatusUnprocessableEntity, resp.StatusCode)
		s.Equal("not_verified", s.decode(resp)["error"])
	})

	s.Run("duplicate compliance module", func() {
		resp := s.do(http.MethodPost, "/tokens/"+tokenID+"/compliance/modules", map[string]any{
			"kind": "holder_limit", "max_holders": 5,
		})
		s.expectStatus(resp, http.StatusCreated)

		resp = s.do(http.MethodPost, "/tokens/"+tokenID+"/compliance/modules", map[string]any{
			"kind": "holder_limit", "max_holders": 10,
		})
		s.Require().Equal(http.StatusConflict, resp.StatusCode)
		s.Equal("conflict", s.decode(resp)["error"])
	})
}
