package redemption_test

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	"aurum/internal/assetnft"
	"aurum/internal/redemption"
	"aurum/internal/redemption/models"
	"aurum/internal/redemption/store"
	"aurum/internal/token"
	tokenmodels "aurum/internal/token/models"
	tokenstore "aurum/internal/token/store"
	"aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	auditmemory "aurum/pkg/platform/audit/store/memory"
	derrors "aurum/pkg/platform/errs"
)

// fakeRegistry satisfies both the token service's registry and the
// redemption service's verification source.
type fakeRegistry struct {
	identities map[domain.Address]domain.IdentityID
	unverified map[domain.Address]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		identities: make(map[domain.Address]domain.IdentityID),
		unverified: make(map[domain.Address]bool),
	}
}

func (f *fakeRegistry) Identity(_ context.Context, wallet domain.Address) (domain.IdentityID, error) {
	id, ok := f.identities[wallet]
	if !ok {
		return domain.IdentityID{}, derrors.New(derrors.CodeNotFound, "wallet is not registered")
	}
	return id, nil
}

func (f *fakeRegistry) IsVerified(_ context.Context, wallet domain.Address) (bool, error) {
	if _, ok := f.identities[wallet]; !ok {
		return false, nil
	}
	return !f.unverified[wallet], nil
}

type passCompliance struct{}

func (passCompliance) CanTransfer(context.Context, domain.Address, domain.Address, uint64) (bool, string) {
	return true, ""
}
func (passCompliance) Transferred(context.Context, domain.Address, domain.Address, uint64) {}
func (passCompliance) Created(context.Context, domain.Address, uint64)                     {}
func (passCompliance) Destroyed(context.Context, domain.Address, uint64)                   {}

// singleToken resolves exactly one instrument.
type singleToken struct {
	svc *token.Service
}

func (t singleToken) Token(id domain.TokenID) (redemption.Ledger, error) {
	if id != t.svc.ID() {
		return nil, derrors.Newf(derrors.CodeNotFound, "token %s is not known", id)
	}
	return t.svc, nil
}

type RedemptionSuite struct {
	suite.Suite
	operator domain.Address
	issuer   domain.Address
	redeemer domain.Address
	registry *fakeRegistry
	token    *token.Service
	assets   *assetnft.Registry
	asset    domain.AssetID
	service  *redemption.Service
	auditLog *auditmemory.InMemoryStore
	ctx      context.Context
}

func TestRedemptionSuite(t *testing.T) {
	suite.Run(t, new(RedemptionSuite))
}

func (s *RedemptionSuite) SetupTest() {
	s.ctx = context.Background()
	s.registry = newFakeRegistry()
	s.auditLog = auditmemory.NewInMemoryStore()
	recorder := audit.NewRecorder(s.auditLog)

	s.operator = s.newWallet()
	s.issuer = s.newWallet()
	s.redeemer = s.newWallet()

	info := tokenmodels.Info{Token: domain.NewTokenID(), Name: "Vault Share", Symbol: "VLT"}
	s.token = token.NewService(info, s.issuer, tokenstore.NewInMemoryLedger(), s.registry, passCompliance{}, recorder, nil)
	s.Require().NoError(s.token.AddAgent(s.ctx, s.issuer, s.operator))

	s.assets = assetnft.NewRegistry(recorder)
	var err error
	s.asset, err = s.assets.Mint(s.ctx, s.issuer, map[string]string{"vault": "ZH-104"})
	s.Require().NoError(err)

	s.service = redemption.NewService(store.NewInMemoryStore(), singleToken{s.token}, s.registry, s.assets, s.operator, recorder, nil)
}

func (s *RedemptionSuite) newWallet() domain.Address {
	var wallet domain.Address
	_, err := rand.Read(wallet[:])
	s.Require().NoError(err)
	s.registry.identities[wallet] = domain.NewIdentityID()
	return wallet
}

// request binds the asset, mints the full supply to the redeemer and opens a
// redemption.
func (s *RedemptionSuite) request(shares uint64) models.Record {
	s.Require().NoError(s.service.RegisterAsset(s.ctx, s.issuer, s.token.ID(), s.asset))
	s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.redeemer, shares))
	rec, err := s.service.RequestRedemption(s.ctx, s.redeemer, s.token.ID())
	s.Require().NoError(err)
	return rec
}

func (s *RedemptionSuite) status(id domain.RedemptionID) models.Status {
	rec, err := s.service.Redemption(s.ctx, id)
	s.Require().NoError(err)
	return rec.Status
}

func (s *RedemptionSuite) TestRegisterAsset() {
	s.Run("only the asset owner registers", func() {
		err := s.service.RegisterAsset(s.ctx, s.redeemer, s.token.ID(), s.asset)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("one asset per token", func() {
		s.Require().NoError(s.service.RegisterAsset(s.ctx, s.issuer, s.token.ID(), s.asset))
		other, err := s.assets.Mint(s.ctx, s.issuer, nil)
		s.Require().NoError(err)
		err = s.service.RegisterAsset(s.ctx, s.issuer, s.token.ID(), other)
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})

	s.Run("unknown token rejected", func() {
		err := s.service.RegisterAsset(s.ctx, s.issuer, domain.NewTokenID(), s.asset)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})
}

func (s *RedemptionSuite) TestRequestPreconditions() {
	s.Run("no binding, no redemption", func() {
		_, err := s.service.RequestRedemption(s.ctx, s.redeemer, s.token.ID())
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("zero supply rejected", func() {
		s.Require().NoError(s.service.RegisterAsset(s.ctx, s.issuer, s.token.ID(), s.asset))
		_, err := s.service.RequestRedemption(s.ctx, s.redeemer, s.token.ID())
		s.True(derrors.HasCode(err, derrors.CodeInvalidState))
	})

	s.Run("partial holder rejected", func() {
		s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.redeemer, 600))
		s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.issuer, 400))
		_, err := s.service.RequestRedemption(s.ctx, s.redeemer, s.token.ID())
		s.True(derrors.HasCode(err, derrors.CodeInvalidState))
	})

	s.Run("full holder may request", func() {
		s.Require().NoError(s.token.Transfer(s.ctx, s.issuer, s.redeemer, 400))
		rec, err := s.service.RequestRedemption(s.ctx, s.redeemer, s.token.ID())
		s.Require().NoError(err)
		s.Equal(models.StatusRequested, rec.Status)
		s.Equal(uint64(1000), rec.TotalShares)
		s.Equal(s.asset, rec.Asset)
		s.Equal(s.issuer, rec.Issuer)
	})

	s.Run("second concurrent redemption rejected", func() {
		_, err := s.service.RequestRedemption(s.ctx, s.redeemer, s.token.ID())
		s.True(derrors.HasCode(err, derrors.CodeConflict))
	})
}

func (s *RedemptionSuite) TestHappyPath() {
	rec := s.request(1000)

	s.Require().NoError(s.service.LockShares(s.ctx, s.redeemer, rec.ID))
	s.Equal(models.StatusSharesLocked, s.status(rec.ID))
	issuerBalance, err := s.token.BalanceOf(s.ctx, s.issuer)
	s.Require().NoError(err)
	s.Equal(uint64(1000), issuerBalance)

	s.Require().NoError(s.service.BurnShares(s.ctx, s.issuer, rec.ID))
	s.Equal(models.StatusSharesBurned, s.status(rec.ID))
	supply, err := s.token.TotalSupply(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), supply)

	s.Require().NoError(s.service.CompleteRedemption(s.ctx, s.issuer, rec.ID))
	final, err := s.service.Redemption(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, final.Status)
	s.False(final.CompletedAt.IsZero())

	owner, err := s.assets.OwnerOf(s.ctx, s.asset)
	s.Require().NoError(err)
	s.Equal(s.redeemer, owner)
}

func (s *RedemptionSuite) TestLockShares() {
	rec := s.request(1000)

	s.Run("only the redeemer locks", func() {
		err := s.service.LockShares(s.ctx, s.issuer, rec.ID)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("frozen position cannot lock", func() {
		s.Require().NoError(s.token.FreezePartialTokens(s.ctx, s.issuer, s.redeemer, 10))
		err := s.service.LockShares(s.ctx, s.redeemer, rec.ID)
		s.True(derrors.HasCode(err, derrors.CodeFrozen))
		s.Require().NoError(s.token.UnfreezePartialTokens(s.ctx, s.issuer, s.redeemer, 10))
	})

	s.Run("changed position aborts the lock", func() {
		// Enforcement moves one share away between request and lock.
		third := s.newWallet()
		s.Require().NoError(s.token.ForcedTransfer(s.ctx, s.issuer, s.redeemer, third, 1))

		err := s.service.LockShares(s.ctx, s.redeemer, rec.ID)
		s.True(derrors.HasCode(err, derrors.CodeInvalidState))

		s.Require().NoError(s.token.ForcedTransfer(s.ctx, s.issuer, third, s.redeemer, 1))
		s.Require().NoError(s.service.LockShares(s.ctx, s.redeemer, rec.ID))
	})

	s.Run("double lock rejected", func() {
		err := s.service.LockShares(s.ctx, s.redeemer, rec.ID)
		s.True(derrors.HasCode(err, derrors.CodeInvalidState))
	})
}

func (s *RedemptionSuite) TestSupplyChangeDetection() {
	rec := s.request(1000)
	// New issuance after the request invalidates the recorded share count.
	s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.redeemer, 50))

	err := s.service.LockShares(s.ctx, s.redeemer, rec.ID)
	s.True(derrors.HasCode(err, derrors.CodeInvariant))
}

func (s *RedemptionSuite) TestBurnAndComplete() {
	rec := s.request(1000)
	s.Require().NoError(s.service.LockShares(s.ctx, s.redeemer, rec.ID))

	s.Run("only the issuer burns", func() {
		err := s.service.BurnShares(s.ctx, s.redeemer, rec.ID)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("complete before burn rejected", func() {
		err := s.service.CompleteRedemption(s.ctx, s.issuer, rec.ID)
		s.True(derrors.HasCode(err, derrors.CodeInvalidState))
	})

	s.Run("unverified redeemer blocks completion", func() {
		s.Require().NoError(s.service.BurnShares(s.ctx, s.issuer, rec.ID))
		s.registry.unverified[s.redeemer] = true
		err := s.service.CompleteRedemption(s.ctx, s.issuer, rec.ID)
		s.True(derrors.HasCode(err, derrors.CodeNotVerified))

		s.registry.unverified[s.redeemer] = false
		s.Require().NoError(s.service.CompleteRedemption(s.ctx, s.issuer, rec.ID))
	})
}

func (s *RedemptionSuite) TestCancel() {
	rec := s.request(1000)

	s.Run("cancel from requested frees the slot", func() {
		s.Require().NoError(s.service.CancelRedemption(s.ctx, s.redeemer, rec.ID))
		s.Equal(models.StatusCancelled, s.status(rec.ID))
	})

	again, err := s.service.RequestRedemption(s.ctx, s.redeemer, s.token.ID())
	s.Require().NoError(err)

	s.Run("cancel after lock returns the shares", func() {
		s.Require().NoError(s.service.LockShares(s.ctx, s.redeemer, again.ID))
		s.Require().NoError(s.service.CancelRedemption(s.ctx, s.redeemer, again.ID))

		balance, err := s.token.BalanceOf(s.ctx, s.redeemer)
		s.Require().NoError(err)
		s.Equal(uint64(1000), balance)
	})

	third, err := s.service.RequestRedemption(s.ctx, s.redeemer, s.token.ID())
	s.Require().NoError(err)

	s.Run("only the redeemer cancels", func() {
		err := s.service.CancelRedemption(s.ctx, s.issuer, third.ID)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("burn is the point of no return", func() {
		s.Require().NoError(s.service.LockShares(s.ctx, s.redeemer, third.ID))
		s.Require().NoError(s.service.BurnShares(s.ctx, s.issuer, third.ID))
		err := s.service.CancelRedemption(s.ctx, s.redeemer, third.ID)
		s.True(derrors.HasCode(err, derrors.CodeInvalidState))
	})
}

func (s *RedemptionSuite) auditCount(action audit.Action) int {
	events, err := s.auditLog.ListByToken(s.ctx, s.token.ID())
	s.Require().NoError(err)
	n := 0
	for _, event := range events {
		if event.Action == action {
			n++
		}
	}
	return n
}

func (s *RedemptionSuite) TestAuditRecordsCommittedChangesOnly() {
	s.Run("rejected registration leaves a single event", func() {
		s.Require().NoError(s.service.RegisterAsset(s.ctx, s.issuer, s.token.ID(), s.asset))

		other, err := s.assets.Mint(s.ctx, s.issuer, nil)
		s.Require().NoError(err)
		err = s.service.RegisterAsset(s.ctx, s.issuer, s.token.ID(), other)
		s.Require().True(derrors.HasCode(err, derrors.CodeConflict))

		s.Equal(1, s.auditCount(audit.ActionAssetRegistered))
	})

	s.Run("failed lock leaves no lock event", func() {
		s.Require().NoError(s.token.Mint(s.ctx, s.issuer, s.redeemer, 1000))
		rec, err := s.service.RequestRedemption(s.ctx, s.redeemer, s.token.ID())
		s.Require().NoError(err)

		s.registry.unverified[s.issuer] = true
		s.Require().Error(s.service.LockShares(s.ctx, s.redeemer, rec.ID))
		s.Equal(0, s.auditCount(audit.ActionSharesLocked))
		s.Equal(models.StatusRequested, s.status(rec.ID))

		balance, err := s.token.BalanceOf(s.ctx, s.redeemer)
		s.Require().NoError(err)
		s.Equal(uint64(1000), balance)

		s.registry.unverified[s.issuer] = false
		s.Require().NoError(s.service.LockShares(s.ctx, s.redeemer, rec.ID))
		s.Equal(1, s.auditCount(audit.ActionSharesLocked))
	})
}
