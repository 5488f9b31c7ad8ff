// Package audit is the append-only trail every state-mutating operation
// writes to. The trail is a functional requirement: off-chain reconstruction
// of ledger history depends on it, so the Recorder is fail-closed: if the
// event cannot be persisted, the mutating operation must not report success.
package audit

import (
	"time"

	"aurum/pkg/domain"
)

// Action names one audited operation. The set below is the source of truth;
// emitting an unknown action is a programming error the Recorder rejects.
type Action string

const (
	ActionIdentityDeployed  Action = "identity_deployed"
	ActionKeyAdded          Action = "key_added"
	ActionKeyRemoved        Action = "key_removed"
	ActionClaimAdded        Action = "claim_added"
	ActionClaimRevoked      Action = "claim_revoked"
	ActionClaimRemoved      Action = "claim_removed"
	ActionTopicAdded        Action = "claim_topic_added"
	ActionTopicRemoved      Action = "claim_topic_removed"
	ActionIssuerAdded       Action = "trusted_issuer_added"
	ActionIssuerRemoved     Action = "trusted_issuer_removed"
	ActionIssuerUpdated     Action = "trusted_issuer_updated"
	ActionWalletRegistered  Action = "wallet_registered"
	ActionWalletRemoved     Action = "wallet_removed"
	ActionCountryUpdated    Action = "country_updated"
	ActionIdentityUpdated   Action = "identity_updated"
	ActionModuleAdded       Action = "compliance_module_added"
	ActionModuleRemoved     Action = "compliance_module_removed"
	ActionComplianceBound   Action = "compliance_bound"
	ActionTransfer          Action = "transfer_executed"
	ActionForcedTransfer    Action = "forced_transfer_executed"
	ActionApproval          Action = "approval_set"
	ActionMint              Action = "tokens_minted"
	ActionBurn              Action = "tokens_burned"
	ActionAddressFrozen     Action = "address_frozen"
	ActionAddressUnfrozen   Action = "address_unfrozen"
	ActionTokensFrozen      Action = "tokens_frozen"
	ActionTokensUnfrozen    Action = "tokens_unfrozen"
	ActionPaused            Action = "token_paused"
	ActionUnpaused          Action = "token_unpaused"
	ActionAgentAdded        Action = "agent_added"
	ActionAgentRemoved      Action = "agent_removed"
	ActionAssetRegistered   Action = "asset_registered"
	ActionAssetTransferred  Action = "asset_transferred"
	ActionRedemptionRequest Action = "redemption_requested"
	ActionSharesLocked      Action = "shares_locked"
	ActionSharesBurned      Action = "shares_burned"
	ActionRedemptionDone    Action = "redemption_completed"
	ActionRedemptionCancel  Action = "redemption_cancelled"
	ActionDividendDeclared  Action = "dividend_declared"
	ActionDividendClaimed   Action = "dividend_claimed"
	ActionSnapshotTaken     Action = "snapshot_taken"
)

var knownActions = map[Action]struct{}{
	ActionIdentityDeployed: {}, ActionKeyAdded: {}, ActionKeyRemoved: {},
	ActionClaimAdded: {}, ActionClaimRevoked: {}, ActionClaimRemoved: {},
	ActionTopicAdded: {}, ActionTopicRemoved: {},
	ActionIssuerAdded: {}, ActionIssuerRemoved: {}, ActionIssuerUpdated: {},
	ActionWalletRegistered: {}, ActionWalletRemoved: {}, ActionCountryUpdated: {},
	ActionIdentityUpdated: {},
	ActionModuleAdded:     {}, ActionModuleRemoved: {}, ActionComplianceBound: {},
	ActionTransfer: {}, ActionForcedTransfer: {}, ActionApproval: {},
	ActionMint: {}, ActionBurn: {},
	ActionAddressFrozen: {}, ActionAddressUnfrozen: {},
	ActionTokensFrozen: {}, ActionTokensUnfrozen: {},
	ActionPaused: {}, ActionUnpaused: {},
	ActionAgentAdded: {}, ActionAgentRemoved: {},
	ActionAssetRegistered: {}, ActionAssetTransferred: {},
	ActionRedemptionRequest: {}, ActionSharesLocked: {}, ActionSharesBurned: {},
	ActionRedemptionDone: {}, ActionRedemptionCancel: {},
	ActionDividendDeclared: {}, ActionDividendClaimed: {}, ActionSnapshotTaken: {},
}

// Known reports whether a is part of the audited action set.
func (a Action) Known() bool {
	_, ok := knownActions[a]
	return ok
}

// Event is one audit record. Keep it transport-agnostic so stores and the
// outbox publisher can fan out without re-shaping.
type Event struct {
	ID        string
	Timestamp time.Time
	Action    Action

	// Token scopes the event to one instrument; zero for registry-level events.
	Token domain.TokenID

	// Actor is the address that invoked the operation.
	Actor domain.Address

	// From/To/Amount describe balance movements where applicable.
	From   domain.Address
	To     domain.Address
	Amount uint64

	// Subject carries the non-movement target (wallet, issuer, module name,
	// claim id) as a string.
	Subject string

	// Reason records the denial or invariant detail on enforcement actions.
	Reason string

	RequestID string
}
