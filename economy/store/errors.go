// economy/store/errors.go
package store

import "errors"

// Business-rule errors surfaced by the ledger stores. The API layer matches
// them with errors.Is and turns them into structured responses; none of them
// ever leaves a partial state behind.
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrSelfTransfer       = errors.New("cannot transfer coins to yourself")
	ErrSelfTrade          = errors.New("cannot buy from your own stall")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientStock  = errors.New("not enough items in stock")
	ErrListingNotFound    = errors.New("item is not listed for sale")
	ErrInvalidTeamName    = errors.New("team name contains no usable characters")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamExists         = errors.New("a team with this name already exists")
	ErrTeamFull           = errors.New("team is at its member limit")
	ErrNotMember          = errors.New("player is not a member of this team")
	ErrAlreadyInTeam      = errors.New("player already belongs to a team")
	ErrAlreadyMember      = errors.New("player is already a member of this team")
	ErrNoInvite           = errors.New("no valid invite for this team")
	ErrInviteOutstanding  = errors.New("team already has an outstanding invite")
	ErrNoPermission       = errors.New("player lacks the required team role")
	ErrLeaderMustTransfer = errors.New("leader must transfer leadership before leaving")
	ErrArchiveUnavailable = errors.New("transaction archive is not configured")
)
