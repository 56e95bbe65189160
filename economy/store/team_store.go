// economy/store/team_store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/Ftotnem/ECONOMY-SERVICES/shared/kv"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
	"github.com/google/uuid"
)

// TeamConfig carries the tunables for team lifecycle operations.
type TeamConfig struct {
	CreationFee models.Coins  // debited from the leader on create
	MaxMembers  int           // member cap for new teams
	InviteTTL   time.Duration // how long an invite stays valid
}

// TeamStore manages team records, membership pointers and the team bank in
// the versioned KV store. A team lives under team:{slug}; every member also
// carries a member_team:{uuid} back-reference so "which team am I in" is one
// point read. All multi-key mutations commit atomically with version checks
// on both sides.
type TeamStore struct {
	kvStore kv.Store
	coord   *kv.Coordinator
	cfg     TeamConfig
	now     func() time.Time
}

// NewTeamStore creates a new TeamStore instance.
func NewTeamStore(kvStore kv.Store, coord *kv.Coordinator, cfg TeamConfig) *TeamStore {
	return &TeamStore{
		kvStore: kvStore,
		coord:   coord,
		cfg:     cfg,
		now:     time.Now,
	}
}

// GetTeam returns the team with expired invites filtered out.
func (ts *TeamStore) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	team, _, err := ts.readTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Invites = team.LiveInvites(ts.now())
	return team, nil
}

// GetPlayerTeam returns the id of the team the player currently belongs to,
// or "" when they are teamless.
func (ts *TeamStore) GetPlayerTeam(ctx context.Context, playerUUID string) (string, error) {
	teamID, _, err := ts.readMemberPointer(ctx, playerUUID)
	return teamID, err
}

// readMemberPointer reads a player's membership pointer together with its
// version. Teamless players report "" with the key's current counter, which
// a writer must Check so a concurrent join forces a retry.
func (ts *TeamStore) readMemberPointer(ctx context.Context, playerUUID string) (string, kv.Version, error) {
	data, ver, err := ts.kvStore.Get(ctx, memberTeamKey(playerUUID))
	if err == kv.ErrKeyNotFound {
		return "", ver, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to read team pointer for player %s: %w", playerUUID, err)
	}
	return string(data), ver, nil
}

// CreateTeam founds a new team led by leaderUUID, debiting the creation fee
// from their account. The team key, the fee debit and the leader's
// membership pointer all commit together; the check-on-absence of the team
// key is what makes concurrent creations of the same name resolve to exactly
// one winner, with the loser uncharged.
func (ts *TeamStore) CreateTeam(ctx context.Context, leaderUUID, name string) (*models.Team, error) {
	teamID := models.SlugifyTeamName(name)
	if teamID == "" {
		return nil, ErrInvalidTeamName
	}

	var created *models.Team
	err := ts.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		current, ptrVer, err := ts.readMemberPointer(ctx, leaderUUID)
		if err != nil {
			return nil, err
		}
		if current != "" {
			return nil, ErrAlreadyInTeam
		}
		_, teamVer, err := ts.kvStore.Get(ctx, teamKey(teamID))
		if err == nil {
			return nil, ErrTeamExists
		}
		if err != kv.ErrKeyNotFound {
			return nil, err
		}

		balance, balVer, err := readBalance(ctx, ts.kvStore, leaderUUID)
		if err != nil {
			return nil, err
		}
		if balance < ts.cfg.CreationFee {
			return nil, ErrInsufficientFunds
		}
		history, histVer, err := readHistory(ctx, ts.kvStore, leaderUUID)
		if err != nil {
			return nil, err
		}

		team := &models.Team{
			ID:         teamID,
			Name:       name,
			Leader:     leaderUUID,
			Members:    []string{leaderUUID},
			MaxMembers: ts.cfg.MaxMembers,
			CreatedAt:  ts.now(),
		}

		tx := ts.kvStore.Atomic()
		// The team key must still be absent at commit time; checking the
		// counter observed above covers both a fresh slug and one tombstoned
		// by an earlier disband.
		if err := ts.stageTeam(tx, team, teamVer); err != nil {
			return nil, err
		}
		if ts.cfg.CreationFee > 0 {
			stageBalance(tx, leaderUUID, balVer, balance-ts.cfg.CreationFee)
			record := ts.newTransaction(models.TxWithdraw, -int64(ts.cfg.CreationFee),
				balance-ts.cfg.CreationFee, fmt.Sprintf("Team creation fee (%s)", teamID))
			if err := stageHistory(tx, leaderUUID, histVer, history, record); err != nil {
				return nil, err
			}
		}
		tx.Check(memberTeamKey(leaderUUID), ptrVer)
		tx.Set(memberTeamKey(leaderUUID), []byte(teamID))

		created = team
		return tx, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Join adds the player to the team. Entry requires the team to be open or a
// live invite addressed to the player; a consumed invite is removed in the
// same commit as the membership change.
func (ts *TeamStore) Join(ctx context.Context, teamID, playerUUID string) error {
	return ts.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		team, teamVer, err := ts.readTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		current, ptrVer, err := ts.readMemberPointer(ctx, playerUUID)
		if err != nil {
			return nil, err
		}
		if current != "" {
			return nil, ErrAlreadyInTeam
		}
		if team.IsMember(playerUUID) {
			return nil, ErrAlreadyMember
		}
		if len(team.Members) >= team.MaxMembers {
			return nil, ErrTeamFull
		}

		now := ts.now()
		if !team.Open {
			if _, ok := team.InviteFor(playerUUID, now); !ok {
				return nil, ErrNoInvite
			}
		}

		team.Members = append(team.Members, playerUUID)
		// Drop the consumed invite along with anything expired.
		live := team.LiveInvites(now)
		team.Invites = slices.DeleteFunc(live, func(inv models.Invite) bool {
			return inv.PlayerUUID == playerUUID
		})

		tx := ts.kvStore.Atomic()
		if err := ts.stageTeam(tx, team, teamVer); err != nil {
			return nil, err
		}
		tx.Check(memberTeamKey(playerUUID), ptrVer)
		tx.Set(memberTeamKey(playerUUID), []byte(teamID))
		return tx, nil
	})
}

// InvitePlayer issues an invite for targetUUID. Only the leader or an
// officer may invite, and a team carries at most one live invite at a time;
// expired invites are discarded as part of the write.
func (ts *TeamStore) InvitePlayer(ctx context.Context, teamID, inviterUUID, targetUUID string) (*models.Invite, error) {
	var issued *models.Invite
	err := ts.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		team, teamVer, err := ts.readTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if !team.CanManage(inviterUUID) {
			return nil, ErrNoPermission
		}
		if team.IsMember(targetUUID) {
			return nil, ErrAlreadyMember
		}
		if len(team.Members) >= team.MaxMembers {
			return nil, ErrTeamFull
		}

		now := ts.now()
		if len(team.LiveInvites(now)) > 0 {
			return nil, ErrInviteOutstanding
		}

		invite := models.Invite{
			PlayerUUID: targetUUID,
			InvitedBy:  inviterUUID,
			IssuedAt:   now,
			ExpiresAt:  now.Add(ts.cfg.InviteTTL),
		}
		team.Invites = []models.Invite{invite}

		tx := ts.kvStore.Atomic()
		if err := ts.stageTeam(tx, team, teamVer); err != nil {
			return nil, err
		}
		issued = &invite
		return tx, nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// Leave removes the player from the team. The leader may not leave while
// other members remain. When the last member leaves the team is disbanded:
// the record and pointer are deleted and any remaining bank balance is paid
// out to the leaving member, all in one commit.
func (ts *TeamStore) Leave(ctx context.Context, teamID, playerUUID string) error {
	return ts.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		team, teamVer, err := ts.readTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if !team.IsMember(playerUUID) {
			return nil, ErrNotMember
		}
		if team.Leader == playerUUID && len(team.Members) > 1 {
			return nil, ErrLeaderMustTransfer
		}

		tx := ts.kvStore.Atomic()
		if len(team.Members) == 1 {
			// Last member out: disband.
			tx.Check(teamKey(teamID), teamVer)
			tx.Delete(teamKey(teamID))
			if team.Balance > 0 {
				balance, balVer, err := readBalance(ctx, ts.kvStore, playerUUID)
				if err != nil {
					return nil, err
				}
				history, histVer, err := readHistory(ctx, ts.kvStore, playerUUID)
				if err != nil {
					return nil, err
				}
				stageBalance(tx, playerUUID, balVer, balance+team.Balance)
				record := ts.newTransaction(models.TxDeposit, int64(team.Balance),
					balance+team.Balance, fmt.Sprintf("Team disband payout (%s)", teamID))
				if err := stageHistory(tx, playerUUID, histVer, history, record); err != nil {
					return nil, err
				}
			}
		} else {
			team.Members = slices.DeleteFunc(team.Members, func(m string) bool { return m == playerUUID })
			team.Officers = slices.DeleteFunc(team.Officers, func(o string) bool { return o == playerUUID })
			if err := ts.stageTeam(tx, team, teamVer); err != nil {
				return nil, err
			}
		}
		if err := ts.checkPointer(ctx, tx, playerUUID, teamID); err != nil {
			return nil, err
		}
		tx.Delete(memberTeamKey(playerUUID))
		return tx, nil
	})
}

// Kick removes targetUUID from the team. The leader may kick anyone but
// themselves; officers may only kick plain members.
func (ts *TeamStore) Kick(ctx context.Context, teamID, actorUUID, targetUUID string) error {
	return ts.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		team, teamVer, err := ts.readTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if !team.CanManage(actorUUID) {
			return nil, ErrNoPermission
		}
		if !team.IsMember(targetUUID) {
			return nil, ErrNotMember
		}
		if targetUUID == team.Leader {
			return nil, ErrNoPermission
		}
		if team.IsOfficer(targetUUID) && actorUUID != team.Leader {
			return nil, ErrNoPermission
		}

		team.Members = slices.DeleteFunc(team.Members, func(m string) bool { return m == targetUUID })
		team.Officers = slices.DeleteFunc(team.Officers, func(o string) bool { return o == targetUUID })

		tx := ts.kvStore.Atomic()
		if err := ts.stageTeam(tx, team, teamVer); err != nil {
			return nil, err
		}
		if err := ts.checkPointer(ctx, tx, targetUUID, teamID); err != nil {
			return nil, err
		}
		tx.Delete(memberTeamKey(targetUUID))
		return tx, nil
	})
}

// Promote grants the officer role to a member. Leader only.
func (ts *TeamStore) Promote(ctx context.Context, teamID, actorUUID, targetUUID string) error {
	return ts.updateRoles(ctx, teamID, actorUUID, func(team *models.Team) error {
		if !team.IsMember(targetUUID) {
			return ErrNotMember
		}
		if targetUUID == team.Leader || team.IsOfficer(targetUUID) {
			return nil // nothing to do
		}
		team.Officers = append(team.Officers, targetUUID)
		return nil
	})
}

// Demote strips the officer role from a member. Leader only.
func (ts *TeamStore) Demote(ctx context.Context, teamID, actorUUID, targetUUID string) error {
	return ts.updateRoles(ctx, teamID, actorUUID, func(team *models.Team) error {
		if !team.IsMember(targetUUID) {
			return ErrNotMember
		}
		team.Officers = slices.DeleteFunc(team.Officers, func(o string) bool { return o == targetUUID })
		return nil
	})
}

// TransferLeadership hands the leader role to another member. The old leader
// stays on as an officer so they keep management rights.
func (ts *TeamStore) TransferLeadership(ctx context.Context, teamID, actorUUID, targetUUID string) error {
	return ts.updateRoles(ctx, teamID, actorUUID, func(team *models.Team) error {
		if !team.IsMember(targetUUID) {
			return ErrNotMember
		}
		if targetUUID == team.Leader {
			return nil
		}
		oldLeader := team.Leader
		team.Leader = targetUUID
		team.Officers = slices.DeleteFunc(team.Officers, func(o string) bool { return o == targetUUID })
		if !team.IsOfficer(oldLeader) {
			team.Officers = append(team.Officers, oldLeader)
		}
		return nil
	})
}

// SetOpen toggles whether anyone may join without an invite. Leader only.
func (ts *TeamStore) SetOpen(ctx context.Context, teamID, actorUUID string, open bool) error {
	return ts.updateRoles(ctx, teamID, actorUUID, func(team *models.Team) error {
		team.Open = open
		return nil
	})
}

// DepositToBank moves coins from a member's account into the team bank.
// Both the player keys and the team key are version-checked in one commit.
func (ts *TeamStore) DepositToBank(ctx context.Context, teamID, playerUUID string, amount models.Coins) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return ts.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		team, teamVer, err := ts.readTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if !team.IsMember(playerUUID) {
			return nil, ErrNotMember
		}
		balance, balVer, err := readBalance(ctx, ts.kvStore, playerUUID)
		if err != nil {
			return nil, err
		}
		if balance < amount {
			return nil, ErrInsufficientFunds
		}
		newBank := team.Balance + amount
		if newBank < team.Balance {
			return nil, fmt.Errorf("bank overflow for team %s", teamID)
		}
		history, histVer, err := readHistory(ctx, ts.kvStore, playerUUID)
		if err != nil {
			return nil, err
		}

		team.Balance = newBank
		tx := ts.kvStore.Atomic()
		if err := ts.stageTeam(tx, team, teamVer); err != nil {
			return nil, err
		}
		stageBalance(tx, playerUUID, balVer, balance-amount)
		record := ts.newTransaction(models.TxTransfer, -int64(amount), balance-amount,
			fmt.Sprintf("Team bank deposit (%s)", teamID))
		if err := stageHistory(tx, playerUUID, histVer, history, record); err != nil {
			return nil, err
		}
		return tx, nil
	})
}

// WithdrawFromBank moves coins from the team bank into the actor's account.
// Restricted to the leader and officers; the bank balance requirement is
// re-validated at commit time via the team key's version check.
func (ts *TeamStore) WithdrawFromBank(ctx context.Context, teamID, playerUUID string, amount models.Coins) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return ts.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		team, teamVer, err := ts.readTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if !team.CanManage(playerUUID) {
			return nil, ErrNoPermission
		}
		if team.Balance < amount {
			return nil, ErrInsufficientFunds
		}
		balance, balVer, err := readBalance(ctx, ts.kvStore, playerUUID)
		if err != nil {
			return nil, err
		}
		newBalance := balance + amount
		if newBalance < balance {
			return nil, fmt.Errorf("balance overflow for player %s", playerUUID)
		}
		history, histVer, err := readHistory(ctx, ts.kvStore, playerUUID)
		if err != nil {
			return nil, err
		}

		team.Balance -= amount
		tx := ts.kvStore.Atomic()
		if err := ts.stageTeam(tx, team, teamVer); err != nil {
			return nil, err
		}
		stageBalance(tx, playerUUID, balVer, newBalance)
		record := ts.newTransaction(models.TxTransfer, int64(amount), newBalance,
			fmt.Sprintf("Team bank withdrawal (%s)", teamID))
		if err := stageHistory(tx, playerUUID, histVer, history, record); err != nil {
			return nil, err
		}
		return tx, nil
	})
}

// updateRoles is the shared read-mutate-commit cycle for leader-only record
// edits (roles, openness).
func (ts *TeamStore) updateRoles(ctx context.Context, teamID, actorUUID string, mutate func(team *models.Team) error) error {
	return ts.coord.Execute(ctx, func(ctx context.Context) (kv.Tx, error) {
		team, teamVer, err := ts.readTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		if team.Leader != actorUUID {
			return nil, ErrNoPermission
		}
		if err := mutate(team); err != nil {
			return nil, err
		}
		tx := ts.kvStore.Atomic()
		if err := ts.stageTeam(tx, team, teamVer); err != nil {
			return nil, err
		}
		return tx, nil
	})
}

// readTeam loads and decodes a team record.
func (ts *TeamStore) readTeam(ctx context.Context, teamID string) (*models.Team, kv.Version, error) {
	data, ver, err := ts.kvStore.Get(ctx, teamKey(teamID))
	if err == kv.ErrKeyNotFound {
		return nil, 0, ErrTeamNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read team %s: %w", teamID, err)
	}
	var team models.Team
	if err := json.Unmarshal(data, &team); err != nil {
		return nil, 0, fmt.Errorf("malformed team record %s: %w", teamID, err)
	}
	return &team, ver, nil
}

// stageTeam adds the check-and-set for the team record to the transaction.
func (ts *TeamStore) stageTeam(tx kv.Tx, team *models.Team, ver kv.Version) error {
	data, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("failed to marshal team %s: %w", team.ID, err)
	}
	tx.Check(teamKey(team.ID), ver)
	tx.Set(teamKey(team.ID), data)
	return nil
}

// checkPointer adds a version check on a player's membership pointer so a
// concurrent join/leave forces a retry instead of clobbering it. The pointer
// must currently reference teamID.
func (ts *TeamStore) checkPointer(ctx context.Context, tx kv.Tx, playerUUID, teamID string) error {
	data, ver, err := ts.kvStore.Get(ctx, memberTeamKey(playerUUID))
	if err == kv.ErrKeyNotFound {
		// Membership without a pointer should not happen; pin the absent
		// key at its current counter so a racing join still conflicts.
		tx.Check(memberTeamKey(playerUUID), ver)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read team pointer for player %s: %w", playerUUID, err)
	}
	if string(data) != teamID {
		return fmt.Errorf("team pointer for player %s references %s, expected %s", playerUUID, data, teamID)
	}
	tx.Check(memberTeamKey(playerUUID), ver)
	return nil
}

func (ts *TeamStore) newTransaction(kind models.TransactionKind, amount int64, resulting models.Coins, description string) models.Transaction {
	return models.Transaction{
		ID:               uuid.NewString(),
		Timestamp:        ts.now(),
		Kind:             kind,
		Amount:           amount,
		ResultingBalance: resulting,
		Description:      description,
	}
}
