// economy/service/team_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Ftotnem/ECONOMY-SERVICES/economy/store"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/service"
)

// sideEffectTimeout bounds post-commit calls to the game service so a slow
// scoreboard endpoint cannot hold up the API response.
const sideEffectTimeout = 5 * time.Second

// TeamService encapsulates team lifecycle logic. Ledger mutations are atomic
// in the store layer; this layer adds the game-service scoreboard side
// effects, which are strictly post-commit. A committed ledger change is never
// rolled back because a downstream notification failed.
type TeamService struct {
	teamStore  *store.TeamStore
	gameClient *service.GameServiceClient
}

// NewTeamService creates a new TeamService instance. gameClient may be nil,
// in which case scoreboard notifications are skipped.
func NewTeamService(ts *store.TeamStore, gc *service.GameServiceClient) *TeamService {
	return &TeamService{
		teamStore:  ts,
		gameClient: gc,
	}
}

// GetTeam returns a team by ID with expired invites filtered out.
func (s *TeamService) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	return s.teamStore.GetTeam(ctx, teamID)
}

// GetPlayerTeam returns the ID of the team the player belongs to, or ""
// when they are teamless.
func (s *TeamService) GetPlayerTeam(ctx context.Context, playerUUID string) (string, error) {
	return s.teamStore.GetPlayerTeam(ctx, playerUUID)
}

// CreateTeam creates a team funded by the leader's balance, then registers it
// on the game scoreboard. Registration failure leaves the team fully usable;
// the archiver's reconciliation pass re-registers missing teams.
func (s *TeamService) CreateTeam(ctx context.Context, leaderUUID, name string) (*models.Team, error) {
	team, err := s.teamStore.CreateTeam(ctx, leaderUUID, name)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Player %s created team %s (%s)", leaderUUID, team.Name, team.ID)

	s.notifyTeamRegistered(team.ID, team.Name)
	return team, nil
}

// Join adds a player to a team if it is open or they hold a live invite.
func (s *TeamService) Join(ctx context.Context, teamID, playerUUID string) error {
	if err := s.teamStore.Join(ctx, teamID, playerUUID); err != nil {
		return err
	}
	log.Printf("INFO: Player %s joined team %s", playerUUID, teamID)
	return nil
}

// InvitePlayer issues an invite on behalf of a leader or officer.
func (s *TeamService) InvitePlayer(ctx context.Context, teamID, inviterUUID, targetUUID string) (*models.Invite, error) {
	invite, err := s.teamStore.InvitePlayer(ctx, teamID, inviterUUID, targetUUID)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Player %s invited %s to team %s (expires %s)", inviterUUID, targetUUID, teamID, invite.ExpiresAt.Format(time.RFC3339))
	return invite, nil
}

// Leave removes the player from the team. When the last member leaves, the
// team disbands, the bank pays out to the leaver, and the scoreboard entry is
// removed.
func (s *TeamService) Leave(ctx context.Context, teamID, playerUUID string) error {
	if err := s.teamStore.Leave(ctx, teamID, playerUUID); err != nil {
		return err
	}
	log.Printf("INFO: Player %s left team %s", playerUUID, teamID)

	// If the team no longer exists the departure disbanded it.
	if _, err := s.teamStore.GetTeam(ctx, teamID); errors.Is(err, store.ErrTeamNotFound) {
		log.Printf("INFO: Team %s disbanded", teamID)
		s.notifyTeamUnregistered(teamID)
	}
	return nil
}

// Kick removes another member from the team.
func (s *TeamService) Kick(ctx context.Context, teamID, actorUUID, targetUUID string) error {
	if err := s.teamStore.Kick(ctx, teamID, actorUUID, targetUUID); err != nil {
		return err
	}
	log.Printf("INFO: Player %s kicked %s from team %s", actorUUID, targetUUID, teamID)
	return nil
}

// Promote elevates a member to officer. Leader only.
func (s *TeamService) Promote(ctx context.Context, teamID, actorUUID, targetUUID string) error {
	return s.teamStore.Promote(ctx, teamID, actorUUID, targetUUID)
}

// Demote strips a member's officer role. Leader only.
func (s *TeamService) Demote(ctx context.Context, teamID, actorUUID, targetUUID string) error {
	return s.teamStore.Demote(ctx, teamID, actorUUID, targetUUID)
}

// TransferLeadership hands the team to another member. The old leader stays
// on as an officer.
func (s *TeamService) TransferLeadership(ctx context.Context, teamID, actorUUID, targetUUID string) error {
	if err := s.teamStore.TransferLeadership(ctx, teamID, actorUUID, targetUUID); err != nil {
		return err
	}
	log.Printf("INFO: Team %s leadership transferred from %s to %s", teamID, actorUUID, targetUUID)
	return nil
}

// SetOpen toggles whether the team accepts uninvited joins. Leader only.
func (s *TeamService) SetOpen(ctx context.Context, teamID, actorUUID string, open bool) error {
	return s.teamStore.SetOpen(ctx, teamID, actorUUID, open)
}

// DepositToBank moves coins from a member's balance into the team bank.
func (s *TeamService) DepositToBank(ctx context.Context, teamID, playerUUID string, amount models.Coins) error {
	if err := s.teamStore.DepositToBank(ctx, teamID, playerUUID, amount); err != nil {
		return err
	}
	log.Printf("INFO: Player %s deposited %s coins into team %s bank", playerUUID, amount, teamID)
	return nil
}

// WithdrawFromBank moves coins from the team bank into a member's balance.
// Store-level permission checks apply.
func (s *TeamService) WithdrawFromBank(ctx context.Context, teamID, playerUUID string, amount models.Coins) error {
	if err := s.teamStore.WithdrawFromBank(ctx, teamID, playerUUID, amount); err != nil {
		return err
	}
	log.Printf("INFO: Player %s withdrew %s coins from team %s bank", playerUUID, amount, teamID)
	return nil
}

// notifyTeamRegistered tells the game service about a new team. Best effort:
// on failure the registration is compensated with a removal so the scoreboard
// is not left half-written, and the archiver's reconciliation pass registers
// the team on a later cycle.
func (s *TeamService) notifyTeamRegistered(teamID, teamName string) {
	if s.gameClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := s.gameClient.RegisterTeam(ctx, teamID, teamName); err != nil {
		log.Printf("WARN: Failed to register team %s on game scoreboard: %v", teamID, err)
		if cleanupErr := s.gameClient.UnregisterTeam(ctx, teamID); cleanupErr != nil {
			log.Printf("WARN: Failed to clean up scoreboard entry for team %s: %v", teamID, cleanupErr)
		}
	}
}

// notifyTeamUnregistered removes a disbanded team from the scoreboard. Best effort.
func (s *TeamService) notifyTeamUnregistered(teamID string) {
	if s.gameClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := s.gameClient.UnregisterTeam(ctx, teamID); err != nil {
		log.Printf("WARN: Failed to unregister team %s from game scoreboard: %v", teamID, err)
	}
}
