// File: github.com/Ftotnem/ECONOMY-SERVICES/shared/service/gameclient.go
package service

import (
	"context"

	"github.com/Ftotnem/ECONOMY-SERVICES/shared/api"
)

// GameServiceClient is a client for the Game Service scoreboard endpoints.
type GameServiceClient struct {
	apiClient *api.Client
}

// NewGameClient creates a new Game Service client.
func NewGameClient(baseURL string) *GameServiceClient {
	// Pass the default HTTP client for inter-service communication
	return &GameServiceClient{
		apiClient: api.NewClient(baseURL, api.NewDefaultHTTPClient()),
	}
}

// TeamScoreboardRequest represents the payload for scoreboard registration.
type TeamScoreboardRequest struct {
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name,omitempty"`
}

// RegisterTeam sends a POST request to the /game/scoreboard/teams endpoint so
// the game servers start tracking the new team.
func (c *GameServiceClient) RegisterTeam(ctx context.Context, teamID, teamName string) error {
	reqData := TeamScoreboardRequest{
		TeamID:   teamID,
		TeamName: teamName,
	}
	// No response body is expected, so result is nil.
	return c.apiClient.Post(ctx, "/game/scoreboard/teams", reqData, nil)
}

// UnregisterTeam sends a DELETE request removing a team from the scoreboard.
// Used both when a team disbands and as compensating cleanup when a creation
// side-effect partially succeeded.
func (c *GameServiceClient) UnregisterTeam(ctx context.Context, teamID string) error {
	return c.apiClient.Delete(ctx, "/game/scoreboard/teams/"+teamID)
}
