// economy/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Ftotnem/ECONOMY-SERVICES/economy/service"
	"github.com/Ftotnem/ECONOMY-SERVICES/economy/store"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/api"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/kv"
	"github.com/Ftotnem/ECONOMY-SERVICES/shared/models"
	"github.com/gorilla/mux"
)

const handlerTimeout = 5 * time.Second

// EconomyAPIHandlers holds references to the services that handle business logic.
type EconomyAPIHandlers struct {
	AccountService *service.AccountService
	TeamService    *service.TeamService
	MarketService  *service.MarketService
}

// NewEconomyAPIHandlers is the constructor for the API handlers.
func NewEconomyAPIHandlers(as *service.AccountService, ts *service.TeamService, ms *service.MarketService) *EconomyAPIHandlers {
	return &EconomyAPIHandlers{
		AccountService: as,
		TeamService:    ts,
		MarketService:  ms,
	}
}

// --- Request/Response DTOs (Data Transfer Objects) ---

type AmountRequest struct {
	Amount      models.Coins `json:"amount"`
	Description string       `json:"description,omitempty"`
}

type TransferRequest struct {
	SenderUUID    string       `json:"sender_uuid"`
	RecipientUUID string       `json:"recipient_uuid"`
	Amount        models.Coins `json:"amount"`
}

type TransferResponse struct {
	Fee models.Coins `json:"fee"`
}

type BalanceResponse struct {
	PlayerUUID string       `json:"player_uuid"`
	Balance    models.Coins `json:"balance"`
}

type CreateTeamRequest struct {
	LeaderUUID string `json:"leader_uuid"`
	Name       string `json:"name"`
}

type PlayerRequest struct {
	UUID string `json:"uuid"`
}

type TargetRequest struct {
	ActorUUID  string `json:"actor_uuid"`
	TargetUUID string `json:"target_uuid"`
}

type SetOpenRequest struct {
	ActorUUID string `json:"actor_uuid"`
	Open      bool   `json:"open"`
}

type BankRequest struct {
	UUID   string       `json:"uuid"`
	Amount models.Coins `json:"amount"`
}

type PlayerTeamResponse struct {
	PlayerUUID string `json:"player_uuid"`
	TeamID     string `json:"team_id"`
}

type StockRequest struct {
	ItemID    string       `json:"item_id"`
	Count     uint64       `json:"count"`
	UnitPrice models.Coins `json:"unit_price"`
}

type UnlistRequest struct {
	ItemID string `json:"item_id"`
}

type BuyRequest struct {
	BuyerUUID  string `json:"buyer_uuid"`
	SellerUUID string `json:"seller_uuid"`
	ItemID     string `json:"item_id"`
	Count      uint64 `json:"count"`
}

type BuyResponse struct {
	TotalCost models.Coins `json:"total_cost"`
}

// writeLedgerError maps store and coordinator errors onto HTTP status codes.
func writeLedgerError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrInvalidAmount),
		errors.Is(err, store.ErrSelfTransfer),
		errors.Is(err, store.ErrSelfTrade),
		errors.Is(err, store.ErrInvalidTeamName):
		api.WriteBadRequest(w, err.Error())
	case errors.Is(err, store.ErrTeamNotFound),
		errors.Is(err, store.ErrListingNotFound),
		errors.Is(err, store.ErrNotMember):
		api.WriteNotFound(w, err.Error())
	case errors.Is(err, store.ErrNoPermission),
		errors.Is(err, store.ErrLeaderMustTransfer):
		api.WriteForbidden(w, err.Error())
	case errors.Is(err, store.ErrInsufficientFunds),
		errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrTeamExists),
		errors.Is(err, store.ErrTeamFull),
		errors.Is(err, store.ErrAlreadyInTeam),
		errors.Is(err, store.ErrAlreadyMember),
		errors.Is(err, store.ErrNoInvite),
		errors.Is(err, store.ErrInviteOutstanding):
		api.WriteConflict(w, err.Error())
	case errors.Is(err, kv.ErrTxConflict):
		api.WriteError(w, http.StatusServiceUnavailable, "ledger is busy, please retry")
	case errors.Is(err, store.ErrArchiveUnavailable):
		api.WriteError(w, http.StatusNotImplemented, err.Error())
	default:
		log.Printf("ERROR: %s: %v", fallback, err)
		api.WriteInternalServerError(w, fallback)
	}
}

// --- Account Handlers ---

// GetAccountHandler returns a player's balance and recent history.
// GET /accounts/{uuid}
func (eh *EconomyAPIHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]
	if uuid == "" {
		api.WriteBadRequest(w, "Player UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	account, err := eh.AccountService.GetAccount(ctx, uuid)
	if err != nil {
		writeLedgerError(w, err, "Failed to retrieve account")
		return
	}
	api.WriteJSON(w, http.StatusOK, account)
}

// GetBalanceHandler returns only a player's balance.
// GET /accounts/{uuid}/balance
func (eh *EconomyAPIHandlers) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]
	if uuid == "" {
		api.WriteBadRequest(w, "Player UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	balance, err := eh.AccountService.GetBalance(ctx, uuid)
	if err != nil {
		writeLedgerError(w, err, "Failed to retrieve balance")
		return
	}
	api.WriteJSON(w, http.StatusOK, BalanceResponse{PlayerUUID: uuid, Balance: balance})
}

// DepositHandler credits a player's account.
// POST /accounts/{uuid}/deposit
func (eh *EconomyAPIHandlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.AccountService.Deposit(ctx, uuid, req.Amount, req.Description); err != nil {
		writeLedgerError(w, err, "Failed to deposit")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GrantBonusHandler credits a gameplay bonus to a player's account.
// POST /accounts/{uuid}/bonus
func (eh *EconomyAPIHandlers) GrantBonusHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.AccountService.GrantBonus(ctx, uuid, req.Amount, req.Description); err != nil {
		writeLedgerError(w, err, "Failed to grant bonus")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WithdrawHandler debits a player's account.
// POST /accounts/{uuid}/withdraw
func (eh *EconomyAPIHandlers) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]
	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.AccountService.Withdraw(ctx, uuid, req.Amount, req.Description); err != nil {
		writeLedgerError(w, err, "Failed to withdraw")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransferHandler moves coins between two players.
// POST /transfers
func (eh *EconomyAPIHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.SenderUUID == "" || req.RecipientUUID == "" {
		api.WriteBadRequest(w, "Sender and recipient UUIDs are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	fee, err := eh.AccountService.Transfer(ctx, req.SenderUUID, req.RecipientUUID, req.Amount)
	if err != nil {
		writeLedgerError(w, err, "Failed to transfer")
		return
	}
	api.WriteJSON(w, http.StatusOK, TransferResponse{Fee: fee})
}

// GetArchivedHistoryHandler returns a player's long-term transaction history.
// GET /accounts/{uuid}/archive?limit=N
func (eh *EconomyAPIHandlers) GetArchivedHistoryHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]
	limit := int64(100)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			api.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	history, err := eh.AccountService.ArchivedHistory(ctx, uuid, limit)
	if err != nil {
		writeLedgerError(w, err, "Failed to retrieve archived history")
		return
	}
	api.WriteJSON(w, http.StatusOK, history)
}

// --- Team Handlers ---

// CreateTeamHandler creates a new team funded by the leader.
// POST /teams
func (eh *EconomyAPIHandlers) CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.LeaderUUID == "" || req.Name == "" {
		api.WriteBadRequest(w, "Leader UUID and team name are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	team, err := eh.TeamService.CreateTeam(ctx, req.LeaderUUID, req.Name)
	if err != nil {
		writeLedgerError(w, err, "Failed to create team")
		return
	}
	api.WriteJSON(w, http.StatusCreated, team)
}

// GetTeamHandler returns a team by ID.
// GET /teams/{id}
func (eh *EconomyAPIHandlers) GetTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	team, err := eh.TeamService.GetTeam(ctx, teamID)
	if err != nil {
		writeLedgerError(w, err, "Failed to retrieve team")
		return
	}
	api.WriteJSON(w, http.StatusOK, team)
}

// GetPlayerTeamHandler returns the team a player belongs to.
// GET /players/{uuid}/team
func (eh *EconomyAPIHandlers) GetPlayerTeamHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	teamID, err := eh.TeamService.GetPlayerTeam(ctx, uuid)
	if err != nil {
		writeLedgerError(w, err, "Failed to retrieve player team")
		return
	}
	if teamID == "" {
		api.WriteNotFound(w, fmt.Sprintf("Player %s does not belong to a team", uuid))
		return
	}
	api.WriteJSON(w, http.StatusOK, PlayerTeamResponse{PlayerUUID: uuid, TeamID: teamID})
}

// JoinTeamHandler adds a player to a team.
// POST /teams/{id}/join
func (eh *EconomyAPIHandlers) JoinTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]
	var req PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UUID == "" {
		api.WriteBadRequest(w, "Player UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.TeamService.Join(ctx, teamID, req.UUID); err != nil {
		writeLedgerError(w, err, "Failed to join team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InviteHandler issues a team invite.
// POST /teams/{id}/invites
func (eh *EconomyAPIHandlers) InviteHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorUUID == "" || req.TargetUUID == "" {
		api.WriteBadRequest(w, "Actor and target UUIDs are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	invite, err := eh.TeamService.InvitePlayer(ctx, teamID, req.ActorUUID, req.TargetUUID)
	if err != nil {
		writeLedgerError(w, err, "Failed to invite player")
		return
	}
	api.WriteJSON(w, http.StatusCreated, invite)
}

// LeaveTeamHandler removes a player from their team.
// POST /teams/{id}/leave
func (eh *EconomyAPIHandlers) LeaveTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]
	var req PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UUID == "" {
		api.WriteBadRequest(w, "Player UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.TeamService.Leave(ctx, teamID, req.UUID); err != nil {
		writeLedgerError(w, err, "Failed to leave team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// KickHandler removes another member from the team.
// POST /teams/{id}/kick
func (eh *EconomyAPIHandlers) KickHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorUUID == "" || req.TargetUUID == "" {
		api.WriteBadRequest(w, "Actor and target UUIDs are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.TeamService.Kick(ctx, teamID, req.ActorUUID, req.TargetUUID); err != nil {
		writeLedgerError(w, err, "Failed to kick player")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PromoteHandler elevates a member to officer.
// POST /teams/{id}/promote
func (eh *EconomyAPIHandlers) PromoteHandler(w http.ResponseWriter, r *http.Request) {
	eh.roleChange(w, r, eh.TeamService.Promote, "Failed to promote player")
}

// DemoteHandler strips a member's officer role.
// POST /teams/{id}/demote
func (eh *EconomyAPIHandlers) DemoteHandler(w http.ResponseWriter, r *http.Request) {
	eh.roleChange(w, r, eh.TeamService.Demote, "Failed to demote player")
}

// TransferLeadershipHandler hands the team to another member.
// POST /teams/{id}/transfer-leadership
func (eh *EconomyAPIHandlers) TransferLeadershipHandler(w http.ResponseWriter, r *http.Request) {
	eh.roleChange(w, r, eh.TeamService.TransferLeadership, "Failed to transfer leadership")
}

func (eh *EconomyAPIHandlers) roleChange(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, teamID, actorUUID, targetUUID string) error, fallback string) {
	teamID := mux.Vars(r)["id"]
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorUUID == "" || req.TargetUUID == "" {
		api.WriteBadRequest(w, "Actor and target UUIDs are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := op(ctx, teamID, req.ActorUUID, req.TargetUUID); err != nil {
		writeLedgerError(w, err, fallback)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetOpenHandler toggles whether a team accepts uninvited joins.
// PUT /teams/{id}/open
func (eh *EconomyAPIHandlers) SetOpenHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]
	var req SetOpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActorUUID == "" {
		api.WriteBadRequest(w, "Actor UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.TeamService.SetOpen(ctx, teamID, req.ActorUUID, req.Open); err != nil {
		writeLedgerError(w, err, "Failed to update team openness")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BankDepositHandler moves coins from a member into the team bank.
// POST /teams/{id}/bank/deposit
func (eh *EconomyAPIHandlers) BankDepositHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]
	var req BankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UUID == "" {
		api.WriteBadRequest(w, "Player UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.TeamService.DepositToBank(ctx, teamID, req.UUID, req.Amount); err != nil {
		writeLedgerError(w, err, "Failed to deposit to team bank")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BankWithdrawHandler moves coins from the team bank to a member.
// POST /teams/{id}/bank/withdraw
func (eh *EconomyAPIHandlers) BankWithdrawHandler(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]
	var req BankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UUID == "" {
		api.WriteBadRequest(w, "Player UUID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.TeamService.WithdrawFromBank(ctx, teamID, req.UUID, req.Amount); err != nil {
		writeLedgerError(w, err, "Failed to withdraw from team bank")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Market Handlers ---

// ListMarketHandler returns the aggregated market view.
// GET /market/listings
func (eh *EconomyAPIHandlers) ListMarketHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	listings, err := eh.MarketService.ListAll(ctx)
	if err != nil {
		writeLedgerError(w, err, "Failed to list market")
		return
	}
	api.WriteJSON(w, http.StatusOK, listings)
}

// GetStallHandler returns a seller's stall.
// GET /market/stalls/{uuid}
func (eh *EconomyAPIHandlers) GetStallHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	stall, err := eh.MarketService.GetStall(ctx, uuid)
	if err != nil {
		writeLedgerError(w, err, "Failed to retrieve stall")
		return
	}
	api.WriteJSON(w, http.StatusOK, stall)
}

// StockHandler lists goods for sale or restocks an existing entry.
// POST /market/stalls/{uuid}/stock
func (eh *EconomyAPIHandlers) StockHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]
	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		api.WriteBadRequest(w, "Item ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.MarketService.Stock(ctx, uuid, req.ItemID, req.Count, req.UnitPrice); err != nil {
		writeLedgerError(w, err, "Failed to stock item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlistHandler takes an item off sale.
// POST /market/stalls/{uuid}/unlist
func (eh *EconomyAPIHandlers) UnlistHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]
	var req UnlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemID == "" {
		api.WriteBadRequest(w, "Item ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if err := eh.MarketService.Unlist(ctx, uuid, req.ItemID); err != nil {
		writeLedgerError(w, err, "Failed to unlist item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BuyHandler purchases items from a seller's stall.
// POST /market/buy
func (eh *EconomyAPIHandlers) BuyHandler(w http.ResponseWriter, r *http.Request) {
	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.BuyerUUID == "" || req.SellerUUID == "" || req.ItemID == "" {
		api.WriteBadRequest(w, "Buyer, seller and item ID are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	totalCost, err := eh.MarketService.Buy(ctx, req.BuyerUUID, req.SellerUUID, req.ItemID, req.Count)
	if err != nil {
		writeLedgerError(w, err, "Failed to complete purchase")
		return
	}
	api.WriteJSON(w, http.StatusOK, BuyResponse{TotalCost: totalCost})
}

// RegisterRoutes registers all API endpoints for the Economy Service.
func (eh *EconomyAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/accounts/{uuid}", eh.GetAccountHandler).Methods("GET")
	router.HandleFunc("/accounts/{uuid}/balance", eh.GetBalanceHandler).Methods("GET")
	router.HandleFunc("/accounts/{uuid}/deposit", eh.DepositHandler).Methods("POST")
	router.HandleFunc("/accounts/{uuid}/bonus", eh.GrantBonusHandler).Methods("POST")
	router.HandleFunc("/accounts/{uuid}/withdraw", eh.WithdrawHandler).Methods("POST")
	router.HandleFunc("/accounts/{uuid}/archive", eh.GetArchivedHistoryHandler).Methods("GET")
	router.HandleFunc("/transfers", eh.TransferHandler).Methods("POST")

	router.HandleFunc("/teams", eh.CreateTeamHandler).Methods("POST")
	router.HandleFunc("/teams/{id}", eh.GetTeamHandler).Methods("GET")
	router.HandleFunc("/teams/{id}/join", eh.JoinTeamHandler).Methods("POST")
	router.HandleFunc("/teams/{id}/invites", eh.InviteHandler).Methods("POST")
	router.HandleFunc("/teams/{id}/leave", eh.LeaveTeamHandler).Methods("POST")
	router.HandleFunc("/teams/{id}/kick", eh.KickHandler).Methods("POST")
	router.HandleFunc("/teams/{id}/promote", eh.PromoteHandler).Methods("POST")
	router.HandleFunc("/teams/{id}/demote", eh.DemoteHandler).Methods("POST")
	router.HandleFunc("/teams/{id}/transfer-leadership", eh.TransferLeadershipHandler).Methods("POST")
	router.HandleFunc("/teams/{id}/open", eh.SetOpenHandler).Methods("PUT")
	router.HandleFunc("/teams/{id}/bank/deposit", eh.BankDepositHandler).Methods("POST")
	router.HandleFunc("/teams/{id}/bank/withdraw", eh.BankWithdrawHandler).Methods("POST")
	router.HandleFunc("/players/{uuid}/team", eh.GetPlayerTeamHandler).Methods("GET")

	router.HandleFunc("/market/listings", eh.ListMarketHandler).Methods("GET")
	router.HandleFunc("/market/stalls/{uuid}", eh.GetStallHandler).Methods("GET")
	router.HandleFunc("/market/stalls/{uuid}/stock", eh.StockHandler).Methods("POST")
	router.HandleFunc("/market/stalls/{uuid}/unlist", eh.UnlistHandler).Methods("POST")
	router.HandleFunc("/market/buy", eh.BuyHandler).Methods("POST")
}
