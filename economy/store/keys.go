// economy/store/keys.go
package store

import "fmt"

const (
	// Key formats for economy data. The braces are Redis hash tags so all
	// keys of one player land on one slot.
	BalanceKeyPrefix    = "balance:{%s}:"     // authoritative coin balance: balance:{uuid}
	LedgerKeyPrefix     = "ledger:{%s}:"      // bounded transaction history: ledger:{uuid}
	TeamKeyPrefix       = "team:{%s}:"        // team record: team:{slug}
	MemberTeamKeyPrefix = "member_team:{%s}:" // player -> current team id back-reference
	StallKeyPrefix      = "stall:{%s}:"       // per-seller market stall: stall:{uuid}

	// Scan prefixes, for iterating all keys of one kind.
	LedgerScanPrefix = "ledger:{"
	StallScanPrefix  = "stall:{"
	TeamScanPrefix   = "team:{"
)

func balanceKey(playerUUID string) string {
	return fmt.Sprintf(BalanceKeyPrefix, playerUUID)
}

func ledgerKey(playerUUID string) string {
	return fmt.Sprintf(LedgerKeyPrefix, playerUUID)
}

func teamKey(teamID string) string {
	return fmt.Sprintf(TeamKeyPrefix, teamID)
}

func memberTeamKey(playerUUID string) string {
	return fmt.Sprintf(MemberTeamKeyPrefix, playerUUID)
}

func stallKey(sellerUUID string) string {
	return fmt.Sprintf(StallKeyPrefix, sellerUUID)
}

// ExtractKeyID pulls the hash-tagged id out of a key produced by the formats
// above (e.g., "ledger:{uuid}:" -> "uuid"). Returns "" for malformed keys.
func ExtractKeyID(key string) string {
	start := -1
	for i, r := range key {
		if r == '{' {
			start = i + 1
		} else if r == '}' && start != -1 {
			return key[start:i]
		}
	}
	return ""
}
