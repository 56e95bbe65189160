package models

import (
	"encoding/json"
	"testing"
)

func TestCoinsMarshalQuotedDecimal(t *testing.T) {
	// Above 2^53, where a JSON number would lose precision.
	c := Coins(9007199254740993)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"9007199254740993"` {
		t.Fatalf("marshaled = %s", data)
	}

	var back Coins
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != c {
		t.Fatalf("round trip = %d, want %d", back, c)
	}
}

func TestCoinsUnmarshalBareNumber(t *testing.T) {
	var c Coins
	if err := json.Unmarshal([]byte(`1500`), &c); err != nil {
		t.Fatalf("unmarshal bare number: %v", err)
	}
	if c != 1500 {
		t.Fatalf("c = %d, want 1500", c)
	}
}

func TestCoinsUnmarshalRejectsNegative(t *testing.T) {
	var c Coins
	if err := json.Unmarshal([]byte(`"-5"`), &c); err == nil {
		t.Fatal("expected an error for a negative amount")
	}
}

func TestCoinsUnmarshalNull(t *testing.T) {
	var c Coins = 7
	if err := json.Unmarshal([]byte(`null`), &c); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if c != 0 {
		t.Fatalf("c = %d, want 0", c)
	}
}
