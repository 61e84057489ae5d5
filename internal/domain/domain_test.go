package domain

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    civil.Date
		wantErr bool
	}{
		{name: "valid", input: "2024-11-02", want: civil.Date{Year: 2024, Month: 11, Day: 2}},
		{name: "leap day", input: "2024-02-29", want: civil.Date{Year: 2024, Month: 2, Day: 29}},
		{name: "us slash form", input: "11/02/2024", wantErr: true},
		{name: "two digit year", input: "24-11-02", wantErr: true},
		{name: "month name", input: "Nov 2, 2024", wantErr: true},
		{name: "trailing time", input: "2024-11-02T00:00:00Z", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "impossible day", input: "2023-02-29", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDateFormat) {
					t.Fatalf("ParseDate(%q) error = %v, want ErrInvalidDateFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !ValidCategory(c) {
			t.Errorf("ValidCategory(%q) = false, want true", c)
		}
	}
	if !ValidCategory("") {
		t.Error("ValidCategory(\"\") = false, want true for uncategorized")
	}
	if ValidCategory("gambling") {
		t.Error("ValidCategory(\"gambling\") = true, want false")
	}
	if ValidCategory("Groceries") {
		t.Error("ValidCategory is case sensitive; callers normalize first")
	}
}

func TestValidAccountType(t *testing.T) {
	if !ValidAccountType("checking/savings") || !ValidAccountType("credit/debit") {
		t.Error("known account types rejected")
	}
	if ValidAccountType("checking") || ValidAccountType("") {
		t.Error("unknown account types accepted")
	}
}

func TestTransactionKey(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 11, Day: 2}
	a := Transaction{ID: 1, AccountID: 7, Date: date, Description: "COFFEE", Category: "restaurant", Amount: -4.50, Comment: "with client"}
	b := Transaction{ID: 2, AccountID: 7, Date: date, Description: "COFFEE", Category: "restaurant", Amount: -4.50}

	// Identity fields and the comment are not part of the key.
	if a.Key() != b.Key() {
		t.Error("records differing only in id and comment must share a key")
	}

	c := b
	c.Category = ""
	if a.Key() == c.Key() {
		t.Error("category is part of the key")
	}
}

func TestLatestSnapshot(t *testing.T) {
	if got := LatestSnapshot(nil); got != nil {
		t.Errorf("LatestSnapshot(nil) = %+v, want nil", got)
	}

	oct := &BalanceSnapshot{ID: 1, StatementDate: civil.Date{Year: 2024, Month: 10, Day: 31}}
	nov := &BalanceSnapshot{ID: 2, StatementDate: civil.Date{Year: 2024, Month: 11, Day: 30}}
	sep := &BalanceSnapshot{ID: 3, StatementDate: civil.Date{Year: 2024, Month: 9, Day: 30}}

	// Insertion order does not matter; the September snapshot has the
	// highest id but the oldest statement date.
	if got := LatestSnapshot([]*BalanceSnapshot{oct, nov, sep}); got != nov {
		t.Errorf("LatestSnapshot() = %+v, want the November snapshot", got)
	}
}
