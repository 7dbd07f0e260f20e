package ledger_test

import (
	"errors"
	"testing"

	"github.com/rschio/walletledger/internal/core/ledger"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"canonical", "d0630000-5d0f-0015-2872-08da3058ad5a", "d0630000-5d0f-0015-2872-08da3058ad5a", nil},
		{"upper case", "D0630000-5D0F-0015-2872-08DA3058AD5A", "d0630000-5d0f-0015-2872-08da3058ad5a", nil},
		{"surrounding spaces", " d0630000-5d0f-0015-2872-08da3058ad5a ", "d0630000-5d0f-0015-2872-08da3058ad5a", nil},
		{"braces", "{d0630000-5d0f-0015-2872-08da3058ad5a}", "", ledger.ErrMalformedIdentifier},
		{"urn", "urn:uuid:d0630000-5d0f-0015-2872-08da3058ad5a", "", ledger.ErrMalformedIdentifier},
		{"no hyphens", "d06300005d0f0015287208da3058ad5a", "", ledger.ErrMalformedIdentifier},
		{"misplaced hyphens", "d063000-05d0f-0015-2872-08da3058ad5a", "", ledger.ErrMalformedIdentifier},
		{"not a guid", "NOT-GUID-VALUE-ID", "", ledger.ErrMalformedIdentifier},
		{"empty", "", "", ledger.ErrMalformedIdentifier},
		{"too short", "d0630000-5d0f-0015-2872", "", ledger.ErrMalformedIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.ParseID(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got err %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for j := 0; j < 100; j++ {
		id := ledger.NewID()
		if _, err := ledger.ParseID(id); err != nil {
			t.Fatalf("generated id %q is not a guid: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicated id %q", id)
		}
		seen[id] = true
	}
}

func TestPageValidate(t *testing.T) {
	tests := []struct {
		page ledger.Page
		ok   bool
	}{
		{ledger.DefaultPage(), true},
		{ledger.Page{Limit: 1}, true},
		{ledger.Page{Limit: 100, Offset: 500}, true},
		{ledger.Page{Limit: 0}, false},
		{ledger.Page{Limit: 101}, false},
		{ledger.Page{Limit: 10, Offset: -1}, false},
	}

	for _, tt := range tests {
		err := tt.page.Validate()
		if tt.ok && err != nil {
			t.Errorf("page %+v: unexpected error %v", tt.page, err)
		}
		if !tt.ok && !errors.Is(err, ledger.ErrInvalidPage) {
			t.Errorf("page %+v: got %v, want ErrInvalidPage", tt.page, err)
		}
	}
}
