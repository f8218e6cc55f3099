package domain

import "testing"

func TestNetworkIDFromEventID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    int64
		wantErr bool
	}{
		{"bsc testnet", "97_44530473_119", 97, false},
		{"mainnet", "1_123_0", 1, false},
		{"no underscore", "97", 0, true},
		{"non numeric prefix", "abc_1_2", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NetworkIDFromEventID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NetworkIDFromEventID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NetworkIDFromEventID(%q) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestAddAmount(t *testing.T) {
	got, err := AddAmount("1000000000000000000", "500")
	if err != nil {
		t.Fatalf("AddAmount failed: %v", err)
	}
	if got != "1000000000000000500" {
		t.Errorf("AddAmount = %s, want 1000000000000000500", got)
	}
}

func TestSubAmountExact(t *testing.T) {
	// 1e18 - 3e17 must be exactly 7e17, never a rounded float.
	got, err := SubAmount("1000000000000000000", "300000000000000000")
	if err != nil {
		t.Fatalf("SubAmount failed: %v", err)
	}
	if got != "700000000000000000" {
		t.Errorf("SubAmount = %s, want 700000000000000000", got)
	}
}

func TestAmountInvalid(t *testing.T) {
	if _, err := AddAmount("1.5", "1"); err == nil {
		t.Error("expected error for fractional amount")
	}
	if _, err := SubAmount("10", "abc"); err == nil {
		t.Error("expected error for non-numeric amount")
	}
}

func TestEventBatchEvents(t *testing.T) {
	batch := &EventBatch{
		NewProjects: []NewProjectEvent{
			{EventMeta: EventMeta{ID: "97_1_1", DBWriteTimestamp: "2024-10-08T02:23:05.832759"}, ProjectID: 1},
		},
		Mints: []MintEvent{
			{EventMeta: EventMeta{ID: "97_2_1", DBWriteTimestamp: "2024-10-08T02:24:00.000000"}, ProjectID: 1},
			{EventMeta: EventMeta{ID: "97_2_2", DBWriteTimestamp: "2024-10-08T02:25:00.000000"}, ProjectID: 1},
		},
	}

	if got := len(batch.Events(EventNewProject)); got != 1 {
		t.Errorf("NewProject events = %d, want 1", got)
	}
	if got := len(batch.Events(EventMint)); got != 2 {
		t.Errorf("Mint events = %d, want 2", got)
	}
	if got := batch.Events(EventCancelTask); got != nil {
		t.Errorf("CancelTask events = %v, want nil", got)
	}
	if got := batch.Total(); got != 3 {
		t.Errorf("Total = %d, want 3", got)
	}

	ev := batch.Events(EventMint)[0]
	if ev.EventID() != "97_2_1" {
		t.Errorf("EventID = %s, want 97_2_1", ev.EventID())
	}
	if ev.WriteTimestamp() != "2024-10-08T02:24:00.000000" {
		t.Errorf("WriteTimestamp = %s", ev.WriteTimestamp())
	}
}
