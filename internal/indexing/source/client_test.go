package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
)

func TestBuildQuery(t *testing.T) {
	marks := map[domain.EventType]string{
		domain.EventNewProject: "2025-01-01T00:00:00.000000",
	}
	query := BuildQuery(marks)

	for _, et := range domain.EventTypes {
		if !strings.Contains(query, string(et)+"(") {
			t.Errorf("query missing selection for %s", et)
		}
	}
	if !strings.Contains(query, `_gt: "2025-01-01T00:00:00.000000"`) {
		t.Error("query missing watermark filter for ProjectV1_NewProject")
	}
	// Streams without an explicit watermark fall back to the default.
	if !strings.Contains(query, domain.DefaultWatermark) {
		t.Error("query missing default watermark")
	}
	if !strings.Contains(query, "limit: 59") {
		t.Error("query missing collateral page limit")
	}
	if !strings.Contains(query, "limit: 50") {
		t.Error("query missing default page limit")
	}
	if !strings.Contains(query, "order_by: {db_write_timestamp: asc}") {
		t.Error("query missing ascending order")
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if !strings.Contains(req.Query, "ProjectV1_NewProject") {
			t.Error("request query missing ProjectV1_NewProject selection")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {
			"ProjectV1_NewProject": [
				{"id": "97_0x01_1", "db_write_timestamp": "2025-02-01T10:00:00.000000",
				 "projectId": 1, "project_0": true, "project_1": "ara",
				 "project_5": "1000000000000000000", "project_6": 86400, "project_9": 1738000000}
			],
			"TreasuryV1_Mint": [
				{"id": "97_0x02_1", "db_write_timestamp": "2025-02-01T10:00:01.000000",
				 "projectId_": 1, "collateralAmount": "5", "ownershipAmount": "10",
				 "usdAmount": "5", "collateral": "0x0", "ownershipToken": "0xabc", "to": "0xdef"}
			]
		}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL})
	defer client.Close()

	batch, err := client.Fetch(context.Background(), map[domain.EventType]string{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(batch.NewProjects) != 1 {
		t.Fatalf("expected 1 new project event, got %d", len(batch.NewProjects))
	}
	np := batch.NewProjects[0]
	if np.ProjectID != 1 || np.Name != "ara" || !np.Active {
		t.Errorf("unexpected new project event: %+v", np)
	}
	if np.EventID() != "97_0x01_1" {
		t.Errorf("unexpected event id: %s", np.EventID())
	}

	if len(batch.Mints) != 1 {
		t.Fatalf("expected 1 mint event, got %d", len(batch.Mints))
	}
	if batch.Mints[0].ProjectID != 1 {
		t.Errorf("mint projectId_ not decoded: %+v", batch.Mints[0])
	}
	if batch.Total() != 2 {
		t.Errorf("expected 2 events total, got %d", batch.Total())
	}
}

func TestFetchGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [{"message": "field not found"}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL})
	defer client.Close()

	if _, err := client.Fetch(context.Background(), nil); err == nil {
		t.Fatal("expected error for graphql error response")
	}
}
