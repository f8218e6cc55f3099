package source

import (
	"fmt"
	"strings"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
)

// Page caps match what the upstream indexer can serve in one request.
// The collateral voting streams tolerate a slightly larger page.
const (
	collateralPageLimit = 59
	defaultPageLimit    = 50
)

type selection struct {
	limit  int
	fields []string
}

// selections defines the per-stream field lists of the composite query.
var selections = map[domain.EventType]selection{
	domain.EventCollateralInit: {
		limit:  collateralPageLimit,
		fields: []string{"decimals", "feedDecimals", "feed", "id", "initializer", "token", "db_write_timestamp"},
	},
	domain.EventCollateralAction: {
		limit:  collateralPageLimit,
		fields: []string{"agree", "id", "token", "db_write_timestamp"},
	},
	domain.EventNewProject: {
		limit: defaultPageLimit,
		fields: []string{
			"project_0", "project_1", "project_2", "project_3", "project_4",
			"project_5", "project_6", "project_7", "project_8", "project_9",
			"projectId", "id", "db_write_timestamp",
		},
	},
	domain.EventSetSangha: {
		limit:  defaultPageLimit,
		fields: []string{"projectId", "id", "db_write_timestamp", "project_0", "project_1", "project_2"},
	},
	domain.EventSetInitialLeader: {
		limit:  defaultPageLimit,
		fields: []string{"projectId", "id", "db_write_timestamp", "initialLeader"},
	},
	domain.EventSetProjectInTreasury: {
		limit:  defaultPageLimit,
		fields: []string{"tokenAmount", "usdAmount", "projectId", "id", "db_write_timestamp"},
	},
	domain.EventMint: {
		limit: defaultPageLimit,
		fields: []string{
			"collateralAmount", "ownershipAmount", "projectId_", "usdAmount",
			"collateral", "id", "ownershipToken", "to", "db_write_timestamp",
		},
	},
	domain.EventNewTask: {
		limit:  defaultPageLimit,
		fields: []string{"checkAmount_", "projectId", "taskId", "id", "payload", "db_write_timestamp"},
	},
	domain.EventCompleteTask: {
		limit:  defaultPageLimit,
		fields: []string{"projectId", "taskId", "contributor", "id", "payload", "db_write_timestamp"},
	},
	domain.EventCancelTask: {
		limit:  defaultPageLimit,
		fields: []string{"projectId", "taskId", "id", "payload", "db_write_timestamp"},
	},
	domain.EventCashierRedeem: {
		limit:  defaultPageLimit,
		fields: []string{"collateralAmount", "usdAmount", "check", "collateral", "id", "to", "db_write_timestamp"},
	},
}

// BuildQuery renders the composite query, one selection per stream, each
// filtered past its watermark and ordered ascending by write timestamp.
func BuildQuery(watermarks map[domain.EventType]string) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, t := range domain.EventTypes {
		sel := selections[t]
		mark, ok := watermarks[t]
		if !ok {
			mark = domain.DefaultWatermark
		}
		fmt.Fprintf(&b,
			"  %s(where: {db_write_timestamp: {_gt: %q}}, order_by: {db_write_timestamp: asc}, limit: %d) {\n",
			t, mark, sel.limit)
		for _, f := range sel.fields {
			b.WriteString("    ")
			b.WriteString(f)
			b.WriteString("\n")
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}")
	return b.String()
}
