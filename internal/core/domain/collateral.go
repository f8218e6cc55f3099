package domain

// Collateral is a treasury-accepted token projection, unique on
// (Token, NetworkID). Created by the collateral init event; Approved flips
// via the action event; AraTreasuryBalance accumulates via mint and redeem.
type Collateral struct {
	Token        string `json:"token"`
	NetworkID    int64  `json:"networkId"`
	Decimals     int32  `json:"decimals"`
	FeedDecimals int32  `json:"feedDecimals"`
	Feed         string `json:"feed"`
	Initializer  string `json:"initializer"`
	Symbol       string `json:"symbol"`
	Approved     bool   `json:"approved"`

	// AraTreasuryBalance is a decimal-string big integer. Balance math never
	// goes through floating point.
	AraTreasuryBalance string `json:"araTreasuryBalance"`
}
