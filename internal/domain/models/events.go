package models

import "time"

// SignalChangeEvent is published whenever a market's signal kind moves
// between two refresh cycles. Serialized to JSON on the event topic.
type SignalChangeEvent struct {
	Key       string     `json:"key"` // "<chainID>:<address>"
	ChainID   int        `json:"chainId"`
	Address   string     `json:"address"`
	Name      string     `json:"name"`
	Previous  SignalKind `json:"previous"`
	Current   SignalKind `json:"current"`
	Rationale string     `json:"rationale"`
	At        time.Time  `json:"at"`
}
