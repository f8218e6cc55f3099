// Package chain resolves on-chain state the event feed does not carry,
// namely ERC-20 token symbols and task scheduling windows.
package chain

import (
	"context"
	"errors"
)

// ErrUnsupportedNetwork is returned for network ids with no configured client.
var ErrUnsupportedNetwork = errors.New("unsupported network")

// TaskTime is the scheduling window of an on-chain task.
type TaskTime struct {
	StartTime int64
	EndTime   int64
}

// Client reads contract state from one network.
type Client interface {
	// SymbolOf returns the symbol of an ERC-20 token. The zero address
	// resolves to the network's native currency symbol.
	SymbolOf(ctx context.Context, tokenAddr string) (string, error)

	// TaskTime returns the start and end time of a task from the act
	// contract's tasks(projectId, taskId) view.
	TaskTime(ctx context.Context, projectID, taskID int64) (*TaskTime, error)
}

// Registry holds one client per supported network.
type Registry struct {
	clients map[int64]Client
}

// NewRegistry creates a registry from a network-id to client map.
func NewRegistry(clients map[int64]Client) *Registry {
	return &Registry{clients: clients}
}

// For returns the client for a network, or ErrUnsupportedNetwork.
func (r *Registry) For(networkID int64) (Client, error) {
	c, ok := r.clients[networkID]
	if !ok {
		return nil, ErrUnsupportedNetwork
	}
	return c, nil
}

// Supported reports whether a network has a configured client.
func (r *Registry) Supported(networkID int64) bool {
	_, ok := r.clients[networkID]
	return ok
}
