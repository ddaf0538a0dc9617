package walletrpc

// bridge.go: wallet bridge client over JSON-RPC.
//
// The bridge is a local signer daemon that owns the Tezos keys and the
// permission prompt (Beacon / Temple). This client never sees a secret key:
//   wallet_connect           → pairs the wallet, returns address + public key
//   wallet_submit            → signs and injects one batched contract call
//   wallet_operationStatus   → confirmation count / failure of an operation
//
// Confirmation polling follows the same submit-then-wait model as an
// EVM receipt loop: poll with back-off until n confirmations or failure.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/jpillora/backoff"

	"github.com/alejandrodnm/tezfolio/internal/domain"
)

const (
	methodConnect = "wallet_connect"
	methodSubmit  = "wallet_submit"
	methodStatus  = "wallet_operationStatus"

	defaultConfirmationTimeout = 3 * time.Minute
	defaultPollMin             = 2 * time.Second
	defaultPollMax             = 15 * time.Second
)

// Operation statuses reported by the bridge.
const (
	statusPending     = "pending"
	statusApplied     = "applied"
	statusFailed      = "failed"
	statusBacktracked = "backtracked"
	statusSkipped     = "skipped"
)

var (
	// ErrOperationFailed is returned when the operation was rejected on-chain.
	ErrOperationFailed = errors.New("operation failed on-chain")
	// ErrConfirmationTimeout is returned when confirmations did not arrive in time.
	ErrConfirmationTimeout = errors.New("timed out waiting for confirmations")
)

// Options configures the bridge client.
type Options struct {
	ContractAddress     string
	ConfirmationTimeout time.Duration
	PollMin             time.Duration
	PollMax             time.Duration
}

type accountResult struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
}

type submitRequest struct {
	Contract   string `json:"contract"`
	Entrypoint string `json:"entrypoint"`
	Params     any    `json:"params"`
}

type submitResult struct {
	OpHash string `json:"op_hash"`
}

type statusResult struct {
	Status        string `json:"status"`
	Confirmations int    `json:"confirmations"`
	Error         string `json:"error,omitempty"`
}

// Bridge implements ports.WalletConnector and domain.Submitter.
type Bridge struct {
	client *rpc.Client
	opts   Options
}

// Dial connects to the bridge at rawURL (http, ws or ipc path).
func Dial(ctx context.Context, rawURL string, opts Options) (*Bridge, error) {
	client, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("walletrpc: dial %s: %w", rawURL, err)
	}
	return NewBridge(client, opts), nil
}

// NewBridge wraps an existing RPC client.
func NewBridge(client *rpc.Client, opts Options) *Bridge {
	if opts.ConfirmationTimeout <= 0 {
		opts.ConfirmationTimeout = defaultConfirmationTimeout
	}
	if opts.PollMin <= 0 {
		opts.PollMin = defaultPollMin
	}
	if opts.PollMax < opts.PollMin {
		opts.PollMax = max(defaultPollMax, opts.PollMin)
	}
	return &Bridge{client: client, opts: opts}
}

// Close closes the underlying RPC connection.
func (b *Bridge) Close() {
	b.client.Close()
}

// Connect pairs the wallet. A bridge without an active account yields
// domain.ErrWalletNotConnected.
func (b *Bridge) Connect(ctx context.Context, forcePermissions bool) (domain.Session, error) {
	var acc accountResult
	if err := b.client.CallContext(ctx, &acc, methodConnect, forcePermissions); err != nil {
		return domain.Session{}, fmt.Errorf("walletrpc: connect: %w", err)
	}
	if acc.Address == "" {
		return domain.Session{}, fmt.Errorf("walletrpc: connect: %w", domain.ErrWalletNotConnected)
	}

	slog.Info("walletrpc: wallet connected", "owner", acc.Address, "contract", b.opts.ContractAddress)
	return domain.Session{
		Owner:           acc.Address,
		PublicKey:       acc.PublicKey,
		ContractAddress: b.opts.ContractAddress,
		Submitter:       b,
	}, nil
}

// Submit signs and injects the call as a single batched operation.
func (b *Bridge) Submit(ctx context.Context, call domain.ContractCall) (domain.Operation, error) {
	req := submitRequest{
		Contract:   call.Contract,
		Entrypoint: call.Entrypoint,
		Params:     call.Params,
	}
	var res submitResult
	if err := b.client.CallContext(ctx, &res, methodSubmit, req); err != nil {
		return nil, fmt.Errorf("walletrpc: submit %s: %w", call.Entrypoint, err)
	}
	if res.OpHash == "" {
		return nil, fmt.Errorf("walletrpc: submit %s: bridge returned no operation hash", call.Entrypoint)
	}

	slog.Info("walletrpc: operation injected", "entrypoint", call.Entrypoint, "op", res.OpHash)
	return &operation{bridge: b, hash: res.OpHash}, nil
}

// operation implements domain.Operation.
type operation struct {
	bridge *Bridge
	hash   string
}

func (o *operation) Hash() string {
	return o.hash
}

// AwaitConfirmations polls the bridge until the operation has n confirmations.
// Transient RPC errors are retried until the confirmation timeout.
func (o *operation) AwaitConfirmations(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	ctx, cancel := context.WithTimeout(ctx, o.bridge.opts.ConfirmationTimeout)
	defer cancel()

	bo := &backoff.Backoff{
		Min:    o.bridge.opts.PollMin,
		Max:    o.bridge.opts.PollMax,
		Factor: 2,
		Jitter: true,
	}

	for {
		var st statusResult
		err := o.bridge.client.CallContext(ctx, &st, methodStatus, o.hash)
		switch {
		case err != nil:
			slog.Debug("walletrpc: status poll failed", "op", o.hash, "err", err)
		case st.Status == statusFailed || st.Status == statusBacktracked || st.Status == statusSkipped:
			msg := st.Error
			if msg == "" {
				msg = st.Status
			}
			return fmt.Errorf("walletrpc: %s: %w: %s", o.hash, ErrOperationFailed, msg)
		case st.Status == statusApplied && st.Confirmations >= n:
			slog.Info("walletrpc: operation confirmed", "op", o.hash, "confirmations", st.Confirmations)
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("walletrpc: %s: %w", o.hash, ErrConfirmationTimeout)
			}
			return fmt.Errorf("walletrpc: %s: %w", o.hash, ctx.Err())
		case <-time.After(bo.Duration()):
		}
	}
}
