package signer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// JSON-RPC error codes a wallet uses to refuse a request (EIP-1193).
const (
	codeUserRejected   = 4001
	codeUnauthorized   = 4100
	codeMethodNotFound = -32601
)

// RPCKeyHolder talks to a JSON-RPC wallet (a browser bridge, Clef, a
// development node) using eth_requestAccounts and eth_signTypedData_v4.
type RPCKeyHolder struct {
	client *rpc.Client
}

// DialRPCKeyHolder connects to the wallet at url (http, ws or ipc).
func DialRPCKeyHolder(ctx context.Context, url string) (*RPCKeyHolder, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrNoKeyHolder
	}
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrNoKeyHolder, url, err)
	}
	return &RPCKeyHolder{client: client}, nil
}

// NewRPCKeyHolder wraps an existing client.
func NewRPCKeyHolder(client *rpc.Client) *RPCKeyHolder {
	return &RPCKeyHolder{client: client}
}

// Close releases the underlying connection.
func (h *RPCKeyHolder) Close() {
	h.client.Close()
}

// Accounts asks the wallet for account access, falling back to eth_accounts
// for wallets that do not implement eth_requestAccounts.
func (h *RPCKeyHolder) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	err := h.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if rpcErrorCode(err) == codeMethodNotFound {
		err = h.client.CallContext(ctx, &accounts, "eth_accounts")
	}
	if err != nil {
		return nil, wrapRPCError("eth_requestAccounts", err)
	}
	return accounts, nil
}

// SignTypedData calls eth_signTypedData_v4 with the JSON-encoded payload.
func (h *RPCKeyHolder) SignTypedData(ctx context.Context, account common.Address, data apitypes.TypedData) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode typed data: %w", err)
	}

	var sig hexutil.Bytes
	if err := h.client.CallContext(ctx, &sig, "eth_signTypedData_v4", account, string(payload)); err != nil {
		return nil, wrapRPCError("eth_signTypedData_v4", err)
	}
	return sig, nil
}

func rpcErrorCode(err error) int {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode()
	}
	return 0
}

// wrapRPCError classifies a wallet error. Only errors the wallet itself
// returned can mean rejection; transport failures mean no key holder.
func wrapRPCError(method string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		code := rpcErr.ErrorCode()
		msg := strings.ToLower(rpcErr.Error())
		if code == codeUserRejected || code == codeUnauthorized ||
			strings.Contains(msg, "denied") || strings.Contains(msg, "rejected") {
			return fmt.Errorf("%w: %s: %w", ErrUserRejected, method, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrNoKeyHolder, method, err)
}
