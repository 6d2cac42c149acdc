package signer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/healthcare-ms/go-attest-sdk/typeddata"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RemoteKeyHolder signs EIP-712 digests through a remote signing API.
//
// The API receives {"payload_hex": "<32-byte digest>"} and answers
// {"signature_hex": "<65-byte r‖s‖v>"}. The account is configured up front
// because the API has no account discovery.
type RemoteKeyHolder struct {
	endpoint string
	apiKey   string
	account  common.Address
	client   *http.Client

	timeout    time.Duration
	hasTimeout bool
}

// maxRemoteResponse bounds how much of a signer response is read.
const maxRemoteResponse = 64 << 10

// RemoteOption configures a RemoteKeyHolder.
type RemoteOption func(*RemoteKeyHolder)

// WithRemoteHTTPClient replaces the HTTP client. The client is copied, so
// options never change the caller's value.
func WithRemoteHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteKeyHolder) { r.client = c }
}

// WithRemoteTimeout sets the HTTP timeout. Zero means no timeout, leaving the
// deadline to the caller's context.
func WithRemoteTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteKeyHolder) {
		r.timeout = d
		r.hasTimeout = true
	}
}

// NewRemoteKeyHolder creates a RemoteKeyHolder for account.
func NewRemoteKeyHolder(endpoint, apiKey, account string, opts ...RemoteOption) (*RemoteKeyHolder, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint required")
	}
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("invalid signer account: %s", account)
	}

	r := &RemoteKeyHolder{
		endpoint: endpoint,
		apiKey:   apiKey,
		account:  common.HexToAddress(account),
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		return nil, fmt.Errorf("http client required")
	}

	hc := *r.client
	if r.hasTimeout {
		hc.Timeout = r.timeout
	}
	r.client = &hc
	return r, nil
}

// Accounts returns the configured account.
func (r *RemoteKeyHolder) Accounts(_ context.Context) ([]common.Address, error) {
	return []common.Address{r.account}, nil
}

// SignTypedData sends the digest of data to the remote API.
func (r *RemoteKeyHolder) SignTypedData(ctx context.Context, account common.Address, data apitypes.TypedData) ([]byte, error) {
	if account != r.account {
		return nil, fmt.Errorf("%w: unknown account %s", ErrNoKeyHolder, account.Hex())
	}

	hashes, err := typeddata.HashTypedData(data)
	if err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(map[string]any{
		"payload_hex": hex.EncodeToString(hashes.Digest.Bytes()),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("x-api-key", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: remote signer unreachable: %v", ErrNoKeyHolder, err)
	}
	defer resp.Body.Close()
	body := io.LimitReader(resp.Body, maxRemoteResponse)

	switch {
	case resp.StatusCode == http.StatusForbidden:
		msg, _ := io.ReadAll(io.LimitReader(body, 4096))
		return nil, fmt.Errorf("%w: remote signer http %d: %s", ErrUserRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: remote signer http %d", ErrNoKeyHolder, resp.StatusCode)
	}

	var out struct {
		SignatureHex string `json:"signature_hex"`
	}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(out.SignatureHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return sig, nil
}
