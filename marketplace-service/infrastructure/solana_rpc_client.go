package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/domain"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ domain.ChainClient = (*SolanaRPCClient)(nil)

// SolanaRPCClient reads account state over the Solana JSON-RPC API
type SolanaRPCClient struct {
	endpoint   string
	httpClient *http.Client
	requestID  atomic.Int64
}

// NewSolanaRPCClient creates a client for endpoint. timeout bounds each request.
func NewSolanaRPCClient(endpoint string, timeout time.Duration) *SolanaRPCClient {
	return &SolanaRPCClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountInfoResponse struct {
	Result *struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value *struct {
			Owner      string `json:"owner"`
			Lamports   uint64 `json:"lamports"`
			Executable bool   `json:"executable"`
			RentEpoch  uint64 `json:"rentEpoch"`
			Space      uint64 `json:"space"`
		} `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// GetAsset returns the account behind mint. A missing account is returned with Exists=false.
func (c *SolanaRPCClient) GetAsset(ctx context.Context, mint string) (*domain.ChainAsset, error) {
	ctx, span := telemetry.StartSpan(ctx, "solana.get_account_info",
		trace.WithAttributes(attribute.String("mint", mint)),
	)
	defer span.End()

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "getAccountInfo",
		Params:  []interface{}{mint, map[string]string{"encoding": "base64", "commitment": "confirmed"}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build rpc request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "rpc request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("rpc returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
		span.RecordError(err)
		return nil, err
	}

	var decoded accountInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode rpc response")
	}
	if decoded.Error != nil {
		return nil, errors.Errorf("rpc error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	if decoded.Result == nil {
		return nil, errors.New("rpc response has no result")
	}

	asset := &domain.ChainAsset{Mint: mint, Slot: decoded.Result.Context.Slot}
	if value := decoded.Result.Value; value != nil {
		asset.Exists = true
		asset.Owner = value.Owner
		asset.Lamports = value.Lamports
		asset.Executable = value.Executable
		asset.RentEpoch = value.RentEpoch
		asset.Space = value.Space
	}

	span.SetAttributes(attribute.Bool("exists", asset.Exists))
	return asset, nil
}
