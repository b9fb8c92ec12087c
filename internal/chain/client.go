// Package chain provides the ledger interaction for the access layer: a
// JSON-RPC client that fetches anti-replay references and submits transfer
// instructions, plus the wallet provider boundary.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
)

// Client is a JSON-RPC ledger client.
type Client struct {
	rpcURL         string
	httpClient     *http.Client
	commitment     string
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// Config holds client configuration.
type Config struct {
	RPCURL         string
	Commitment     string        // confirmation level requested from the node
	Timeout        time.Duration // per-request HTTP timeout
	ConfirmTimeout time.Duration // total budget for awaiting confirmation
}

// NewClient creates a new ledger client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	confirmTimeout := cfg.ConfirmTimeout
	if confirmTimeout == 0 {
		confirmTimeout = 60 * time.Second
	}
	commitment := cfg.Commitment
	if commitment == "" {
		commitment = "confirmed"
	}

	return &Client{
		rpcURL:         cfg.RPCURL,
		httpClient:     &http.Client{Timeout: timeout},
		commitment:     commitment,
		confirmTimeout: confirmTimeout,
		pollInterval:   time.Second,
	}, nil
}

// RPCRequest is a JSON-RPC 2.0 request.
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
	ID      int           `json:"id"`
}

// RPCResponse is a JSON-RPC 2.0 response.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call makes an RPC call to the ledger node.
func (c *Client) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

// Reference is the opaque anti-replay token attached to every instruction.
// It must be re-fetched for each submission attempt and never cached.
type Reference struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"last_valid_block_height"`
}

// LatestReference fetches a fresh reference from the ledger.
func (c *Client) LatestReference(ctx context.Context) (Reference, error) {
	result, err := c.Call(ctx, "getLatestBlockhash", []interface{}{
		map[string]interface{}{"commitment": c.commitment},
	})
	if err != nil {
		return Reference{}, svcerrors.LedgerRejected(err)
	}

	value := gjson.GetBytes(result, "value")
	blockhash := value.Get("blockhash").String()
	if blockhash == "" {
		return Reference{}, svcerrors.LedgerRejected(fmt.Errorf("empty blockhash in response"))
	}

	return Reference{
		Blockhash:            blockhash,
		LastValidBlockHeight: value.Get("lastValidBlockHeight").Uint(),
	}, nil
}

// Confirmation is the ledger's acknowledgement of a submitted instruction.
type Confirmation struct {
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
}

// Submit sends a transfer instruction tagged with the reference and awaits
// confirmation. Signing and wire serialization are the node bridge's
// concern; this client describes the transfer and waits for the outcome.
// A refused instruction maps to LEDGER_REJECTED, an instruction that is
// never confirmed within the budget maps to LEDGER_TIMEOUT. One attempt
// per call, no retry.
func (c *Client) Submit(ctx context.Context, ix TransferInstruction, ref Reference) (Confirmation, error) {
	payload := map[string]interface{}{
		"source":          ix.Source,
		"destination":     ix.Destination,
		"lamports":        ix.Lamports,
		"programId":       ix.ProgramID,
		"recentBlockhash": ref.Blockhash,
	}

	result, err := c.Call(ctx, "sendTransaction", []interface{}{
		payload,
		map[string]interface{}{"preflightCommitment": c.commitment},
	})
	if err != nil {
		return Confirmation{}, svcerrors.LedgerRejected(err)
	}

	var signature string
	if err := json.Unmarshal(result, &signature); err != nil || signature == "" {
		return Confirmation{}, svcerrors.LedgerRejected(fmt.Errorf("missing signature in response"))
	}

	return c.awaitConfirmation(ctx, signature)
}

func (c *Client) awaitConfirmation(ctx context.Context, signature string) (Confirmation, error) {
	deadline := time.Now().Add(c.confirmTimeout)

	for {
		result, err := c.Call(ctx, "getSignatureStatuses", []interface{}{
			[]string{signature},
		})
		if err != nil {
			return Confirmation{}, svcerrors.LedgerRejected(err)
		}

		status := gjson.GetBytes(result, "value.0")
		if status.Exists() && status.Type != gjson.Null {
			if errValue := status.Get("err"); errValue.Exists() && errValue.Type != gjson.Null {
				return Confirmation{}, svcerrors.LedgerRejected(fmt.Errorf("instruction failed: %s", errValue.Raw))
			}
			confirmation := status.Get("confirmationStatus").String()
			if confirmation == "confirmed" || confirmation == "finalized" {
				return Confirmation{
					Signature: signature,
					Slot:      status.Get("slot").Uint(),
				}, nil
			}
		}

		if time.Now().After(deadline) {
			return Confirmation{}, svcerrors.LedgerTimeout(fmt.Errorf("signature %s unconfirmed after %s", signature, c.confirmTimeout))
		}

		select {
		case <-ctx.Done():
			return Confirmation{}, svcerrors.LedgerTimeout(ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}
