package rpc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	maxPayloadBytes = 1 << 20 // 1 MiB
	workerPoolSize  = 50
)

// MethodFunc handles one JSON-RPC method. It returns the result as a
// string, mirroring the source's convention (see buildResult), and an
// error that becomes a JSON-RPC error reply.
type MethodFunc func(params map[string]interface{}) (string, error)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

// Publisher is the subset of Client the dispatcher needs, split out so
// the dispatcher can be exercised without a live broker connection.
type Publisher interface {
	Publish(topic string, payload []byte)
	ResponseTopic() string
}

// Dispatcher is the JSON-RPC Request Dispatcher of spec §4.9: each
// request runs on a worker drawn from a fixed pool of workerPoolSize.
type Dispatcher struct {
	client  Publisher
	methods map[string]MethodFunc
	logger  *slog.Logger

	jobs         chan []byte
	wg           sync.WaitGroup
	shuttingDown atomic.Bool
}

func NewDispatcher(client Publisher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		client:  client,
		methods: make(map[string]MethodFunc),
		logger:  logger.With("module", "rpc_dispatcher"),
		jobs:    make(chan []byte, 4096),
	}
	for i := 0; i < workerPoolSize; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) Register(method string, fn MethodFunc) {
	d.methods[method] = fn
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for payload := range d.jobs {
		d.process(payload)
	}
}

// HandleRaw is the Client's inbound-message callback. It enforces the
// 1 MiB payload cap and rejects new work once shutdown has begun.
func (d *Dispatcher) HandleRaw(payload []byte) {
	if d.shuttingDown.Load() {
		d.logger.Warn("rejecting request: server is shutting down")
		return
	}
	if len(payload) > maxPayloadBytes {
		d.logger.Warn("rejecting request: payload exceeds 1MiB cap", "size", len(payload))
		return
	}
	select {
	case d.jobs <- payload:
	default:
		d.logger.Warn("dropping request: worker queue full")
	}
}

// Shutdown stops accepting new requests and joins in-flight workers,
// giving up after timeout (spec: 5 minutes).
func (d *Dispatcher) Shutdown(timeout time.Duration) {
	d.shuttingDown.Store(true)
	close(d.jobs)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		d.logger.Warn("shutdown timed out with workers still running")
	}
}

func (d *Dispatcher) process(payload []byte) {
	var req rpcRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		d.logger.Warn("dropping unparseable request", "err", err)
		return
	}

	if req.JSONRPC != "2.0" {
		d.replyOrDrop(req.ID, "", fmt.Errorf("invalid jsonrpc version"))
		return
	}
	if req.Method == "" {
		d.replyOrDrop(req.ID, "", fmt.Errorf("missing method"))
		return
	}

	fn, ok := d.methods[req.Method]
	if !ok {
		d.replyOrDrop(req.ID, "", fmt.Errorf("Unknown method: %s", req.Method))
		return
	}

	var params map[string]interface{}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			d.replyOrDrop(req.ID, "", fmt.Errorf("invalid params: %v", err))
			return
		}
	}

	result, err := fn(params)
	d.replyOrDrop(req.ID, result, err)
}

func (d *Dispatcher) replyOrDrop(id interface{}, result string, err error) {
	if id == nil {
		if err != nil {
			d.logger.Warn("dropping request with no recoverable id", "err", err)
		}
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: id}
	if err != nil {
		resp.Error = &rpcError{Code: -1, Message: err.Error()}
	} else {
		resp.Result = buildResult(result)
	}

	body, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		d.logger.Error("failed to marshal response", "err", marshalErr)
		return
	}
	d.client.Publish(d.client.ResponseTopic(), body)
}

// buildResult implements the result-embedding rule of spec §4.9: a
// JSON-object string is parsed and embedded, a non-empty non-object
// string is embedded as-is, and an empty string becomes a canned message.
func buildResult(result string) interface{} {
	trimmed := strings.TrimSpace(result)
	if trimmed == "" {
		return "Operation completed successfully"
	}
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var obj interface{}
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			return obj
		}
	}
	return result
}
