package transport

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/bitcoin"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/digest"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/model"
	"github.com/goodnatureofminers/spvstore-backend/internal/spv/service"
	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
)

const (
	// A 4 MB transaction in hex plus the JSON envelope.
	maxBodyBytes = 9 << 20

	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000

	reasonBadRequest         = "bad_request"
	reasonInsufficientWork   = "insufficient_work"
	reasonUnknownHeader      = "unknown_header"
	reasonUnknownTransaction = "unknown_transaction"
	reasonNotConfigured      = "not_configured"
	reasonInternal           = "internal"
)

// RESTHandler serves the JSON API on a grpc-gateway mux.
type RESTHandler struct {
	engine  Engine
	history History
	logger  *zap.Logger
}

// NewRESTHandler creates a RESTHandler. history may be nil when no event log is configured.
func NewRESTHandler(engine Engine, history History, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{engine: engine, history: history, logger: logger.Named("rest")}
}

// Register adds the API routes to mux.
func (h *RESTHandler) Register(mux *gwruntime.ServeMux) error {
	routes := []struct {
		method  string
		pattern string
		handler gwruntime.HandlerFunc
	}{
		{http.MethodPost, "/v1/headers", h.postHeader},
		{http.MethodPost, "/v1/transactions", h.postTransaction},
		{http.MethodPost, "/v1/validations", h.postValidation},
		{http.MethodGet, "/v1/headers/{digest}", h.getHeader},
		{http.MethodGet, "/v1/transactions/{txid}", h.getTransaction},
		{http.MethodGet, "/v1/transactions/{txid}/validations", h.getValidations},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return fmt.Errorf("register %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

type rawRequest struct {
	Raw string `json:"raw"`
}

type validationRequest struct {
	TxID   string   `json:"txid"`
	Digest string   `json:"digest"`
	Proof  []string `json:"proof"`
	Index  uint64   `json:"index"`
}

type errorResponse struct {
	Digest string `json:"digest,omitempty"`
	TxID   string `json:"txid,omitempty"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type headerResponse struct {
	Digest     string `json:"digest"`
	Version    int32  `json:"version"`
	PrevBlock  string `json:"prev_block"`
	MerkleRoot string `json:"merkle_root"`
	Timestamp  uint32 `json:"timestamp"`
	Bits       uint32 `json:"bits"`
	Target     string `json:"target"`
	Nonce      uint32 `json:"nonce"`
}

type transactionResponse struct {
	TxID               string `json:"txid"`
	Version            int32  `json:"version"`
	NumInputs          uint32 `json:"num_inputs"`
	NumOutputs         uint32 `json:"num_outputs"`
	LockTime           uint32 `json:"locktime"`
	HasWitness         bool   `json:"has_witness"`
	ValidationComplete bool   `json:"validation_complete"`
}

type validationEvent struct {
	Digest    string    `json:"digest"`
	Duplicate bool      `json:"duplicate"`
	At        time.Time `json:"at"`
}

func (h *RESTHandler) postHeader(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	raw, ok := h.decodeRaw(w, r)
	if !ok {
		return
	}

	receipt, err := h.engine.IngestHeader(raw)
	if err != nil {
		h.writeIngestError(w, err, func(resp *errorResponse) { resp.Digest = digest.Zero.String() })
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"digest":    receipt.Hash.String(),
		"duplicate": receipt.Duplicate,
	})
}

func (h *RESTHandler) postTransaction(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	raw, ok := h.decodeRaw(w, r)
	if !ok {
		return
	}

	receipt, err := h.engine.IngestTransaction(raw)
	if err != nil {
		h.writeIngestError(w, err, func(resp *errorResponse) { resp.TxID = digest.Zero.String() })
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"txid":      receipt.Hash.String(),
		"duplicate": receipt.Duplicate,
	})
}

func (h *RESTHandler) postValidation(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req validationRequest
	if !h.decode(w, r, &req) {
		return
	}

	txid, err := parseHash(req.TxID)
	if err != nil {
		h.writeBadRequest(w, fmt.Errorf("txid: %w", err))
		return
	}
	headerDigest, err := parseHash(req.Digest)
	if err != nil {
		h.writeBadRequest(w, fmt.Errorf("digest: %w", err))
		return
	}
	proof := model.Proof{Index: req.Index, Siblings: make([]chainhash.Hash, 0, len(req.Proof))}
	for i, s := range req.Proof {
		sibling, err := parseHash(s)
		if err != nil {
			h.writeBadRequest(w, fmt.Errorf("proof[%d]: %w", i, err))
			return
		}
		proof.Siblings = append(proof.Siblings, sibling)
	}

	valid, err := h.engine.Validate(txid, headerDigest, proof)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *RESTHandler) getHeader(w http.ResponseWriter, _ *http.Request, params map[string]string) {
	headerDigest, err := parseHash(params["digest"])
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	header, err := h.engine.Header(headerDigest)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, headerResponse{
		Digest:     header.Digest.String(),
		Version:    header.Version,
		PrevBlock:  header.PrevBlock.String(),
		MerkleRoot: header.MerkleRoot.String(),
		Timestamp:  header.Timestamp,
		Bits:       header.Bits,
		Target:     hex.EncodeToString(header.Target[:]),
		Nonce:      header.Nonce,
	})
}

func (h *RESTHandler) getTransaction(w http.ResponseWriter, _ *http.Request, params map[string]string) {
	txid, err := parseHash(params["txid"])
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}

	tx, err := h.engine.Transaction(txid)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transactionResponse{
		TxID:               tx.TxID.String(),
		Version:            tx.Version,
		NumInputs:          tx.NumInputs,
		NumOutputs:         tx.NumOutputs,
		LockTime:           tx.LockTime,
		HasWitness:         tx.HasWitness,
		ValidationComplete: tx.ValidationComplete,
	})
}

func (h *RESTHandler) getValidations(w http.ResponseWriter, r *http.Request, params map[string]string) {
	if h.history == nil {
		h.writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "event log not configured", Reason: reasonNotConfigured})
		return
	}

	txid, err := parseHash(params["txid"])
	if err != nil {
		h.writeBadRequest(w, err)
		return
	}
	limit := uint64(defaultHistoryLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.ParseUint(s, 10, 64)
		if err != nil || limit == 0 || limit > maxHistoryLimit {
			h.writeBadRequest(w, fmt.Errorf("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
	}

	events, err := h.history.ValidationsByTxID(r.Context(), txid, limit)
	if err != nil {
		h.writeInternal(w, err)
		return
	}
	out := make([]validationEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, validationEvent{Digest: ev.Digest.String(), Duplicate: ev.Duplicate, At: ev.At.UTC()})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"txid": txid.String(), "validations": out})
}

func (h *RESTHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeBadRequest(w, fmt.Errorf("decode body: %w", err))
		return false
	}
	return true
}

func (h *RESTHandler) decodeRaw(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	var req rawRequest
	if !h.decode(w, r, &req) {
		return nil, false
	}
	raw, err := hex.DecodeString(req.Raw)
	if err != nil {
		h.writeBadRequest(w, fmt.Errorf("raw: %w", err))
		return nil, false
	}
	return raw, true
}

// writeIngestError maps rejections to 422 carrying the zero-digest sentinel.
func (h *RESTHandler) writeIngestError(w http.ResponseWriter, err error, sentinel func(*errorResponse)) {
	if !service.IsRejected(err) {
		h.writeInternal(w, err)
		return
	}
	resp := errorResponse{Error: err.Error(), Reason: reasonInsufficientWork}
	if kind, ok := bitcoin.KindOf(err); ok {
		resp.Reason = string(kind)
	}
	sentinel(&resp)
	h.writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func (h *RESTHandler) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownTransaction):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Reason: reasonUnknownTransaction})
	case errors.Is(err, service.ErrUnknownHeader):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Reason: reasonUnknownHeader})
	default:
		h.writeInternal(w, err)
	}
}

func (h *RESTHandler) writeBadRequest(w http.ResponseWriter, err error) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: reasonBadRequest})
}

func (h *RESTHandler) writeInternal(w http.ResponseWriter, err error) {
	h.logger.Error("request failed", zap.Error(err))
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Reason: reasonInternal})
}

func (h *RESTHandler) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
}

// parseHash accepts exactly 64 hex characters in display order.
func parseHash(s string) (chainhash.Hash, error) {
	if len(s) != chainhash.MaxHashStringSize {
		return chainhash.Hash{}, fmt.Errorf("hash %q must be %d hex characters", s, chainhash.MaxHashStringSize)
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("parse hash %q: %w", s, err)
	}
	return *h, nil
}
