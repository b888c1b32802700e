// Package middleware provides HTTP middleware for the ledger API.
package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/benx421/ledger-bank/internal/models"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "X-Idempotent-Replayed"

	// maxMovementBody bounds what is buffered to fingerprint a keyed request
	maxMovementBody = 1 << 20
)

var movementPaths = map[string]bool{
	"/transaction/fund-account":  true,
	"/transaction/withdraw-fund": true,
	"/transaction/transfer-fund": true,
}

// IdempotencyStore holds one claim per caller key and movement path
type IdempotencyStore interface {
	Claim(ctx context.Context, claim *models.IdempotencyKey) (bool, error)
	Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error)
	Complete(ctx context.Context, record *models.IdempotencyKey) error
	Release(ctx context.Context, key, requestPath string) error
}

// Idempotency makes keyed money movements run at most once. The key is
// claimed before the handler runs; a request that loses the claim either
// replays the recorded success, gets 409 while the owner is still running,
// or gets 422 when its body differs from the owner's. Failed movements
// release the claim so the caller can retry with the same key.
func Idempotency(store IdempotencyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, ok := movementClaim(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			hash, err := fingerprint(w, r)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeError(w, http.StatusRequestEntityTooLarge, "Request body is too large.")
					return
				}
				writeError(w, http.StatusBadRequest, "Request body could not be read.")
				return
			}
			claim.RequestHash = hash

			won, err := store.Claim(r.Context(), claim)
			if err != nil {
				logger.Error("idempotency claim failed", "path", claim.RequestPath, "error", err)
				writeError(w, http.StatusServiceUnavailable, "Unable to process request. Please retry.")
				return
			}
			if !won {
				answerDuplicate(w, r, store, claim, logger)
				return
			}

			runClaimed(w, r, next, store, claim, logger)
		})
	}
}

// movementClaim builds the claim for a keyed POST to a movement path. Keys
// are scoped to the authenticated caller.
func movementClaim(r *http.Request) (*models.IdempotencyKey, bool) {
	if r.Method != http.MethodPost {
		return nil, false
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if !movementPaths[path] {
		return nil, false
	}
	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" {
		return nil, false
	}
	if userID, ok := UserIDFromContext(r.Context()); ok {
		key = userID.String() + ":" + key
	}
	return &models.IdempotencyKey{Key: key, RequestPath: path}, true
}

// fingerprint hashes the request body and leaves it readable for the
// handler. JSON bodies are hashed in canonical form so key order and
// whitespace do not matter.
func fingerprint(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMovementBody))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	canonical := body
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if dec.Decode(&doc) == nil {
		if b, err := json.Marshal(doc); err == nil {
			canonical = b
		}
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func answerDuplicate(w http.ResponseWriter, r *http.Request, store IdempotencyStore, claim *models.IdempotencyKey, logger *slog.Logger) {
	prior, err := store.Get(r.Context(), claim.Key, claim.RequestPath)
	switch {
	case err != nil:
		logger.Error("idempotency lookup failed", "path", claim.RequestPath, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Unable to process request. Please retry.")
	case prior != nil && !prior.SameRequest(claim.RequestHash):
		writeError(w, http.StatusUnprocessableEntity, "Idempotency-Key has already been used with a different request.")
	case prior == nil || prior.InFlight():
		writeError(w, http.StatusConflict, "A request with this Idempotency-Key is still being processed.")
	default:
		logger.Debug("replaying movement", "path", claim.RequestPath, "status", prior.ResponseStatus)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(prior.ResponseStatus)
		//nolint:errcheck // Best effort response writing
		io.WriteString(w, prior.ResponseBody)
	}
}

// runClaimed serves the request under a held claim. A 2xx outcome is
// recorded for replay; anything else, including a panic, releases the key.
// If recording fails the claim stays in flight so a retry cannot move money
// again.
func runClaimed(w http.ResponseWriter, r *http.Request, next http.Handler, store IdempotencyStore, claim *models.IdempotencyKey, logger *slog.Logger) {
	// The response may already be on the wire; bookkeeping must outlive it.
	ctx := context.WithoutCancel(r.Context())
	rec := &recordingWriter{ResponseWriter: w}

	settled := false
	defer func() {
		if settled {
			return
		}
		if err := store.Release(ctx, claim.Key, claim.RequestPath); err != nil {
			logger.Error("idempotency release failed", "path", claim.RequestPath, "error", err)
		}
	}()

	next.ServeHTTP(rec, r)

	status := rec.statusCode()
	if status < 200 || status >= 300 {
		return
	}
	settled = true

	claim.ResponseStatus = status
	claim.ResponseBody = rec.body.String()
	if err := store.Complete(ctx, claim); err != nil {
		logger.Error("idempotency outcome not recorded", "path", claim.RequestPath, "status", status, "error", err)
	}
}

// recordingWriter tees the response so a success can be replayed
type recordingWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (rw *recordingWriter) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (rw *recordingWriter) statusCode() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}
