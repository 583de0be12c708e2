// Package middleware verifies JSON request bodies in net/http handlers.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	j "github.com/goccy/go-json"

	schema "github.com/aliaksandr-pasynkau/node-verifier-schema"
	"github.com/aliaksandr-pasynkau/node-verifier-schema/source"
)

type ctxKeyValue struct{}

// verified boxes the value so a JSON null body is still found.
type verified struct{ v any }

// ContextWithValue attaches a verified request value to ctx.
func ContextWithValue(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKeyValue{}, verified{v})
}

// ValueFromContext returns the value stored by ContextWithValue. ok is true
// for a stored nil as well.
func ValueFromContext(ctx context.Context) (any, bool) {
	b, ok := ctx.Value(ctxKeyValue{}).(verified)
	return b.v, ok
}

// Options controls Verify.
type Options struct {
	// MaxBytes limits the request body; 0 means 1 MiB.
	MaxBytes int64
	// Source controls JSON decoding. Duplicate keys are rejected unless
	// Source.AllowDuplicates is set.
	Source source.Options
	Logger *slog.Logger
	// Metrics, when set, records every outcome.
	Metrics *Metrics
}

const defaultMaxBytes = 1 << 20

// ErrorPayload is the JSON body written for rejected requests.
type ErrorPayload struct {
	Rule           string   `json:"rule"`
	Params         any      `json:"params,omitempty"`
	Path           []string `json:"path"`
	Pointer        string   `json:"pointer"`
	ArrayItemIndex *int     `json:"arrayItemIndex,omitempty"`
	Message        string   `json:"message"`
}

// PayloadOf shapes a result error for a JSON response.
func PayloadOf(res *schema.ValidationResultError) ErrorPayload {
	return ErrorPayload{
		Rule:           res.RuleName,
		Params:         res.RuleParams,
		Path:           res.Path,
		Pointer:        res.Pointer(),
		ArrayItemIndex: res.ArrayItemIndex,
		Message:        res.Message(),
	}
}

// Verify decodes the JSON body of each request and runs verify on it.
// Malformed bodies get 400, rejected values 422 with an ErrorPayload and
// verifier failures 500. Accepted values reach next through the request
// context.
func Verify(verify schema.Verifier, opt Options) func(http.Handler) http.Handler {
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = defaultMaxBytes
	}
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			value, err := source.JSONReader(http.MaxBytesReader(w, r.Body, opt.MaxBytes), opt.Source)
			var dup *source.DuplicateKeyError
			switch {
			case errors.As(err, &dup):
				opt.Metrics.observe(OutcomeMalformed, start)
				writeJSON(w, http.StatusBadRequest, ErrorPayload{
					Rule:    "duplicate_key",
					Params:  dup.Key,
					Path:    []string{},
					Pointer: dup.Pointer,
					Message: dup.Error(),
				})
				return
			case err != nil:
				opt.Metrics.observe(OutcomeMalformed, start)
				log.DebugContext(ctx, "request body rejected", "error", err)
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}

			valid, res, err := verify(ctx, value)
			if err != nil {
				opt.Metrics.observe(OutcomeError, start)
				log.ErrorContext(ctx, "verification failed", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !valid {
				opt.Metrics.observe(OutcomeInvalid, start)
				writeJSON(w, http.StatusUnprocessableEntity, PayloadOf(res))
				return
			}
			opt.Metrics.observe(OutcomeValid, start)
			next.ServeHTTP(w, r.WithContext(ContextWithValue(ctx, value)))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = j.NewEncoder(w).Encode(body)
}
