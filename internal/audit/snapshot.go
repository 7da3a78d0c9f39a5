package audit

import (
	"context"
	"encoding/json"
	"strings"
)

const redacted = "[REDACTED]"

//nolint:gochecknoglobals // fixed lookup table
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"new_password":  {},
	"token":         {},
	"national_id":   {},
	"bank_account":  {},
	"aadhaar":       {},
}

func sensitiveKey(k string) bool {
	k = strings.ToLower(k)
	if _, ok := sensitiveKeys[k]; ok {
		return true
	}
	return strings.HasSuffix(k, "_enc") || strings.HasSuffix(k, "_encrypted")
}

// Sanitize returns a copy of m with sensitive keys redacted, descending into
// nested objects. Absent keys stay absent.
func Sanitize(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sensitiveKey(k) {
			if v != nil && v != "" {
				out[k] = redacted
			} else {
				out[k] = v
			}
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = Sanitize(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// Snapshot converts a JSON-serializable value into a snapshot map. Values
// that do not encode to a JSON object yield nil.
func Snapshot(v any) map[string]any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// Origin is the network origin of the request that caused a change.
type Origin struct {
	IP        string
	UserAgent string
}

type originKey struct{}

// WithOrigin stores the request origin for later audit entries.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

// OriginFromContext returns the stored origin, zero if none.
func OriginFromContext(ctx context.Context) Origin {
	o, _ := ctx.Value(originKey{}).(Origin)
	return o
}
