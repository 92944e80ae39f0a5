package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue is the placeholder used for sensitive fields in logs.
const RedactedValue = "[REDACTED]"

// MaskSecret returns a slog.Attr whose value is always redacted when
// non-empty. Private keys and RPC credentials must never reach log output.
func MaskSecret(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskEndpoint strips userinfo and query strings from an RPC endpoint so the
// host can be logged without leaking embedded API keys.
func MaskEndpoint(endpoint string) string {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return trimmed
	}
	if idx := strings.Index(trimmed, "?"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if at := strings.LastIndex(trimmed, "@"); at >= 0 {
		if scheme := strings.Index(trimmed, "://"); scheme >= 0 {
			trimmed = trimmed[:scheme+3] + RedactedValue + trimmed[at:]
		}
	}
	return trimmed
}
