package middleware

import "context"

type ctxKeySessionID struct{}

type ctxKeySIDHolder struct{}

type sidHolder struct {
	sid string
}

func withSIDHolder(ctx context.Context, h *sidHolder) context.Context {
	return context.WithValue(ctx, ctxKeySIDHolder{}, h)
}

// WithSessionID records the browser session id for logging and rate limiting.
func WithSessionID(ctx context.Context, sid string) context.Context {
	if h, ok := ctx.Value(ctxKeySIDHolder{}).(*sidHolder); ok {
		h.sid = sid
	}
	return context.WithValue(ctx, ctxKeySessionID{}, sid)
}

func GetSessionID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if sid, ok := ctx.Value(ctxKeySessionID{}).(string); ok {
		return sid
	}
	return ""
}
