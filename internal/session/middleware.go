package session

import (
	"context"
	"net/http"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/middleware"
)

type ctxKeyStore struct{}

func WithStore(ctx context.Context, st *Store) context.Context {
	return context.WithValue(ctx, ctxKeyStore{}, st)
}

// FromContext returns the store attached by Attach, or nil.
func FromContext(ctx context.Context) *Store {
	st, _ := ctx.Value(ctxKeyStore{}).(*Store)
	return st
}

// Attach resolves the browser's session from its cookie, creating one when
// the cookie is missing, invalid or names an evicted session.
func Attach(reg *Registry, codec *CookieCodec, writeErr middleware.WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var st *Store
			if sid, err := codec.Decode(r); err == nil {
				st, _ = reg.Get(sid)
			}

			if st == nil {
				var err error
				st, err = reg.Create()
				if err != nil {
					writeErr(w, r, domain.ErrInternal(err))
					return
				}
				ck, err := codec.Encode(st.ID())
				if err != nil {
					reg.Remove(st.ID())
					writeErr(w, r, domain.ErrInternal(err))
					return
				}
				http.SetCookie(w, ck)
			}

			ctx := WithStore(r.Context(), st)
			ctx = middleware.WithSessionID(ctx, st.ID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveIdentity is the guards' identity source: it waits for the session's
// first profile load before answering.
func ResolveIdentity(r *http.Request) *domain.Identity {
	st := FromContext(r.Context())
	if st == nil {
		return nil
	}
	return st.EnsureLoaded(r.Context())
}
