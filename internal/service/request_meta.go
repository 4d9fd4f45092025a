package service

import (
	"context"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
)

// RequestMeta identifies who triggered an operation. It is attached to audit
// entries.
type RequestMeta struct {
	Actor     string
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta stores meta on ctx.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the meta stored on ctx with the actor defaulted.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	if meta.Actor == "" {
		meta.Actor = models.AuditDefaultActor
	}
	return meta
}

func withActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	meta := RequestMetaFrom(ctx)
	meta.Actor = actor
	return WithRequestMeta(ctx, meta)
}
