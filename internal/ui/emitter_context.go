package ui

import "context"

type emitterKey struct{}

// WithEmitter attaches the preview emitter for the current generation run.
func WithEmitter(ctx context.Context, emitter Emitter) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, emitterKey{}, emitter)
}

func EmitterFrom(ctx context.Context) Emitter {
	if ctx == nil {
		return nil
	}
	em, _ := ctx.Value(emitterKey{}).(Emitter)
	return em
}

// Emit sends event to the emitter attached to ctx, if any.
func Emit(ctx context.Context, event Event) {
	if em := EmitterFrom(ctx); em != nil {
		em.EmitUIEvent(event)
	}
}
