package shared

import "context"

// Actor identifies who is invoking a state change. Populated by the HTTP
// layer from request headers; authentication itself lives in front of this
// service.
type Actor struct {
	Name string
	Role string
}

type actorContextKey struct{}

// ContextWithActor stores the acting user in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting user, zero value when absent.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
