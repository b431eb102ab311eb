package requestdata

import (
	"context"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a core operation. Authentication is
// handled upstream; handlers receive identity via trusted headers and pass it
// down explicitly.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.UserID == uuid.Nil {
		return Actor{}, false
	}
	return actor, true
}
