// Package redis wraps go-redis with service logging and the component
// lifecycle. It backs the shared OAuth2 pending-state store, so every
// instance behind a load balancer can complete a flow another began.
//
// TypedStore stores JSON values under a key prefix; Take reads and deletes
// a key in one round trip so a value can be consumed at most once:
//
//	pending := redis.NewTypedStore[entry](client, "oauth2:state")
//	_ = pending.Save(ctx, state, &entry{...}, 10*time.Minute)
//	got, err := pending.Take(ctx, state) // nil, nil once consumed
package redis
