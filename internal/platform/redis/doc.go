// Package redis provides the Redis-backed task registry and the pub/sub event
// bus. Admission and transitions run as Lua scripts so that concurrent API and
// worker processes observe one consistent per-tenant ceiling.
package redis
