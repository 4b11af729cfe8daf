// Package rstore implements store.IStore on top of a go-redis client.
//
// Scripts are executed with EVALSHA and transparently retried with EVAL
// when the server does not know the script yet (see redis.Script.Run).
//
// Connection Tracking:
//
//	A go-redis hook observes every dial and command. Network level errors
//	mark the store as disconnected, any reply of the server (including
//	nil replies and redis error replies) marks it as connected again.
//	IsConnected only reads this flag and therefore never blocks. A fresh
//	store is assumed to be connected.
package rstore
