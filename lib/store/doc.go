// Package store defines the boundary between the lock algorithms and the
// independent stores they coordinate through.
//
// The package focuses on:
//   - A unified interface (IStore) for running atomic scripts against one store
//   - A cheap, round-trip free liveness probe (IsConnected)
//   - Unified error handling through typed return codes
//
// Key Components:
//
//   - IStore Interface: every primitive operation (acquire, extend, release of
//     a mutex, semaphore ticket or reader/writer slot) is a single atomic lua
//     script executed through EvalInt. Scripts only ever reply with integers.
//
//   - Script: a named lua script. The hash is computed once so implementations
//     can use EVALSHA and only send the full source on a cache miss.
//
//   - Error System: a structured error reporting mechanism using typed error
//     codes. Errors keep the name of the failing store so aggregated quorum
//     errors stay readable.
//
// Implementations:
//
//	- Redis Store (rstore): built on go-redis. Connection state is tracked
//	  with a client hook so IsConnected never touches the network.
//	  Available in the "github.com/ValentinKolb/dLock/lib/store/rstore" package.
//
// Stores are always owned by the caller. The lock packages never close them
// and never assume exclusive access to the connection.
package store
