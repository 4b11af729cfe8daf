// Package primitives implements the per-store side of the dLock primitives.
//
// Every primitive is a small value describing one acquire attempt: its
// key(s), its lock id and its timeouts. Each operation on a single store is
// one lua script, so it is atomic on that store:
//
//	Mutex       SET key id NX PX expiry / compare + PEXPIRE / compare + DEL
//	Semaphore   sorted set scored by ticket expiry (server time), purged on
//	            every acquire and extend, admits while ZCARD < maxCount
//	ReadLock    member of the reader set, refused while a writer key exists
//	WriteLock   writer key, only taken while the reader set is empty; a
//	            writer blocked by readers parks its waiting token in the key
//
// The primitives implement redlock.Primitive and are driven across all
// stores by the redlock package.
package primitives
