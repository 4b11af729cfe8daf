package primitives

import "github.com/ValentinKolb/dLock/lib/store"

// Every operation is a single lua script so it executes atomically on the store.
// All scripts reply 1 on success and 0 otherwise.

// --------------------------------------------------------------------------
// Mutex
// --------------------------------------------------------------------------

// KEYS[1] = lock key, ARGV[1] = lock id, ARGV[2] = expiry in ms
var mutexAcquireScript = store.NewScript("mutex_acquire", `
if redis.call('set', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2]) then
	return 1
end
return 0
`)

// KEYS[1] = lock key, ARGV[1] = lock id, ARGV[2] = expiry in ms
var mutexExtendScript = store.NewScript("mutex_extend", `
if redis.call('get', KEYS[1]) == ARGV[1] then
	return redis.call('pexpire', KEYS[1], ARGV[2])
end
return 0
`)

// KEYS[1] = lock key, ARGV[1] = lock id
var mutexReleaseScript = store.NewScript("mutex_release", `
if redis.call('get', KEYS[1]) == ARGV[1] then
	return redis.call('del', KEYS[1])
end
return 0
`)

// --------------------------------------------------------------------------
// Semaphore
// --------------------------------------------------------------------------

// The sorted set holds one member per ticket, scored by the expiry of the
// ticket in server time (ms). The set itself lives 3x the ticket expiry so it
// is never collected while tickets are renewed.

// KEYS[1] = set key, ARGV[1] = lock id, ARGV[2] = expiry in ms, ARGV[3] = max count
var semaphoreAcquireScript = store.NewScript("semaphore_acquire", `
local t = redis.call('time')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local expiry = tonumber(ARGV[2])
redis.call('zremrangebyscore', KEYS[1], '-inf', now)
if redis.call('zcard', KEYS[1]) < tonumber(ARGV[3]) then
	redis.call('zadd', KEYS[1], now + expiry, ARGV[1])
	if redis.call('pttl', KEYS[1]) < 3 * expiry then
		redis.call('pexpire', KEYS[1], 3 * expiry)
	end
	return 1
end
return 0
`)

// KEYS[1] = set key, ARGV[1] = lock id, ARGV[2] = expiry in ms
var semaphoreExtendScript = store.NewScript("semaphore_extend", `
local t = redis.call('time')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
local expiry = tonumber(ARGV[2])
redis.call('zremrangebyscore', KEYS[1], '-inf', now)
if not redis.call('zscore', KEYS[1], ARGV[1]) then
	return 0
end
redis.call('zadd', KEYS[1], now + expiry, ARGV[1])
if redis.call('pttl', KEYS[1]) < 3 * expiry then
	redis.call('pexpire', KEYS[1], 3 * expiry)
end
return 1
`)

// KEYS[1] = set key, ARGV[1] = lock id
var semaphoreReleaseScript = store.NewScript("semaphore_release", `
return redis.call('zrem', KEYS[1], ARGV[1])
`)

// --------------------------------------------------------------------------
// Reader/writer lock
// --------------------------------------------------------------------------

// KEYS[1] = reader set, KEYS[2] = writer key, ARGV[1] = lock id, ARGV[2] = expiry in ms
var readAcquireScript = store.NewScript("read_acquire", `
if redis.call('exists', KEYS[2]) == 1 then
	return 0
end
redis.call('sadd', KEYS[1], ARGV[1])
if redis.call('pttl', KEYS[1]) < tonumber(ARGV[2]) then
	redis.call('pexpire', KEYS[1], ARGV[2])
end
return 1
`)

// KEYS[1] = reader set, ARGV[1] = lock id, ARGV[2] = expiry in ms
var readExtendScript = store.NewScript("read_extend", `
if redis.call('sismember', KEYS[1], ARGV[1]) == 0 then
	return 0
end
if redis.call('pttl', KEYS[1]) < tonumber(ARGV[2]) then
	redis.call('pexpire', KEYS[1], ARGV[2])
end
return 1
`)

// KEYS[1] = reader set, ARGV[1] = lock id
var readReleaseScript = store.NewScript("read_release", `
return redis.call('srem', KEYS[1], ARGV[1])
`)

// A writer that finds readers plants its waiting token in the writer key.
// New readers are turned away by it, and the writer takes over the key
// once the readers are gone.

// KEYS[1] = reader set, KEYS[2] = writer key, ARGV[1] = lock id,
// ARGV[2] = expiry in ms, ARGV[3] = waiting token
var writeAcquireScript = store.NewScript("write_acquire", `
local writer = redis.call('get', KEYS[2])
if writer and writer ~= ARGV[3] then
	return 0
end
if redis.call('scard', KEYS[1]) == 0 then
	redis.call('set', KEYS[2], ARGV[1], 'PX', ARGV[2])
	return 1
end
redis.call('set', KEYS[2], ARGV[3], 'PX', ARGV[2])
return 0
`)

// KEYS[1] = writer key, ARGV[1] = lock id, ARGV[2] = waiting token
var writeReleaseScript = store.NewScript("write_release", `
local writer = redis.call('get', KEYS[1])
if writer == ARGV[1] or writer == ARGV[2] then
	return redis.call('del', KEYS[1])
end
return 0
`)
