// Package redisstore implements the orchestration primitives of the store
// package on top of Redis: the result cache, the lock manager, the progress
// tracker and the job lanes.
//
// Key layout:
//
//	<domain>:<subject>:<item>            cached artifact
//	lock:<domain>:<subject>:<item>       lock token
//	progress:<domain>:<subject>:<item>   JSON progress record
//	queue:<lane>                         list of JSON jobs (LPUSH / BRPOP)
package redisstore
