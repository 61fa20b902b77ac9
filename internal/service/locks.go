package service

import (
	"hash/fnv"
	"sync"
)

const lockShards = 64

// garageLocks serialises load-modify-save cycles on the same garage within
// one process. Ids are hashed onto a fixed set of mutexes, so unrelated
// garages may occasionally share one.
type garageLocks struct {
	shards [lockShards]sync.Mutex
}

// lock acquires the mutex for id and returns its release func.
func (l *garageLocks) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	m := &l.shards[h.Sum32()%lockShards]
	m.Lock()
	return m.Unlock
}
