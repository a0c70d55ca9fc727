package pool

import (
	"runtime"
	"sync"
	"weak"
)

// tags maps weak.Pointer[T] (boxed as any) to the Identity of the pool that
// created the entry. Keys are weak, so the registry never keeps an entry
// alive; a cleanup removes the key once the entry has been collected.
//
// The map is shared by every pool in the process and guarded by sync.Map:
// cleanups run on the runtime's cleanup goroutine.
var tags sync.Map

func tag[T any](entry *T, id Identity) {
	key := weak.Make(entry)
	if _, loaded := tags.Swap(key, id); loaded {
		return
	}
	runtime.AddCleanup(entry, untag[T], key)
}

func untag[T any](key weak.Pointer[T]) {
	tags.Delete(key)
}

func ownerOf[T any](entry *T) (Identity, bool) {
	if entry == nil {
		return "", false
	}
	v, ok := tags.Load(weak.Make(entry))
	if !ok {
		return "", false
	}
	return v.(Identity), true
}
