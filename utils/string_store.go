package utils

import (
	"strings"
	"sync"
)

// StringStore interns lowercased strings so phrase sets built from the same
// vocabulary share backing memory. Once every set is loaded the service
// calls Lock; a locked store hands out one-off pointers for unknown strings
// instead of growing.
type StringStore interface {
	GetPointer(s string) *string
	GetPointers(ss []string) []*string
	Lock()
	IsLocked() bool
}

var globalStore *internTable
var globalStoreOnce sync.Once

func GlobalStringStore() StringStore {
	globalStoreOnce.Do(func() {
		globalStore = &internTable{}
	})
	return globalStore
}

type internTable struct {
	entries sync.Map // map[string]*string
	locked  bool
}

func (table *internTable) GetPointer(s string) *string {
	lower := strings.ToLower(s)
	if table.locked {
		if ptr, ok := table.entries.Load(lower); ok {
			return ptr.(*string)
		}
		return &lower
	}
	ptr, _ := table.entries.LoadOrStore(lower, &lower)
	return ptr.(*string)
}

func (table *internTable) GetPointers(ss []string) []*string {
	ptrs := make([]*string, len(ss))
	for i, s := range ss {
		ptrs[i] = table.GetPointer(s)
	}
	return ptrs
}

func (table *internTable) Lock() {
	table.locked = true
}

func (table *internTable) IsLocked() bool {
	return table.locked
}
