// Package memory provides the in-memory snapshot DAO used by default.
package memory

import (
	"github.com/viant/procadj/service/dao"
	"github.com/viant/procadj/service/dao/snapshot"
	"github.com/viant/procadj/service/dao/store"
)

// Service stores snapshots keyed by their pass id.
type Service struct {
	*store.MemoryStore[string, snapshot.Snapshot]
}

var _ dao.Service[string, snapshot.Snapshot] = (*Service)(nil)

func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, snapshot.Snapshot](
			func(s *snapshot.Snapshot) string { return s.ID }),
	}
}
