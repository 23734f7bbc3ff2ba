package session

import (
	"context"
	"errors"

	"github.com/pedro664/TimTimBebidas-sub000/internal/kv"
)

// migrateLegacy moves data written by the pre-session storefront, which
// kept entities under bare un-namespaced keys, into the current session's
// namespace. Runs once per store construction and is a no-op when there
// is no legacy data or the namespaced key already exists.
func (s *Store) migrateLegacy(ctx context.Context) {
	for _, kind := range EntityKinds() {
		data, err := s.backend.Get(ctx, kind)
		if errors.Is(err, kv.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("legacy migration read failed", "entity", kind, "error", err)
			continue
		}

		target := s.key(kind)
		if _, err := s.backend.Get(ctx, target); errors.Is(err, kv.ErrKeyNotFound) {
			if err := s.backend.Set(ctx, target, data); err != nil {
				s.logger.Warn("legacy migration write failed", "entity", kind, "error", err)
				continue
			}
		}
		if err := s.backend.Delete(ctx, kind); err != nil {
			s.logger.Warn("legacy migration cleanup failed", "entity", kind, "error", err)
		}
		s.logger.Info("migrated legacy entry", "entity", kind)
	}
}
