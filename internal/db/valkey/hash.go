package valkey

import (
	"context"
	"sort"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/supportdesk/internal/db"
)

// HSet sets hash fields. Fields are written in sorted order so commands are deterministic.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	cmd := s.b().Hset().Key(key).FieldValue()
	for _, k := range names {
		cmd = cmd.FieldValue(k, fields[k])
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields db.ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	if len(m) == 0 {
		return nil, db.ErrKeyNotFound
	}
	return m, nil
}
