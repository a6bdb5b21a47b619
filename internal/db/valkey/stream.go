package valkey

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/supportdesk/internal/db"
)

// XAdd appends an entry to a stream with a server-generated ID.
func (s *Store) XAdd(ctx context.Context, key string, maxLen int64, entry db.StreamEntry) (string, error) {
	if key == "" {
		return "", fmt.Errorf("stream key is required")
	}
	if len(entry.Fields) == 0 || len(entry.Fields) != len(entry.Values) {
		return "", fmt.Errorf("stream entry needs matching non-empty fields and values")
	}

	args := make([]string, 0, 4+2*len(entry.Fields))
	if maxLen > 0 {
		args = append(args, "MAXLEN", "~", strconv.FormatInt(maxLen, 10))
	}
	args = append(args, "*")
	for i, f := range entry.Fields {
		args = append(args, f, entry.Values[i])
	}

	cmd := s.b().Arbitrary("XADD").Keys(key).Args(args...).Build()
	id, err := s.do(ctx, cmd).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpXAdd, Err: err}
	}
	return id, nil
}
