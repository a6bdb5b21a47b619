package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func newService(dbErr, embErr, complErr error) *Service {
	return New(map[string]Checker{
		"database":   PingChecker{DB: &mockDBPinger{err: dbErr}},
		"embedding":  &mockChecker{err: embErr},
		"completion": &mockChecker{err: complErr},
	})
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	r := newService(nil, nil, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"database", "embedding", "completion"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DBError(t *testing.T) {
	r := newService(errors.New("conn refused"), nil, nil).Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_CompletionError(t *testing.T) {
	r := newService(nil, nil, errors.New("401")).Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["completion"] != CheckError {
		t.Errorf("expected completion %q, got %q", CheckError, r.Checks["completion"])
	}
}

func TestCheck_AllDown(t *testing.T) {
	boom := errors.New("boom")
	r := newService(boom, boom, boom).Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestNew_SkipsNil(t *testing.T) {
	svc := New(map[string]Checker{"database": PingChecker{DB: &mockDBPinger{}}, "embedding": nil})

	names := svc.Names()
	if len(names) != 1 || names[0] != "database" {
		t.Errorf("names = %v", names)
	}
	r := svc.Check(context.Background())
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("nil checker should not be reported")
	}
}
