package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasksync/tasksync-api/internal/config"
	"github.com/tasksync/tasksync-api/internal/domain"
	"github.com/tasksync/tasksync-api/internal/metrics"
	"github.com/tasksync/tasksync-api/internal/platform/memory"
	"github.com/tasksync/tasksync-api/internal/platform/postgres"
	redisstore "github.com/tasksync/tasksync-api/internal/platform/redis"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, backend string) *application {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &application{
		config: &config.Config{Auth: config.AuthConfig{RevocationBackend: backend}},
		logger: discardLogger(),
		db:     db,
	}
}

func TestSetupRevocations(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		app := newTestApp(t, config.RevocationMemory)
		require.NoError(t, app.setupRevocations(ctx))
		assert.IsType(t, &memory.RevocationStore{}, app.revocations)
		assert.Len(t, app.janitors, 1)
	})

	t.Run("postgres", func(t *testing.T) {
		app := newTestApp(t, config.RevocationPostgres)
		require.NoError(t, app.setupRevocations(ctx))
		assert.IsType(t, &postgres.PostgresRevocationStore{}, app.revocations)
		assert.Len(t, app.janitors, 1)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		app := newTestApp(t, config.RevocationRedis)
		app.config.Redis.URL = "redis://" + mr.Addr()

		require.NoError(t, app.setupRevocations(ctx))
		t.Cleanup(func() { _ = app.redis.Close() })
		assert.IsType(t, &redisstore.RevocationStore{}, app.revocations)
		assert.Empty(t, app.janitors)

		require.NoError(t, app.revocations.Revoke(ctx, "abc", time.Minute))
		revoked, err := app.revocations.IsRevoked(ctx, "abc")
		require.NoError(t, err)
		assert.True(t, revoked)
		assert.Len(t, mr.Keys(), 1)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		app := newTestApp(t, config.RevocationRedis)
		app.config.Redis.URL = "redis://127.0.0.1:1"
		assert.Error(t, app.setupRevocations(ctx))
		assert.Nil(t, app.revocations)
	})

	t.Run("unknown backend", func(t *testing.T) {
		app := newTestApp(t, "etcd")
		assert.ErrorContains(t, app.setupRevocations(ctx), `unknown revocation backend "etcd"`)
	})
}

func TestNewMailerAndPublisher_Disabled(t *testing.T) {
	assert.Nil(t, newMailer(config.MailConfig{}, nil))
	assert.Nil(t, newPublisher(config.PusherConfig{}, nil))

	assert.NotNil(t, newMailer(config.MailConfig{Enabled: true, Host: "smtp.example.com", Port: 587, From: "no-reply@example.com"}, discardLogger()))
	assert.NotNil(t, newPublisher(config.PusherConfig{Enabled: true, AppID: "1", Key: "k", Secret: "s", Cluster: "eu"}, discardLogger()))
}

type recordingAccountNotifier struct {
	created, logins int
}

func (r *recordingAccountNotifier) AccountCreated(*domain.User) { r.created++ }
func (r *recordingAccountNotifier) LoginSucceeded(*domain.User) { r.logins++ }

func TestAccountEvents(t *testing.T) {
	m := metrics.New()
	next := &recordingAccountNotifier{}
	events := &accountEvents{next: next, metrics: m}

	events.AccountCreated(&domain.User{})
	events.LoginSucceeded(&domain.User{})
	events.LoginSucceeded(&domain.User{})

	assert.Equal(t, 1, next.created)
	assert.Equal(t, 2, next.logins)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthSuccessesTotal.WithLabelValues("signup")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthSuccessesTotal.WithLabelValues("login")))
}

func TestEvery_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})

	go func() {
		every(ctx, time.Millisecond, func() { calls.Add(1) })
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("every did not return after cancel")
	}
}

func TestSlogGooseLogger(t *testing.T) {
	var buf bytes.Buffer
	l := &slogGooseLogger{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	l.Printf("OK   %s (%v)\n", "00001_create_users.sql", "1ms")
	l.Fatalf("failed to run %s", "00002_create_tasks.sql")

	out := buf.String()
	assert.Contains(t, out, `"level":"INFO","msg":"OK   00001_create_users.sql (1ms)"`)
	assert.Contains(t, out, `"level":"ERROR","msg":"failed to run 00002_create_tasks.sql"`)
}

func TestMigrateCmd_Args(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr bool
	}{
		{nil, false},
		{[]string{"up"}, false},
		{[]string{"status"}, false},
		{[]string{"reset"}, false},
		{[]string{"create"}, true},
		{[]string{"up", "down"}, true},
	}
	for _, tt := range tests {
		err := migrateCmd.Args(migrateCmd, tt.args)
		if tt.wantErr {
			assert.Error(t, err, "args %v", tt.args)
		} else {
			assert.NoError(t, err, "args %v", tt.args)
		}
	}
}
