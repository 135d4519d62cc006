package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/tests"
)

func insertCourse(ctx context.Context, tx core.DBExecutor, title string) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO courses (title) VALUES (?)`), title)
	return err
}

func TestRunInTx(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		timeout   time.Duration
		fn        func(ctx context.Context, tx core.DBExecutor) error
		wantErr   error
		wantCount int
	}{
		{
			name: "commit",
			fn: func(ctx context.Context, tx core.DBExecutor) error {
				return insertCourse(ctx, tx, "Physics")
			},
			wantCount: 1,
		},
		{
			name:    "commit within timeout",
			timeout: time.Minute,
			fn: func(ctx context.Context, tx core.DBExecutor) error {
				return insertCourse(ctx, tx, "Physics")
			},
			wantCount: 1,
		},
		{
			name: "rollback on error",
			fn: func(ctx context.Context, tx core.DBExecutor) error {
				if err := insertCourse(ctx, tx, "Physics"); err != nil {
					return err
				}
				return boom
			},
			wantErr: boom,
		},
		{
			name:    "rollback on timeout",
			timeout: 50 * time.Millisecond,
			fn: func(ctx context.Context, tx core.DBExecutor) error {
				if err := insertCourse(ctx, tx, "Physics"); err != nil {
					return err
				}
				<-ctx.Done()
				return ctx.Err()
			},
			wantErr: context.DeadlineExceeded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.PrepareDB(t)

			err := core.RunInTx(context.Background(), db, tt.timeout, tt.fn)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "err = %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCount, testutil.Count(t, db, "courses", ""))
		})
	}
}

func TestRunInTx_expired(t *testing.T) {
	db := testutil.PrepareDB(t)

	err := core.RunInTx(context.Background(), db, time.Nanosecond, func(ctx context.Context, tx core.DBExecutor) error {
		return insertCourse(ctx, tx, "Physics")
	})
	assert.Error(t, err)
	assert.Zero(t, testutil.Count(t, db, "courses", ""))
}
