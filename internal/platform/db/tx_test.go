package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

// fakeTx records commit and rollback; every other pgx.Tx method panics via
// the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error { f.committed = true; return nil }

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeBeginner struct {
	tx    *fakeTx
	calls int
	err   error
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestTxFromContext_Nil(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil tx from empty context")
	}
	if q := ConnFromContext(context.Background()); q != nil {
		t.Error("expected nil querier from empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), txKey, "not-a-tx")
	if tx := TxFromContext(ctx); tx != nil {
		t.Error("expected nil tx when context holds the wrong type")
	}
}

func TestInTx_Commits(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	err := InTx(context.Background(), b, func(ctx context.Context) error {
		if TxFromContext(ctx) == nil {
			t.Error("expected tx in context")
		}
		if ConnFromContext(ctx) == nil {
			t.Error("expected querier in context")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.tx.committed || b.tx.rolledBack {
		t.Errorf("expected commit only, got committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
	}
}

func TestInTx_RollsBackOnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	sentinel := errors.New("boom")

	err := InTx(context.Background(), b, func(ctx context.Context) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if b.tx.committed || !b.tx.rolledBack {
		t.Errorf("expected rollback only, got committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
	}
}

func TestInTx_JoinsExistingTransaction(t *testing.T) {
	outer := &fakeTx{}
	b := &fakeBeginner{tx: &fakeTx{}}

	ctx := WithTx(context.Background(), outer)
	err := InTx(ctx, b, func(ctx context.Context) error {
		if TxFromContext(ctx) != outer {
			t.Error("expected the outer transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.calls != 0 {
		t.Errorf("expected no new transaction, got %d Begin calls", b.calls)
	}
}

func TestInTx_BeginError(t *testing.T) {
	b := &fakeBeginner{err: errors.New("no connection")}
	err := InTx(context.Background(), b, func(ctx context.Context) error {
		t.Error("fn must not run when Begin fails")
		return nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
