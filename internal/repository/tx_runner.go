package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greg-hahn/cog-council-meetings/internal/service"
)

// TxRunner provides transactional repositories using a pgx pool. An error
// from fn rolls the transaction back, so an ingestion run can never leave a
// half-written meeting visible to readers.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	repos := &txRepos{tx: tx}
	if err := fn(repos); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) Meetings() service.MeetingRepositoryInterface {
	return NewMeetingRepositoryWithTx(r.tx)
}

func (r *txRepos) AgendaItems() service.AgendaItemRepositoryInterface {
	return NewAgendaItemRepositoryWithTx(r.tx)
}

func (r *txRepos) Tags() service.TagRepositoryInterface {
	return NewTagRepositoryWithTx(r.tx)
}
