package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxFunc - функция, выполняемая внутри транзакции.
type TxFunc func(tx pgx.Tx) error

// Transactor выполняет функцию в одной транзакции.
type Transactor interface {
	ExecuteInTransaction(ctx context.Context, fn TxFunc) error
}

// TxBeginner - то, что умеет начинать транзакцию (pgxpool.Pool, pgx.Conn).
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager реализует Transactor поверх пула pgx.
type TxManager struct {
	db TxBeginner
}

var _ Transactor = (*TxManager)(nil)

// NewTxManager создает TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{db: pool}
}

// ExecuteInTransaction выполняет fn в транзакции.
// Ошибка fn приводит к откату, иначе транзакция фиксируется.
func (m *TxManager) ExecuteInTransaction(ctx context.Context, fn TxFunc) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("ошибка при выполнении транзакции: %w (ошибка отката: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}
