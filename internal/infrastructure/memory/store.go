// Package memory implementa los puertos del libro mayor y de saldos en memoria, con la misma
// disciplina transaccional que PostgreSQL: bloqueo exclusivo por llave hasta Commit/Rollback,
// escrituras preparadas que solo se vuelven visibles al confirmar, y timeout de bloqueo.
// Se usa en tests y con STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store almacenamiento en memoria con bloqueo por llave.
type Store struct {
	mu       sync.RWMutex
	balances map[entity.BalanceKey]*entity.StockBalance
	entries  []*entity.StockLedgerEntry // orden de inserción

	locksMu sync.Mutex
	locks   map[entity.BalanceKey]*keyLock

	lockTimeout time.Duration
}

// Option configura el Store.
type Option func(*Store)

// WithLockTimeout límite de espera al bloquear una llave. 0 = esperar hasta que ctx termine.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// NewStore construye un Store vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		balances: make(map[entity.BalanceKey]*entity.StockBalance),
		locks:    make(map[entity.BalanceKey]*keyLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ejecuta fn dentro de una transacción. Commit si fn retorna nil; si no, descarta todo.
// Los bloqueos se liberan después de aplicar (o descartar) las escrituras.
func (s *Store) Run(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	tx := &transaction{
		store:  s,
		held:   make(map[entity.BalanceKey]bool),
		staged: make(map[entity.BalanceKey]*entity.StockBalance),
	}
	defer tx.releaseAll()

	if err := fn(&ledgerRepo{store: s, tx: tx}, &balanceRepo{store: s, tx: tx}); err != nil {
		tx.done = true
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.done = true
		return err
	}
	tx.commit()
	return nil
}

// Ledger repositorio fuera de transacción (lecturas; Append confirma de inmediato).
func (s *Store) Ledger() repository.LedgerRepository {
	return &ledgerRepo{store: s}
}

// Balances lector de saldos sin bloqueo.
func (s *Store) Balances() repository.BalanceReader {
	return &balanceRepo{store: s}
}

// keyLock semáforo de una llave. refs cuenta dueño y espera; en cero se borra del mapa.
type keyLock struct {
	ch   chan struct{}
	refs int
}

func (s *Store) retain(key entity.BalanceKey) *keyLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		s.locks[key] = l
	}
	l.refs++
	return l
}

func (s *Store) unretain(key entity.BalanceKey, l *keyLock) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
}

func (s *Store) acquire(ctx context.Context, key entity.BalanceKey) error {
	l := s.retain(key)
	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		t := time.NewTimer(s.lockTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		s.unretain(key, l)
		return ctx.Err()
	case <-timeout:
		s.unretain(key, l)
		return domain.ErrLockTimeout
	}
}

func (s *Store) release(key entity.BalanceKey) {
	s.locksMu.Lock()
	l := s.locks[key]
	s.locksMu.Unlock()
	<-l.ch
	s.unretain(key, l)
}

func (s *Store) committedBalance(key entity.BalanceKey) *entity.StockBalance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[key].Clone()
}

// transaction estado de una transacción; solo lo usa la goroutine que ejecuta Run.
type transaction struct {
	store   *Store
	held    map[entity.BalanceKey]bool
	order   []entity.BalanceKey
	staged  map[entity.BalanceKey]*entity.StockBalance
	entries []*entity.StockLedgerEntry
	done    bool
}

func (tx *transaction) commit() {
	s := tx.store
	s.mu.Lock()
	for key, b := range tx.staged {
		s.balances[key] = b
	}
	s.entries = append(s.entries, tx.entries...)
	s.mu.Unlock()
	tx.done = true
}

func (tx *transaction) releaseAll() {
	tx.done = true
	for _, key := range tx.order {
		tx.store.release(key)
	}
	tx.order = nil
	tx.held = map[entity.BalanceKey]bool{}
}

func sortBalances(list []*entity.StockBalance) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].WarehouseID != list[j].WarehouseID {
			return list[i].WarehouseID < list[j].WarehouseID
		}
		return list[i].ProductID < list[j].ProductID
	})
}

func sumSigned(entries []*entity.StockLedgerEntry, key entity.BalanceKey) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		if e.Key() == key {
			sum = sum.Add(e.SignedQuantity())
		}
	}
	return sum
}

func nowUTC() time.Time { return time.Now().UTC() }
