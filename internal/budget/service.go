// Package budget ties a ledger to its store: every change is saved before
// it is reported as done.
package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/theirongolddev/sobres/internal/ledger"
	"github.com/theirongolddev/sobres/internal/logging"
	"github.com/theirongolddev/sobres/internal/model"
	"github.com/theirongolddev/sobres/internal/store"
)

// Service owns the ledger of one namespace. It is safe for concurrent use.
type Service struct {
	mu        sync.Mutex
	store     store.Store
	namespace string
	log       *slog.Logger
	ledger    *ledger.Ledger
}

// Open loads the ledger saved under namespace. A namespace with nothing
// saved starts empty with the default allocations, and is saved at once.
func Open(ctx context.Context, st store.Store, namespace string, logger *slog.Logger) (*Service, error) {
	s := &Service{
		store:     st,
		namespace: namespace,
		log:       logging.Component(logger, logging.ComponentBudget).With(logging.FieldNamespace, namespace),
	}

	rec, err := st.Load(ctx, namespace)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.ledger = ledger.New(model.DefaultCategories)
		if err := s.save(ctx); err != nil {
			return nil, err
		}
		s.log.Info("created ledger")
	case err != nil:
		return nil, fmt.Errorf("loading ledger: %w", err)
	default:
		l, err := ledger.Restore(model.DefaultCategories, rec.State)
		if err != nil {
			return nil, err
		}
		s.ledger = l
		s.log.Debug("loaded ledger", logging.FieldRevision, rec.Revision, "transactions", l.Len())
	}
	return s, nil
}

// Namespace returns the namespace this service writes to.
func (s *Service) Namespace() string {
	return s.namespace
}

// View runs fn with read access to the ledger. fn must not keep l.
func (s *Service) View(fn func(l *ledger.Ledger)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ledger)
}

// State returns a copy of the current ledger state.
func (s *Service) State() ledger.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.State()
}

// Add records a transaction and saves.
func (s *Service) Add(ctx context.Context, in ledger.TransactionInput, confirm ledger.ConfirmFunc) (model.Transaction, error) {
	var tx model.Transaction
	err := s.mutate(ctx, "add", func(l *ledger.Ledger) error {
		var err error
		tx, err = l.Add(in, confirm)
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	s.log.Info("added transaction", logging.FieldTxID, tx.ID, "type", tx.Type, logging.FieldAmount, int64(tx.Amount))
	return tx, nil
}

// Edit replaces a transaction and saves.
func (s *Service) Edit(ctx context.Context, id int64, in ledger.TransactionInput, confirm ledger.ConfirmFunc) (model.Transaction, error) {
	var tx model.Transaction
	err := s.mutate(ctx, "edit", func(l *ledger.Ledger) error {
		var err error
		tx, err = l.Edit(id, in, confirm)
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	s.log.Info("edited transaction", logging.FieldTxID, tx.ID)
	return tx, nil
}

// Delete removes a transaction and saves.
func (s *Service) Delete(ctx context.Context, id int64) (model.Transaction, error) {
	var tx model.Transaction
	err := s.mutate(ctx, "delete", func(l *ledger.Ledger) error {
		var err error
		tx, err = l.Delete(id)
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	s.log.Info("deleted transaction", logging.FieldTxID, tx.ID)
	return tx, nil
}

// SetAllocations replaces the allocation set and saves.
func (s *Service) SetAllocations(ctx context.Context, set []model.Allocation) error {
	err := s.mutate(ctx, "set_allocations", func(l *ledger.Ledger) error {
		return l.SetAllocations(set)
	})
	if err == nil {
		s.log.Info("updated allocations", "entries", len(set))
	}
	return err
}

// Import replaces the whole ledger with st and saves.
func (s *Service) Import(ctx context.Context, st ledger.State) error {
	l, err := ledger.Restore(model.DefaultCategories, st)
	if err != nil {
		return err
	}
	err = s.mutate(ctx, "import", func(*ledger.Ledger) error {
		s.ledger = l
		return nil
	})
	if err == nil {
		s.log.Info("imported ledger", "transactions", l.Len())
	}
	return err
}

// Reset discards every transaction and restores the default allocations.
func (s *Service) Reset(ctx context.Context) error {
	err := s.mutate(ctx, "reset", func(*ledger.Ledger) error {
		s.ledger = ledger.New(model.DefaultCategories)
		return nil
	})
	if err == nil {
		s.log.Warn("reset ledger")
	}
	return err
}

// mutate applies fn and saves. If fn fails nothing changed; if the save
// fails the ledger is put back the way it was.
func (s *Service) mutate(ctx context.Context, op string, fn func(l *ledger.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.ledger
	before := prev.State()
	if err := fn(s.ledger); err != nil {
		s.ledger = prev
		return err
	}

	if err := s.save(ctx); err != nil {
		restored, rerr := ledger.Restore(prev.Catalog(), before)
		if rerr != nil {
			return errors.Join(err, rerr)
		}
		s.ledger = restored
		s.log.Error("save failed, change rolled back", logging.FieldOperation, op, logging.FieldError, err)
		return err
	}
	return nil
}

func (s *Service) save(ctx context.Context) error {
	if err := s.store.Save(ctx, s.namespace, s.ledger.State()); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	return nil
}
