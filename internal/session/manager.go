package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/cartflow/internal/remote"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/types"
)

// Manager owns the durable identity of one browsing session: which cart
// is active and which order was created last.
type Manager struct {
	store Store
	key   string
	logg  *logger.Logger
	now   func() time.Time
}

// NewManager builds a manager keyed by namespace and session id.
func NewManager(store Store, namespace, sessionID string, logg *logger.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if strings.TrimSpace(namespace) == "" {
		namespace = "cartflow"
	}
	return &Manager{
		store: store,
		key:   fmt.Sprintf("%s:session:%s", namespace, sessionID),
		logg:  logg,
		now:   time.Now,
	}, nil
}

// Key returns the storage key this session writes under.
func (m *Manager) Key() string {
	return m.key
}

// PersistCartID records the active cart id, keeping the last order id.
func (m *Manager) PersistCartID(ctx context.Context, cartID string) error {
	record, _, err := m.store.Load(ctx, m.key)
	if err != nil {
		return err
	}
	if record.CartID == cartID {
		return nil
	}
	record.CartID = cartID
	return m.store.Save(ctx, m.key, record)
}

// ClearCartID drops the active cart id, keeping the last order id.
func (m *Manager) ClearCartID(ctx context.Context) error {
	record, found, err := m.store.Load(ctx, m.key)
	if err != nil {
		return err
	}
	if !found || record.CartID == "" {
		return nil
	}
	record.CartID = ""
	return m.store.Save(ctx, m.key, record)
}

// PersistLastOrderID records the most recently created order,
// independent of the cart lifecycle.
func (m *Manager) PersistLastOrderID(ctx context.Context, orderID string) error {
	record, _, err := m.store.Load(ctx, m.key)
	if err != nil {
		return err
	}
	record.LastOrderID = orderID
	return m.store.Save(ctx, m.key, record)
}

// CartID returns the persisted cart id, if any.
func (m *Manager) CartID(ctx context.Context) (string, error) {
	record, _, err := m.store.Load(ctx, m.key)
	if err != nil {
		return "", err
	}
	return record.CartID, nil
}

// LastOrderID returns the persisted order id, if any.
func (m *Manager) LastOrderID(ctx context.Context) (string, error) {
	record, _, err := m.store.Load(ctx, m.key)
	if err != nil {
		return "", err
	}
	return record.LastOrderID, nil
}

// Recover restores cart state after a process restart. Order: persisted
// cart id, then the identified user's active cart, then nothing. A cart
// that is gone or expired clears the persisted id instead of being
// reused. A nil snapshot with nil error means the session starts empty
// and a cart is created lazily on the first item mutation.
func (m *Manager) Recover(ctx context.Context, svc remote.Service, userID string) (*types.CartSnapshot, error) {
	record, _, err := m.store.Load(ctx, m.key)
	if err != nil {
		return nil, err
	}

	if record.CartID != "" {
		snapshot, err := svc.GetCart(ctx, record.CartID)
		switch {
		case err == nil && !snapshot.Expired(m.now()):
			return snapshot, nil
		case err == nil:
			m.logg.Info(m.logg.WithCartID(ctx, record.CartID), "persisted cart expired; discarding")
			if err := m.ClearCartID(ctx); err != nil {
				return nil, err
			}
		case pkgerrors.Is(err, pkgerrors.CodeNotFound):
			m.logg.Info(m.logg.WithCartID(ctx, record.CartID), "persisted cart no longer exists; discarding")
			if err := m.ClearCartID(ctx); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	if strings.TrimSpace(userID) != "" {
		snapshot, err := svc.GetCartByUser(ctx, userID)
		switch {
		case err == nil && !snapshot.Expired(m.now()):
			if err := m.PersistCartID(ctx, snapshot.ID); err != nil {
				return nil, err
			}
			return snapshot, nil
		case err == nil:
			// Expired user cart; start empty.
		case pkgerrors.Is(err, pkgerrors.CodeNotFound):
			// No active cart for this user.
		default:
			return nil, err
		}
	}

	return nil, nil
}
