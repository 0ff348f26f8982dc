package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCartHandleExpired(t *testing.T) {
	now := time.Now()

	if (CartHandle{}).Expired(now) {
		t.Fatal("zero handle should never be expired")
	}

	live := CartHandle{CartID: "c1", ExpiresAt: now.Add(time.Hour)}
	if live.Expired(now) {
		t.Fatal("future expiry should not be expired")
	}

	dead := CartHandle{CartID: "c1", ExpiresAt: now.Add(-time.Minute)}
	if !dead.Expired(now) {
		t.Fatal("past expiry should be expired")
	}

	noExpiry := CartHandle{CartID: "c1"}
	if noExpiry.Expired(now) {
		t.Fatal("handle without expiry should not be treated as expired")
	}
}

func TestSnapshotHandleAndItemLookup(t *testing.T) {
	snap := &CartSnapshot{
		ID:        "cart-1",
		ExpiresAt: time.Now().Add(time.Hour),
		Items: []CartItem{
			{ProductID: "p1", Quantity: 2, UnitPrice: decimal.NewFromInt(5)},
			{ProductID: "p1", VariantID: "v2", Quantity: 1, UnitPrice: decimal.NewFromInt(7)},
		},
	}

	handle := snap.Handle()
	if handle.CartID != "cart-1" || handle.IsZero() {
		t.Fatalf("unexpected handle %+v", handle)
	}

	if _, ok := snap.Item("p1", "v2"); !ok {
		t.Fatal("expected variant line to resolve")
	}
	if item, ok := snap.Item("p1", ""); !ok || item.Quantity != 2 {
		t.Fatalf("expected base line with qty 2, got %+v ok=%v", item, ok)
	}
	if _, ok := snap.Item("p9", ""); ok {
		t.Fatal("unknown product should not resolve")
	}

	var nilSnap *CartSnapshot
	if !nilSnap.Handle().IsZero() {
		t.Fatal("nil snapshot must yield zero handle")
	}
	if nilSnap.Expired(time.Now()) {
		t.Fatal("nil snapshot is not expired")
	}
}
