package stocksync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"

	"stockfinder/internal/domain"
	"stockfinder/internal/repos"
)

func TestParse(t *testing.T) {
	e, err := Parse([]byte(`{"productId":1,"storeId":2,"quantity":7}`))
	if err != nil || e.ProductID != 1 || e.StoreID != 2 || e.Quantity != 7 {
		t.Fatalf("got %+v %v", e, err)
	}
	for _, bad := range []string{
		`{"productId":1,"storeId":2,"quantity":-1}`,
		`{"productId":1,"storeId":2}`,
		`{"productId":0,"storeId":2,"quantity":1}`,
		`{"storeId":2,"quantity":1}`,
		`{"productId":1,"quantity":1}`,
		`not json`,
	} {
		if _, err := Parse([]byte(bad)); !errors.Is(err, ErrBadUpdate) {
			t.Errorf("Parse(%s) = %v, want ErrBadUpdate", bad, err)
		}
	}
}

func TestApplyUpsertsStock(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	stock := repos.NewStockRepo(db)

	applied := 0
	a := &Applier{Stock: stock, OnApplied: func(context.Context) { applied++ }}
	ctx := context.Background()

	if err := a.Apply(ctx, []byte(`{"productId":1,"storeId":1,"quantity":33}`)); err != nil {
		t.Fatal(err)
	}
	if rows, err := stock.ForProduct(ctx, 1); err != nil || len(rows) == 0 || rows[0].StoreID != 1 || rows[0].Quantity != 33 {
		t.Fatalf("stock rows = %+v err=%v", rows, err)
	}
	if err := a.Apply(ctx, []byte(`{"productId":404,"storeId":1,"quantity":1}`)); !errors.Is(err, repos.ErrUnknownReference) {
		t.Fatalf("unknown product should be rejected, got %v", err)
	}
	if applied != 1 {
		t.Fatalf("OnApplied ran %d times", applied)
	}
}

type flakyStock struct {
	failFor int64
	written []int64
}

func (f *flakyStock) Upsert(_ context.Context, e domain.StockEntry) error {
	switch e.ProductID {
	case f.failFor:
		return errors.New("database is locked")
	case 404:
		return fmt.Errorf("%w: product 404", repos.ErrUnknownReference)
	}
	f.written = append(f.written, e.ProductID)
	return nil
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	marked []int64
}

func (s *fakeSession) Context() context.Context { return context.Background() }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func TestCommittable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, true},
		{fmt.Errorf("%w: not json", ErrBadUpdate), true},
		{fmt.Errorf("%w: product 9", repos.ErrUnknownReference), true},
		{errors.New("connection reset"), false},
	}
	for _, c := range cases {
		if got := Committable(c.err); got != c.want {
			t.Errorf("Committable(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestFailedWriteIsNotMarked(t *testing.T) {
	retryBackoff = 0
	stock := &flakyStock{failFor: 3}
	h := &groupHandler{applier: &Applier{Stock: stock}}

	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 5)}
	for i, v := range []string{
		`{"productId":1,"storeId":1,"quantity":5}`,
		`not json`,
		`{"productId":404,"storeId":1,"quantity":1}`,
		`{"productId":3,"storeId":1,"quantity":2}`,
		`{"productId":2,"storeId":1,"quantity":9}`,
	} {
		claim.msgs <- &sarama.ConsumerMessage{Topic: "stock.updates", Offset: int64(i), Value: []byte(v)}
	}
	close(claim.msgs)

	session := &fakeSession{}
	if err := h.ConsumeClaim(session, claim); err == nil {
		t.Fatal("a failed write should end the claim with an error")
	}
	if fmt.Sprint(session.marked) != "[0 1 2]" {
		t.Fatalf("marked offsets = %v, want [0 1 2]", session.marked)
	}
	if fmt.Sprint(stock.written) != "[1]" {
		t.Fatalf("messages after the failure must wait for redelivery, written = %v", stock.written)
	}
}
