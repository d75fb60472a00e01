package offlinequeue_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/fieldforce/location-tracker/internal/agent/offlinequeue"
)

var errOffline = errors.New("offline")

func payload(i int) []byte {
	return []byte(fmt.Sprintf(`{"n":%d}`, i))
}

func payloads(entries []offlinequeue.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, string(e.Payload))
	}
	return out
}

func TestOfflineQueue(t *testing.T) {
	convey.Convey("Given an empty offline queue", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "queue", "agent.db")

		q, err := offlinequeue.Open(ctx, path, offlinequeue.DefaultCapacity)
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = q.Close() }()

		convey.Convey("When more entries than the capacity are enqueued", func() {
			evicted := 0
			for i := 1; i <= 105; i++ {
				_, n, err := q.Enqueue(ctx, payload(i))
				convey.So(err, convey.ShouldBeNil)
				evicted += n
			}

			convey.Convey("Then the oldest entries are evicted and the bound holds", func() {
				n, err := q.Len(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 100)
				convey.So(evicted, convey.ShouldEqual, 5)

				entries, err := q.Entries(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(entries[0].Payload), convey.ShouldEqual, `{"n":6}`)
				convey.So(string(entries[99].Payload), convey.ShouldEqual, `{"n":105}`)
			})
		})

		convey.Convey("When a drain fails for some entries", func() {
			for i := 1; i <= 5; i++ {
				_, _, err := q.Enqueue(ctx, payload(i))
				convey.So(err, convey.ShouldBeNil)
			}

			var seen []string
			res, err := q.DrainInOrder(ctx, func(_ context.Context, e offlinequeue.Entry) error {
				seen = append(seen, string(e.Payload))
				switch string(e.Payload) {
				case `{"n":2}`, `{"n":4}`:
					return errOffline
				}
				return nil
			})

			convey.Convey("Then every entry is attempted oldest first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(seen, convey.ShouldResemble, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`, `{"n":4}`, `{"n":5}`})
				convey.So(res.Delivered, convey.ShouldEqual, 3)
				convey.So(res.Failed, convey.ShouldEqual, 2)
			})

			convey.Convey("Then only the failures remain, in order, with attempts counted", func() {
				entries, err := q.Entries(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(payloads(entries), convey.ShouldResemble, []string{`{"n":2}`, `{"n":4}`})
				convey.So(entries[0].Attempts, convey.ShouldEqual, 1)
				convey.So(entries[1].Attempts, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the context is cancelled before a drain", func() {
			_, _, err := q.Enqueue(ctx, payload(1))
			convey.So(err, convey.ShouldBeNil)

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			called := false
			_, err = q.DrainInOrder(cctx, func(context.Context, offlinequeue.Entry) error {
				called = true
				return nil
			})

			convey.Convey("Then nothing is delivered and the entry is kept", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(called, convey.ShouldBeFalse)
				n, _ := q.Len(ctx)
				convey.So(n, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the queue is closed and reopened", func() {
			for i := 1; i <= 3; i++ {
				_, _, err := q.Enqueue(ctx, payload(i))
				convey.So(err, convey.ShouldBeNil)
			}
			convey.So(q.Close(), convey.ShouldBeNil)

			reopened, err := offlinequeue.Open(ctx, path, offlinequeue.DefaultCapacity)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = reopened.Close() }()

			convey.Convey("Then the entries survive in their original order", func() {
				entries, err := reopened.Entries(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(payloads(entries), convey.ShouldResemble, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`})
				convey.So(entries[0].ID, convey.ShouldNotBeEmpty)
			})
		})
	})
}

func TestOfflineQueue_DefaultCapacity(t *testing.T) {
	convey.Convey("Given a non-positive capacity", t, func() {
		q, err := offlinequeue.Open(context.Background(), filepath.Join(t.TempDir(), "q.db"), 0)
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = q.Close() }()

		convey.So(q.Capacity(), convey.ShouldEqual, offlinequeue.DefaultCapacity)
	})
}
