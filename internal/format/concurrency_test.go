package format

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestPropertyConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	v := decode(t, `{"type":"rollup","rollup":{"type":"array","array":[
		{"type":"title","title":[{"type":"text","text":{"content":"a","link":{"url":"https://a"}}}]},
		{"type":"multi_select","multi_select":[{"name":"x"},{"name":"y"}]},
		{"type":"unique_id","unique_id":{"number":12,"prefix":"BUG"}}
	]}}`)
	want := Property(v)

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(8)
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			if got := Property(v); got != want {
				return fmt.Errorf("goroutine %d: got %q, want %q", i, got, want)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
