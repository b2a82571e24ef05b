package source_test

import (
	"context"
	"fmt"
	"slices"

	"github.com/MasterOfBinary/asyncbatch/batch"
	"github.com/MasterOfBinary/asyncbatch/source"
)

func ExampleNewSeq() {
	b := batch.New(func(_ context.Context, s string) (int, error) {
		return len(s), nil
	}, &batch.Options{AutoStart: true, MaxConcurrency: 1})

	b.Events().OnProcessingSuccess(func(e *batch.ProcessingSuccessEvent[string, int]) {
		fmt.Printf("%s=%d\n", e.Item, e.Result)
	})

	// The sequence is pulled one item at a time, only when the batch has
	// room for it.
	_ = b.AddIterator(source.NewSeq(slices.Values([]string{"a", "bb", "ccc"})))
	<-b.Go(context.Background())
	// Output:
	// a=1
	// bb=2
	// ccc=3
}

func ExampleChannel() {
	input := make(chan int, 3)
	input <- 1
	input <- 2
	input <- 3
	close(input)

	it := source.NewChannelUnchecked(input)
	sum := 0
	for {
		n, ok, err := it.Next(context.Background())
		if err != nil || !ok {
			break
		}
		sum += n
	}
	fmt.Println(sum)
	// Output:
	// 6
}
