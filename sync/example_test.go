package sync_test

import (
	"context"
	"fmt"
	"time"

	"github.com/MasterOfBinary/asyncbatch/batch"
	"github.com/MasterOfBinary/asyncbatch/sync"
)

func ExampleCaller() {
	square := func(_ context.Context, n int) (int, error) {
		return n * n, nil
	}

	caller := sync.NewCaller(square, &batch.Options{
		MaxConcurrency: 2,
		RateLimit:      &batch.RateLimit{MaxExecutions: 100, Window: time.Second},
	})
	defer caller.Close()

	for i := 1; i <= 3; i++ {
		v, err := caller.Call(context.Background(), i)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(v)
	}
	// Output:
	// 1
	// 4
	// 9
}
