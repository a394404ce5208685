package main

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/outofforest/parallel"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/outofforest/replica"
)

func init() {
	rootCmd.AddCommand(newLoadCmd())
}

func newLoadCmd() *cobra.Command {
	var (
		workers  int
		replicas int64
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Hammers a registry with concurrent reads, installs and clears",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, workers, replicas, duration)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "Number of concurrent workers")
	cmd.Flags().Int64Var(&replicas, "replicas", 1<<20, "Size of the ID range")
	cmd.Flags().DurationVar(&duration, "duration", 5*time.Second, "How long to run")
	return cmd
}

func runLoad(cmd *cobra.Command, workers int, replicas int64, duration time.Duration) error {
	r := replica.New[uint64]()

	// Touching the last ID grows the table upfront, so workers run mostly on the read path.
	r.Install(replicas-1, payload(replicas-1))

	ctx, cancel := context.WithTimeout(cmd.Context(), duration)
	defer cancel()

	var ops atomic.Int64
	err := parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		for w := 0; w < workers; w++ {
			w := w
			spawn(fmt.Sprintf("worker-%d", w), parallel.Continue, func(ctx context.Context) error {
				return loadWorker(ctx, r, uint64(w), replicas, &ops)
			})
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}

	total := ops.Load()
	fmt.Fprintf(cmd.OutOrStdout(), "workers: %d, replicas: %d, ops: %d, throughput: %.0f ops/s\n",
		workers, replicas, total, float64(total)/duration.Seconds())

	return r.Close()
}

func loadWorker(
	ctx context.Context,
	r *replica.Registry[uint64],
	seed uint64,
	replicas int64,
	ops *atomic.Int64,
) error {
	h := r.Acquire()
	defer h.Release()

	for i := seed << 32; ctx.Err() == nil; i++ {
		id := int64(mix(i) % uint64(replicas))
		switch {
		case i%64 == 0:
			h.Clear(id)
		case i%16 == 0:
			h.Install(id, payload(id))
		default:
			if v := h.Get(id); v != 0 && v != payload(id) {
				return errors.Errorf("corrupted replica, id: %d, value: %d", id, v)
			}
		}
		ops.Add(1)
	}
	return nil
}
