package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/outofforest/parallel"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/outofforest/replica"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	var (
		workers  int
		replicas int64
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Installs derived values in parallel, then verifies every replica",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, workers, replicas)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "Number of concurrent installers")
	cmd.Flags().Int64Var(&replicas, "replicas", 1<<20, "Number of replicas to install")
	return cmd
}

func runVerify(cmd *cobra.Command, workers int, replicas int64) error {
	r := replica.New[uint64]()

	err := parallel.Run(cmd.Context(), func(ctx context.Context, spawn parallel.SpawnFn) error {
		for w := 0; w < workers; w++ {
			w := w
			spawn(fmt.Sprintf("installer-%d", w), parallel.Continue, func(ctx context.Context) error {
				h := r.Acquire()
				defer h.Release()

				for id := int64(w); id < replicas; id += int64(workers) {
					if err := ctx.Err(); err != nil {
						return errors.WithStack(err)
					}
					h.Install(id, payload(id))
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := verifyReplicas(r, replicas); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "verified %d replicas, capacity: %d\n", replicas, r.Count())

	return r.Close()
}

func verifyReplicas(r *replica.Registry[uint64], replicas int64) error {
	h := r.Acquire()
	defer h.Release()

	for id := int64(0); id < replicas; id++ {
		if v := h.Get(id); v != payload(id) {
			return errors.Errorf("verification failed, id: %d, value: %d, expected: %d", id, v, payload(id))
		}
	}
	if count := h.Count(); count < replicas {
		return errors.Errorf("count is not an upper bound, count: %d, replicas: %d", count, replicas)
	}
	return nil
}
