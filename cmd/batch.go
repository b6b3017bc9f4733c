package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/profile-wizard/internal/model"
	"github.com/sells-group/profile-wizard/internal/store"
	"github.com/sells-group/profile-wizard/internal/wizard"
)

var (
	batchFile  string
	batchKind  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch-generate profiles from a CSV of seeds",
	Long:  "Reads seed URLs from a CSV file (one per row, first column) and runs a generation wizard for each, auto-confirming results. Individual failures are logged and do not abort the batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		kind := model.WizardKind(batchKind)
		if !kind.Valid() {
			return eris.Errorf("unknown wizard kind: %s", batchKind)
		}

		seeds, err := readSeeds(batchFile)
		if err != nil {
			return eris.Wrap(err, "read seeds")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		sch, err := loadSchema()
		if err != nil {
			return eris.Wrap(err, "load schema")
		}

		return processBatch(ctx, st, kind, seeds, batchLimit, func() *wizard.Wizard {
			return wizard.New(kind, newGenerationClient(), sch.ForKind(kind), pollOptions()...)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "CSV file of seed URLs (required)")
	batchCmd.Flags().StringVar(&batchKind, "kind", string(model.KindCompanyProfile), "wizard kind")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of seeds to process")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// readSeeds loads seed values from the first column of a CSV file,
// skipping blank rows and an optional header row.
func readSeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var seeds []string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "parse csv")
		}
		if len(record) == 0 {
			continue
		}
		seed := strings.TrimSpace(record[0])
		if seed == "" || strings.EqualFold(seed, "url") || strings.EqualFold(seed, "seed") {
			continue
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// processBatch runs wizards concurrently, rate-limiting job starts so a
// large batch does not stampede the generation backend.
func processBatch(ctx context.Context, st store.Store, kind model.WizardKind, seeds []string, limit int, newWizard func() *wizard.Wizard) error {
	if len(seeds) == 0 {
		zap.L().Info("no seeds to process")
		return nil
	}

	if limit > 0 && len(seeds) > limit {
		seeds = seeds[:limit]
	}

	zap.L().Info("processing batch",
		zap.String("kind", string(kind)),
		zap.Int("seeds", len(seeds)),
		zap.Int("concurrency", cfg.Batch.MaxConcurrent),
	)

	limiter := rate.NewLimiter(rate.Limit(cfg.Batch.StartsPerSec), 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Batch.MaxConcurrent)

	var succeeded, failed atomic.Int64

	for _, seed := range seeds {
		g.Go(func() error {
			log := zap.L().With(zap.String("seed", seed))

			if err := limiter.Wait(gctx); err != nil {
				return err
			}

			if err := runBatchWizard(gctx, st, kind, seed, newWizard()); err != nil {
				failed.Add(1)
				log.Error("generation failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("generation complete")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

// runBatchWizard drives one wizard for a batch seed, confirming without
// review since there is no operator in the loop.
func runBatchWizard(ctx context.Context, st store.Store, kind model.WizardKind, seed string, w *wizard.Wizard) error {
	rec, err := st.CreateSession(ctx, kind, seed)
	if err != nil {
		return eris.Wrap(err, "create session")
	}

	if err := w.Submit(ctx, seed); err != nil {
		recordFailure(ctx, st, rec.ID, w)
		return eris.Wrap(err, "submit")
	}
	if err := st.UpdateSessionState(ctx, rec.ID, string(w.State()), w.Handle().JobID); err != nil {
		zap.L().Warn("record session state", zap.Error(err))
	}

	if err := w.Poll(ctx); err != nil {
		recordFailure(ctx, st, rec.ID, w)
		return eris.Wrap(err, "poll")
	}

	if missing := w.MissingFields(); len(missing) > 0 {
		zap.L().Warn("confirming with missing fields",
			zap.String("seed", seed),
			zap.Strings("missing", missing),
		)
	}

	if err := w.Confirm(ctx); err != nil {
		recordFailure(ctx, st, rec.ID, w)
		return eris.Wrap(err, "confirm")
	}

	return eris.Wrap(
		st.CompleteSession(ctx, rec.ID, w.Buffer().Payload(), w.PersistedID()),
		"record session completion",
	)
}
