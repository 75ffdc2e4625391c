package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldserve/dispatch/core/assign"
	"github.com/fieldserve/dispatch/core/intake"
	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/core/rating"
	"github.com/fieldserve/dispatch/core/recommend"
	"github.com/fieldserve/dispatch/core/storage"
	"github.com/fieldserve/dispatch/infra/geocode"
	"github.com/fieldserve/dispatch/infra/logger"
	"github.com/fieldserve/dispatch/infra/memstore"
	"github.com/fieldserve/dispatch/internal/eventbus"
	"github.com/fieldserve/dispatch/pkg/export"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a full job lifecycle against an in-memory store",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logg := logger.New("demo")

	store := memstore.New()
	bus := eventbus.New()
	defer bus.Close()

	geocoder := geocode.NewStatic(map[string]model.Point{
		"12 rue de la paix, paris":  {Lat: 48.8691, Lon: 2.3316},
		"8 avenue foch, paris":      {Lat: 48.8720, Lon: 2.2830},
		"21 rue du faubourg, paris": {Lat: 48.8700, Lon: 2.3500},
	})

	intakeSvc := intake.NewService(store, geocoder, logg)
	engine := recommend.NewEngine(store, recommend.Config{}, nil, logg, nil)
	machine := assign.NewStateMachine(store, bus, logg, nil)
	ratings := rating.NewService(store, logg, nil)

	allDay := model.WorkingHours{Start: 0, End: 24 * 60}
	contractors := []intake.NewContractor{
		{Name: "Ada Leclerc", Trade: model.TradePlumbing, Address: "8 avenue Foch, Paris", Hours: allDay},
		{Name: "Marc Dubois", Trade: model.TradePlumbing, Address: "21 rue du Faubourg, Paris", Hours: allDay},
	}
	for _, in := range contractors {
		if _, err := intakeSvc.CreateContractor(ctx, in); err != nil {
			return fmt.Errorf("create contractor %s: %w", in.Name, err)
		}
	}

	job, err := intakeSvc.CreateJob(ctx, intake.NewJob{
		CustomerID:  "cust-demo",
		Trade:       model.TradePlumbing,
		Address:     "12 rue de la Paix, Paris",
		DesiredAt:   time.Now().Add(2 * time.Hour),
		Description: "leaking kitchen sink",
	})
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	fmt.Printf("job %s created (%s)\n", job.ID, job.Trade)

	list, err := engine.Recommend(ctx, job.ID, recommend.Options{})
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	for _, cand := range list.Candidates {
		fmt.Printf("  #%d %-14s score=%.3f distance=%.1fkm travel=%s\n",
			cand.Rank, cand.Contractor.Name, cand.Score, cand.DistanceKm, cand.TravelTime.Round(time.Minute))
	}
	if len(list.Candidates) == 0 {
		return fmt.Errorf("no candidates: %s", list.Note)
	}

	best := list.Candidates[0].Contractor
	asn, err := machine.CreateAssignment(ctx, job.ID, best.ID, "dispatcher-demo")
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	if asn, err = machine.Accept(ctx, asn.ID, best.ID); err != nil {
		return fmt.Errorf("accept: %w", err)
	}
	if asn, err = machine.MarkInProgress(ctx, asn.ID, best.ID); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if asn, err = machine.MarkComplete(ctx, asn.ID, best.ID); err != nil {
		return fmt.Errorf("complete: %w", err)
	}
	fmt.Printf("assignment %s completed by %s\n", asn.ID, best.Name)

	review, err := ratings.PostReview(ctx, job.ID, best.ID, "cust-demo", 5, "fast and tidy")
	if err != nil {
		return fmt.Errorf("review: %w", err)
	}
	updated, err := store.Contractors().Get(ctx, best.ID)
	if err != nil {
		return err
	}
	fmt.Printf("review %s posted, %s now rated %.2f (%d review)\n",
		review.ID, updated.Name, *updated.AverageRating, updated.ReviewCount)

	history, err := store.Assignments().List(ctx, storage.AssignmentFilter{JobID: job.ID})
	if err != nil {
		return err
	}
	fmt.Println("assignment history:")
	return export.WriteCSV(cmd.OutOrStdout(), history)
}
