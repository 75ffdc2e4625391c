package assign

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldserve/dispatch/core/model"
	"github.com/fieldserve/dispatch/core/storage"
)

// TestActiveAssignmentInvariant_RandomInterleavings hammers one job with a
// random mix of create/accept/decline/reassign calls from several goroutines
// and checks after every round that at most one assignment is non-terminal.
func TestActiveAssignmentInvariant_RandomInterleavings(t *testing.T) {
	const (
		rounds  = 50
		workers = 6
	)
	for round := 0; round < rounds; round++ {
		s := seedStore(t)
		m := newMachine(s, nil)
		w := newWorkflow(s, nil)
		ctx := context.Background()

		contractors := []string{"c1", "c2"}
		rng := rand.New(rand.NewSource(int64(round)))
		ops := make([]int, workers)
		for i := range ops {
			ops[i] = rng.Intn(4)
		}

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(op, n int) {
				defer wg.Done()
				contractor := contractors[n%len(contractors)]
				switch op {
				case 0:
					_, _ = m.CreateAssignment(ctx, "j1", contractor, "disp1")
				case 1, 2:
					if a, err := s.Assignments().ActiveForJob(ctx, "j1"); err == nil {
						if op == 1 {
							_, _ = m.Accept(ctx, a.ID, a.ContractorID)
						} else {
							_, _ = m.Decline(ctx, a.ID, a.ContractorID)
						}
					}
				case 3:
					_, _ = w.Reassign(ctx, "j1", contractor, "disp1")
				}
			}(ops[i], i)
		}
		wg.Wait()

		active, err := s.Assignments().List(ctx, storage.AssignmentFilter{JobID: "j1", ActiveOnly: true})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(active), 1, "round %d: more than one active assignment", round)

		// The job's contractor reference agrees with the active assignment.
		job, err := s.Jobs().Get(ctx, "j1")
		require.NoError(t, err)
		if len(active) == 1 && job.Status == model.JobAssigned {
			assert.Equal(t, active[0].ContractorID, job.AssignedContractorID, "round %d", round)
		}
		if job.Status == model.JobPending {
			assert.Empty(t, job.AssignedContractorID, "round %d", round)
		}
	}
}
