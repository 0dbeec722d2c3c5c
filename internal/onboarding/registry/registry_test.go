package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"induct/internal/onboarding/models"
	"induct/internal/onboarding/stages"
	"induct/internal/onboarding/store"
	id "induct/pkg/domain"
	dErrors "induct/pkg/domain-errors"
)

func seedRecords(t *testing.T, s *store.InMemory, count, stage int) []*models.PersonnelRecord {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	out := make([]*models.PersonnelRecord, 0, count)
	for i := 0; i < count; i++ {
		r, err := models.NewPersonnelRecord(
			id.PersonnelID(uuid.New()),
			fmt.Sprintf("Person %02d", i),
			fmt.Sprintf("person%02d.stage%d@example.com", i, stage),
			base.Add(time.Duration(i)*time.Minute),
		)
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, r))
		for n := 0; n < stage; n++ {
			require.NoError(t, s.UpdateStage(ctx, r.ID, n, n+1, ""))
		}
		out = append(out, r)
	}
	return out
}

func TestListByStageReturnsEligibleRecords(t *testing.T) {
	s := store.NewInMemory()
	seedRecords(t, s, 3, 0) // awaiting stage 1
	atTwo := seedRecords(t, s, 2, 2)

	r := New(s)
	require.NoError(t, r.Refresh(context.Background()))

	eligible, err := r.ListByStage(3)
	require.NoError(t, err)
	require.Len(t, eligible, 2, "stage 3 lists records sitting at stage 2")
	assert.Equal(t, atTwo[0].ID, eligible[0].ID)

	first, err := r.ListByStage(1)
	require.NoError(t, err)
	assert.Len(t, first, 3)
}

func TestListByStageRejectsInvalidStage(t *testing.T) {
	r := New(store.NewInMemory())
	for _, stage := range []int{0, -1, 9} {
		_, err := r.ListByStage(stage)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestListByStageStaleUntilRefresh(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemory()
	records := seedRecords(t, s, 1, 0)

	r := New(s)
	require.NoError(t, r.Refresh(ctx))

	require.NoError(t, s.UpdateStage(ctx, records[0].ID, 0, 1, ""))

	stale, err := r.ListByStage(1)
	require.NoError(t, err)
	assert.Len(t, stale, 1, "snapshot still shows pre-advance membership")

	require.NoError(t, r.Refresh(ctx))
	fresh, err := r.ListByStage(1)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	next, err := r.ListByStage(2)
	require.NoError(t, err)
	assert.Len(t, next, 1)
}

// gatedStore serializes ListAll against the test so a fetch can be held
// mid-flight while the backing data changes underneath it.
type gatedStore struct {
	store.RecordStore
	mu      sync.Mutex
	records []*models.PersonnelRecord
	started chan struct{}
	release chan struct{}
}

func (g *gatedStore) setRecords(records ...*models.PersonnelRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = records
}

func (g *gatedStore) ListAll(context.Context) ([]*models.PersonnelRecord, error) {
	g.mu.Lock()
	out := make([]*models.PersonnelRecord, len(g.records))
	copy(out, g.records)
	g.mu.Unlock()
	g.started <- struct{}{}
	<-g.release
	return out, nil
}

func TestRefreshAfterMutationIgnoresInFlightFetch(t *testing.T) {
	ctx := context.Background()
	g := &gatedStore{started: make(chan struct{}, 2), release: make(chan struct{})}
	r := New(g)

	first := make(chan error, 1)
	go func() { first <- r.Refresh(ctx) }()
	<-g.started // the fetch captured an empty record set and is now held

	record, err := models.NewPersonnelRecord(
		id.PersonnelID(uuid.New()), "Ada Osei", "ada@example.com", time.Now())
	require.NoError(t, err)
	g.setRecords(record)

	second := make(chan error, 1)
	go func() { second <- r.Refresh(ctx) }()

	close(g.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	eligible, err := r.ListByStage(1)
	require.NoError(t, err)
	require.Len(t, eligible, 1,
		"a refresh issued after the mutation must not settle for the pre-mutation fetch")
	assert.Equal(t, record.ID, eligible[0].ID)
}

func TestTallyStagesCountsEveryStage(t *testing.T) {
	records := []*models.PersonnelRecord{
		{Stage: 0}, {Stage: 0}, {Stage: 4}, {Stage: stages.Terminal},
	}
	counts := tallyStages(records)
	require.Len(t, counts, stages.Terminal+1)
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 1, counts[4])
	assert.Equal(t, 0, counts[3], "empty stages report zero")
	assert.Equal(t, 1, counts[stages.Terminal])
}

func TestSearchMatchesNameAndEmail(t *testing.T) {
	a := &models.PersonnelRecord{FullName: "Ada Osei", Email: "ada.osei@example.com"}
	b := &models.PersonnelRecord{FullName: "Ben Kato", Email: "bkato@example.com"}
	c := &models.PersonnelRecord{FullName: "Cleo Vance", Email: "cleo@osei-consulting.example"}
	all := []*models.PersonnelRecord{a, b, c}

	assert.Len(t, Search(all, "OSEI"), 2, "case-insensitive, matches name or email")
	assert.Equal(t, []*models.PersonnelRecord{b}, Search(all, "kato"))
	assert.Empty(t, Search(all, "nobody"))
	assert.Equal(t, all, Search(all, "  "), "blank query returns everything")
	assert.Len(t, all, 3, "input list is never mutated")
}

func TestPaginate(t *testing.T) {
	records := make([]*models.PersonnelRecord, 23)
	for i := range records {
		records[i] = &models.PersonnelRecord{FullName: fmt.Sprintf("Person %02d", i)}
	}

	p1 := Paginate(records, 10, 1)
	assert.Len(t, p1.Items, 10)
	assert.Equal(t, 1, p1.Page)
	assert.Equal(t, 23, p1.TotalItems)
	assert.Equal(t, 3, p1.TotalPages)

	p2 := Paginate(records, 10, 2)
	assert.Len(t, p2.Items, 10)
	assert.Equal(t, records[10], p2.Items[0])

	p3 := Paginate(records, 10, 3)
	assert.Len(t, p3.Items, 3)

	clamped := Paginate(records, 10, 4)
	assert.Equal(t, 3, clamped.Page, "page past the end clamps to the last page")
	assert.Equal(t, p3.Items, clamped.Items)

	low := Paginate(records, 10, 0)
	assert.Equal(t, 1, low.Page)

	empty := Paginate(nil, 10, 1)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 1, empty.TotalPages)
}

func TestQueryCombinesStageSearchAndPaging(t *testing.T) {
	s := store.NewInMemory()
	seedRecords(t, s, 15, 4)

	r := New(s)
	require.NoError(t, r.Refresh(context.Background()))

	page, err := r.Query(5, "person 0", 5, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, page.TotalItems, "person 00 through 09 match")
	assert.Len(t, page.Items, 5)
	assert.Equal(t, "Person 05", page.Items[0].FullName)
}
