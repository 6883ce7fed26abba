package listing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/models"
	"github.com/startupjobs/jobboard-service/internal/storage"
)

const siteName = "Startup Jobs Portugal"

var base = time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

type seed struct {
	title, category, company, location string
	status                             models.Status
	age                                time.Duration
}

func seedStore(t *testing.T, seeds ...seed) (*storage.MemoryStorage, map[string]string) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	ids := make(map[string]string, len(seeds))
	for _, s := range seeds {
		id, err := store.Insert(ctx, models.JobPosting{
			Title:        s.title,
			Company:      s.company,
			Category:     s.category,
			Location:     s.location,
			Link:         "https://" + s.company + ".example/jobs",
			ContactEmail: "hr@" + s.company + ".example",
			CreatedAt:    base.Add(-s.age),
		})
		require.NoError(t, err)
		if s.status != models.StatusPending {
			require.NoError(t, store.UpdateStatus(ctx, id, s.status))
		}
		ids[s.title] = id
	}
	return store, ids
}

func titles(postings []models.JobPosting) []string {
	out := make([]string, 0, len(postings))
	for _, p := range postings {
		out = append(out, p.Title)
	}
	return out
}

func defaultSeeds() []seed {
	return []seed{
		{"Go Developer", "engineering", "acme", "Lisbon", models.StatusActive, 3 * time.Hour},
		{"Designer", "design", "acme", "Porto", models.StatusActive, 2 * time.Hour},
		{"Pending Role", "engineering", "acme", "Lisbon", models.StatusPending, time.Hour},
		{"Rejected Role", "design", "globex", "Lisbon", models.StatusRejected, time.Hour},
		{"Old Role", "engineering", "globex", "Porto", models.StatusExpired, 60 * 24 * time.Hour},
		{"Data Engineer", "engineering", "globex", "Lisbon", models.StatusActive, time.Hour},
	}
}

func TestService_ActiveExcludesOtherStatuses(t *testing.T) {
	store, _ := seedStore(t, defaultSeeds()...)
	svc := NewService(store, siteName, 10)

	postings, err := svc.Active(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Go Developer", "Designer", "Data Engineer"}, titles(postings))
}

func TestService_Filters(t *testing.T) {
	store, _ := seedStore(t, defaultSeeds()...)
	svc := NewService(store, siteName, 10)
	ctx := context.Background()

	byCategory, err := svc.ByCategory(ctx, "engineering")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Developer", "Data Engineer"}, titles(byCategory))

	byCompany, err := svc.ByCompany(ctx, "globex")
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Engineer"}, titles(byCompany))

	byLocation, err := svc.ByLocation(ctx, "Porto")
	require.NoError(t, err)
	assert.Equal(t, []string{"Designer"}, titles(byLocation))

	search, err := svc.Search(ctx, "engineering", "", " Lisbon ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Developer", "Data Engineer"}, titles(search))

	byCompany, err = svc.ByCompany(ctx, "initech")
	require.NoError(t, err)
	assert.Empty(t, byCompany)
}

func TestService_ByCategoryWithoutActivePostings(t *testing.T) {
	store, _ := seedStore(t, defaultSeeds()...)
	svc := NewService(store, siteName, 10)

	_, err := svc.ByCategory(context.Background(), "marketing")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestService_Recent(t *testing.T) {
	store, _ := seedStore(t, defaultSeeds()...)
	svc := NewService(store, siteName, 2)
	ctx := context.Background()

	recent, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Engineer", "Designer"}, titles(recent))

	recent, err = svc.Recent(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Engineer", "Designer", "Go Developer"}, titles(recent))
}

func TestService_Posting(t *testing.T) {
	store, ids := seedStore(t, defaultSeeds()...)
	svc := NewService(store, siteName, 10)
	ctx := context.Background()

	p, err := svc.Posting(ctx, ids["Designer"])
	require.NoError(t, err)
	assert.Equal(t, "Designer", p.Title)

	_, err = svc.Posting(ctx, ids["Pending Role"])
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Posting(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestService_Feed(t *testing.T) {
	store, ids := seedStore(t, defaultSeeds()...)
	svc := NewService(store, siteName, 10)

	items, err := svc.Feed(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 3)
	first := items[0]
	assert.Equal(t, "Data Engineer", first.Title)
	assert.Equal(t, ids["Data Engineer"], first.GUID)
	assert.Equal(t, siteName, first.Author)
	assert.Equal(t, "globex", first.Company)
	assert.Equal(t, "https://globex.example/jobs", first.Link)
	assert.True(t, base.Add(-time.Hour).Equal(first.PublishDate))
}

func TestService_StorageUnavailable(t *testing.T) {
	store, _ := seedStore(t, defaultSeeds()...)
	store.SetUnavailable(assert.AnError)
	svc := NewService(store, siteName, 10)

	_, err := svc.Active(context.Background())
	assert.True(t, apperrors.IsStorage(err))

	_, err = svc.Feed(context.Background())
	assert.True(t, apperrors.IsStorage(err))
}
