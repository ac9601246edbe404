package mirror

import (
	"context"
	"errors"
	"testing"

	"pickmeup-backend/models"
	"pickmeup-backend/store"
	"pickmeup-backend/testutils"

	"github.com/stretchr/testify/assert"
)

func seed(st *testutils.FakeStore, title string) string {
	return st.Seed(models.CollectionLost, models.ItemReport{
		Title: title, Status: models.StatusLost, UserID: "u1",
	})
}

func TestOpenDeliversInitialSnapshotThenRedelivers(t *testing.T) {
	st := testutils.NewFakeStore()
	seed(st, "first")

	var snapshots [][]models.ItemReport
	m, err := Open(context.Background(), st, models.CollectionLost, Options{
		OnSnapshot: func(items []models.ItemReport) { snapshots = append(snapshots, items) },
	})
	assert.NoError(t, err)
	defer m.Close()

	assert.Len(t, snapshots, 1)
	assert.Len(t, snapshots[0], 1)

	// Chaque mutation distante redélivre la collection complète, pas un diff
	seed(st, "second")
	assert.Len(t, snapshots, 2)
	assert.Len(t, snapshots[1], 2)
}

func TestMirrorAppliesQueryFilter(t *testing.T) {
	st := testutils.NewFakeStore()
	st.Seed(models.CollectionLost, models.ItemReport{Title: "mine", Status: models.StatusLost, UserID: "u1"})
	st.Seed(models.CollectionLost, models.ItemReport{Title: "theirs", Status: models.StatusLost, UserID: "u2"})

	var last []models.ItemReport
	m, err := Open(context.Background(), st, models.CollectionLost, Options{
		Query:      store.Query{UserID: "u1"},
		OnSnapshot: func(items []models.ItemReport) { last = items },
	})
	assert.NoError(t, err)
	defer m.Close()

	assert.Len(t, last, 1)
	assert.Equal(t, "mine", last[0].Title)
}

func TestErrorDeliveredOnceThenSilence(t *testing.T) {
	st := testutils.NewFakeStore()
	seed(st, "first")

	var snapshots int
	var failures int
	m, err := Open(context.Background(), st, models.CollectionLost, Options{
		OnSnapshot: func(items []models.ItemReport) { snapshots++ },
		OnError:    func(err error) { failures++ },
	})
	assert.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 1, snapshots)

	st.EmitError(models.CollectionLost, errors.New("transport down"))
	assert.Equal(t, 1, failures)

	// Plus aucune émission jusqu'à une nouvelle souscription
	seed(st, "second")
	assert.Equal(t, 1, snapshots)
	assert.Equal(t, 1, failures)
}

func TestCloseReleasesSubscriptionExactlyOnce(t *testing.T) {
	st := testutils.NewFakeStore()
	m, err := Open(context.Background(), st, models.CollectionLost, Options{
		OnSnapshot: func(items []models.ItemReport) {},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, st.Subscribers(models.CollectionLost))

	m.Close()
	assert.Equal(t, 0, st.Subscribers(models.CollectionLost))

	// Idempotent: un deuxième Close ne panique pas et ne change rien
	m.Close()
	assert.Equal(t, 0, st.Subscribers(models.CollectionLost))
}

func TestNoDeliveryAfterClose(t *testing.T) {
	st := testutils.NewFakeStore()
	var snapshots int
	m, err := Open(context.Background(), st, models.CollectionLost, Options{
		OnSnapshot: func(items []models.ItemReport) { snapshots++ },
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, snapshots)

	m.Close()
	seed(st, "late")
	assert.Equal(t, 1, snapshots)
}

func TestFreshOpenAfterErrorWorks(t *testing.T) {
	st := testutils.NewFakeStore()
	seed(st, "first")

	m1, err := Open(context.Background(), st, models.CollectionLost, Options{
		OnSnapshot: func(items []models.ItemReport) {},
		OnError:    func(err error) {},
	})
	assert.NoError(t, err)
	st.EmitError(models.CollectionLost, errors.New("transport down"))
	m1.Close()

	var snapshots int
	m2, err := Open(context.Background(), st, models.CollectionLost, Options{
		OnSnapshot: func(items []models.ItemReport) { snapshots++ },
	})
	assert.NoError(t, err)
	defer m2.Close()
	assert.Equal(t, 1, snapshots)
}
