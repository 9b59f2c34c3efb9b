package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourconsultingltd/ycl-backend/internal/errs"
	"github.com/yourconsultingltd/ycl-backend/internal/lib/job"
	"github.com/yourconsultingltd/ycl-backend/internal/model"
)

func TestNewsletterService_SubscribeOnce(t *testing.T) {
	store := newFakeNewsletterStore()
	dispatcher := &fakeDispatcher{configured: true}
	svc := NewNewsletterService(store, dispatcher, nil)

	first, err := svc.Subscribe(context.Background(), " reader@example.com ")
	require.NoError(t, err)
	assert.False(t, first.AlreadySubscribed)
	assert.Equal(t, EmailQueued, first.Email)
	assert.Empty(t, first.Database)

	second, err := svc.Subscribe(context.Background(), "reader@example.com")
	require.NoError(t, err)
	assert.True(t, second.AlreadySubscribed)

	assert.Len(t, store.subs, 1)
	assert.Contains(t, store.subs, "reader@example.com")

	assert.Eventually(t, func() bool {
		return len(dispatcher.types()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{job.TaskNewsletterNotice, job.TaskNewsletterWelcome}, dispatcher.types())
}

func TestNewsletterService_LostRace(t *testing.T) {
	dispatcher := &fakeDispatcher{configured: true}
	svc := NewNewsletterService(racingStore{}, dispatcher, nil)

	res, err := svc.Subscribe(context.Background(), "reader@example.com")
	require.NoError(t, err)
	assert.True(t, res.AlreadySubscribed)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, dispatcher.types())
}

// racingStore reports the address as new, then loses the insert.
type racingStore struct{}

func (racingStore) Exists(context.Context, string) (bool, error) { return false, nil }

func (racingStore) Create(context.Context, string, time.Time) (*model.NewsletterSubscription, bool, error) {
	return nil, false, nil
}

func TestNewsletterService_BlankEmail(t *testing.T) {
	store := newFakeNewsletterStore()
	svc := NewNewsletterService(store, &fakeDispatcher{configured: true}, nil)

	for _, email := range []string{"", "   "} {
		res, err := svc.Subscribe(context.Background(), email)
		assert.Nil(t, res)

		var httpErr *errs.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, "Email is required.", httpErr.Message)
	}
	assert.Empty(t, store.subs)
}

func TestNewsletterService_Degraded(t *testing.T) {
	store := newFakeNewsletterStore()
	store.err = unavailableErr()
	dispatcher := &fakeDispatcher{configured: true}
	svc := NewNewsletterService(store, dispatcher, nil)

	res, err := svc.Subscribe(context.Background(), "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, DatabaseNotConnected, res.Database)
	assert.False(t, res.AlreadySubscribed)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, dispatcher.types())
}

func TestNewsletterService_StoreFailure(t *testing.T) {
	store := newFakeNewsletterStore()
	store.err = errBoom
	svc := NewNewsletterService(store, &fakeDispatcher{configured: true}, nil)

	_, err := svc.Subscribe(context.Background(), "reader@example.com")

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "Failed to subscribe.", httpErr.Message)
}
