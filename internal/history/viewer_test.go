package history

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishal1807gupta/go-splitwise/internal/api"
	"github.com/vishal1807gupta/go-splitwise/internal/apitest"
	"github.com/vishal1807gupta/go-splitwise/internal/apperrors"
	"github.com/vishal1807gupta/go-splitwise/internal/models"
	"github.com/vishal1807gupta/go-splitwise/internal/refresh"
)

func TestDateLabel(t *testing.T) {
	now := time.Date(2026, 3, 4, 0, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "same day", at: time.Date(2026, 3, 4, 0, 1, 0, 0, time.UTC), want: "Today"},
		{name: "minutes ago but previous day", at: time.Date(2026, 3, 3, 23, 59, 0, 0, time.UTC), want: "Yesterday"},
		{name: "start of previous day", at: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), want: "Yesterday"},
		{name: "two days earlier", at: time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC), want: "Mar 2, 2026"},
		{name: "across month", at: time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC), want: "Feb 28, 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DateLabel(tt.at, now))
		})
	}
}

func TestDateLabelUsesLocalCalendar(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 3, 4, 1, 0, 0, 0, ist)
	// 20:00 UTC on Mar 3 is 01:30 on Mar 4 in IST.
	assert.Equal(t, "Today", DateLabel(time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC), now))
}

func TestDescribe(t *testing.T) {
	v := NewViewer(nil, 1, 1, []models.User{{ID: 1, Name: "Me"}, {ID: 2, Name: "Bob"}, {ID: 3, Name: "Cara"}}, nil, nil)

	kind, text := v.Describe(models.Transaction{PayerID: 1, UserID: 2, Amount: 50})
	assert.Equal(t, KindYouPaid, kind)
	assert.Equal(t, "You paid ₹50.00 to Bob", text)

	kind, text = v.Describe(models.Transaction{PayerID: 3, UserID: 1, Amount: 20})
	assert.Equal(t, KindYouReceived, kind)
	assert.Equal(t, "₹20.00 received from Cara", text)

	kind, text = v.Describe(models.Transaction{PayerID: 2, UserID: 7, Amount: 5})
	assert.Equal(t, KindOthers, kind)
	assert.Equal(t, "Bob paid ₹5.00 to User 7", text)
}

func TestWatchRefetchesOnBump(t *testing.T) {
	backend := apitest.New(t)
	client, err := api.New(backend.URL())
	require.NoError(t, err)
	now := time.Now()
	backend.AddTransaction(5, 1, 2, 30, now.AddDate(0, 0, -3))

	counter := refresh.NewCounter()
	v := NewViewer(client, 5, 1, []models.User{{ID: 1, Name: "Me"}, {ID: 2, Name: "Bob"}}, counter, nil)
	ctx := context.Background()
	v.Watch(ctx)

	lines, err := v.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, now.AddDate(0, 0, -3).Format("Jan 2, 2006"), lines[0].Date)

	backend.AddTransaction(5, 2, 1, 10, now)
	counter.Bump()
	lines = v.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "₹10.00 received from Bob", lines[0].Text)
	assert.Equal(t, "Today", lines[0].Date)
	assert.Equal(t, 2, backend.Calls("get_transactions"))

	v.Close()
	counter.Bump()
	assert.Equal(t, 2, backend.Calls("get_transactions"))
}

func TestWatchRecordsFailure(t *testing.T) {
	backend := apitest.New(t)
	client, err := api.New(backend.URL())
	require.NoError(t, err)
	backend.Fail("get_transactions", http.StatusBadGateway, "down")

	counter := refresh.NewCounter()
	v := NewViewer(client, 5, 1, nil, counter, nil)
	v.Watch(context.Background())
	counter.Bump()

	assert.Equal(t, MsgLoadFailed, apperrors.Message(v.Err()))
	assert.Empty(t, v.Lines())
}
