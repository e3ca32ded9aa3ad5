package zoho

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeZoho struct {
	pages       [][]string
	tokenCalls  atomic.Int32
	dataCalls   atomic.Int32
	failFirst   int32
	failStatus  int
	rejectFirst bool
	tokenError  string
}

func (f *fakeZoho) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/token", func(w http.ResponseWriter, r *http.Request) {
		n := f.tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh", r.PostForm.Get("refresh_token"))
		if f.tokenError != "" {
			fmt.Fprintf(w, `{"error":%q}`, f.tokenError)
			return
		}
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":3600,"api_domain":"x"}`, n)
	})
	mux.HandleFunc("/crm/v2/Deals", func(w http.ResponseWriter, r *http.Request) {
		n := f.dataCalls.Add(1)
		if n <= f.failFirst {
			w.WriteHeader(f.failStatus)
			return
		}
		if f.rejectFirst && r.Header.Get("Authorization") == "Zoho-oauthtoken token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "200", r.URL.Query().Get("per_page"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if len(f.pages) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		rows := f.pages[page-1]
		body := `{"data":[`
		for i, row := range rows {
			if i > 0 {
				body += ","
			}
			body += row
		}
		body += fmt.Sprintf(`],"info":{"page":%d,"per_page":200,"count":%d,"more_records":%t}}`, page, len(rows), page < len(f.pages))
		fmt.Fprint(w, body)
	})
	return mux
}

func newTestClient(t *testing.T, fake *fakeZoho) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client := NewClient(&config.ZohoConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		AccountsURL:  srv.URL,
		APIDomain:    srv.URL,
		Module:       "Deals",
		PageSize:     200,
		Timeout:      5,
		MaxRetries:   2,
	}, srv.Client(), zap.NewNop())
	client.backoff = NewBackoff(time.Millisecond, 2)
	return client
}

func TestFetchDeals_Paging(t *testing.T) {
	fake := &fakeZoho{pages: [][]string{
		{`{"Deal_Name":"A","Amount":100,"Region":"APAC"}`, `{"Deal_Name":"B","Amount":"250.5","Region":"EMEA"}`},
		{`{"Deal_Name":"C","Amount":null}`},
	}}
	client := newTestClient(t, fake)

	records, err := client.FetchDeals(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0].Name)
	assert.Equal(t, "250.5", records[1].Amount.String())
	assert.Equal(t, "C", records[2].Name)
	assert.True(t, records[2].Amount.IsZero())
	assert.Equal(t, int32(1), fake.tokenCalls.Load(), "token is cached across pages")
	assert.Equal(t, int32(2), fake.dataCalls.Load())
}

func TestFetchDeals_NoContent(t *testing.T) {
	client := newTestClient(t, &fakeZoho{})

	records, err := client.FetchDeals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchDeals_RetriesServerErrors(t *testing.T) {
	fake := &fakeZoho{
		pages:      [][]string{{`{"Deal_Name":"A"}`}},
		failFirst:  2,
		failStatus: http.StatusServiceUnavailable,
	}
	client := newTestClient(t, fake)

	records, err := client.FetchDeals(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(3), fake.dataCalls.Load())
}

func TestFetchDeals_GivesUpAfterRetries(t *testing.T) {
	fake := &fakeZoho{
		pages:      [][]string{{`{"Deal_Name":"A"}`}},
		failFirst:  10,
		failStatus: http.StatusBadGateway,
	}
	client := newTestClient(t, fake)

	_, err := client.FetchDeals(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(3), fake.dataCalls.Load())
}

func TestFetchDeals_ClientErrorIsNotRetried(t *testing.T) {
	fake := &fakeZoho{
		pages:      [][]string{{`{"Deal_Name":"A"}`}},
		failFirst:  10,
		failStatus: http.StatusBadRequest,
	}
	client := newTestClient(t, fake)

	_, err := client.FetchDeals(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Equal(t, int32(1), fake.dataCalls.Load())
}

func TestFetchDeals_RefreshesRejectedToken(t *testing.T) {
	fake := &fakeZoho{
		pages:       [][]string{{`{"Deal_Name":"A"}`}},
		rejectFirst: true,
	}
	client := newTestClient(t, fake)

	records, err := client.FetchDeals(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(2), fake.tokenCalls.Load())
}

func TestFetchDeals_TokenGrantError(t *testing.T) {
	fake := &fakeZoho{
		pages:      [][]string{{`{"Deal_Name":"A"}`}},
		tokenError: "invalid_code",
	}
	client := newTestClient(t, fake)

	_, err := client.FetchDeals(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Contains(t, err.Error(), "invalid_code")
	assert.Equal(t, int32(0), fake.dataCalls.Load())
}

func TestBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := NewBackoff(time.Hour, 5).Do(ctx, func(int) error {
		calls++
		cancel()
		return errors.New("boom")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestBackoff_Permanent(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad request")

	err := NewBackoff(time.Millisecond, 5).Do(context.Background(), func(int) error {
		calls++
		return permanent(sentinel)
	})

	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}
