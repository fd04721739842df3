package submission

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence/internal/nonce/models"
	"presence/internal/nonce/store"
	"presence/pkg/domain"
	"presence/pkg/platform/sentinel"
)

func newService(t *testing.T) (*Service, *store.InMemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewInMemory()
	return New(st, logger, nil), st
}

func issueNonce(t *testing.T, st *store.InMemoryStore, nodeID string) string {
	t.Helper()
	n, err := st.Create(context.Background(), nodeID, models.DefaultTTL)
	require.NoError(t, err)
	return n.ID
}

func validRequest(nonce, nodeID string) Request {
	return Request{
		Nonce:        nonce,
		NodeID:       nodeID,
		CapturedAtMs: 1700000000000,
		Media:        Media{PhotoSHA256: "aaaaaaaaaaaaaaaa"},
	}
}

func TestSubmit_Accepted(t *testing.T) {
	svc, st := newService(t)
	nonce := issueNonce(t, st, "site-1")

	receipt, err := svc.Submit(context.Background(), validRequest(nonce, "site-1"))
	require.NoError(t, err)

	assert.Equal(t, StatusReceived, receipt.Status)
	assert.Equal(t, "sub_"+nonce, receipt.SubmissionID, "submission id is derived from the nonce")
	require.NotNil(t, receipt.Nonce.ConsumedAt)
}

func TestSubmit_ReplayReportsAlreadyUsed(t *testing.T) {
	svc, st := newService(t)
	nonce := issueNonce(t, st, "site-1")

	_, err := svc.Submit(context.Background(), validRequest(nonce, "site-1"))
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), validRequest(nonce, "site-1"))
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestSubmit_UnknownNonce(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Submit(context.Background(), validRequest(uuid.NewString(), "site-1"))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

// expiredStore always answers expired, standing in for a store whose clock
// has moved past the nonce's window.
type expiredStore struct{}

func (expiredStore) Create(context.Context, string, time.Duration) (*models.Nonce, error) {
	return nil, nil
}

func (expiredStore) Consume(_ context.Context, id string, _ time.Time) (*models.Nonce, error) {
	return nil, fmt.Errorf("nonce %s: %w", id, sentinel.ErrExpired)
}

func (expiredStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func TestSubmit_ExpiredNonce(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(expiredStore{}, logger, nil)

	_, err := svc.Submit(context.Background(), validRequest(uuid.NewString(), "site-1"))
	assert.ErrorIs(t, err, sentinel.ErrExpired)
}

func TestSubmit_NodeMismatchBurnsNonce(t *testing.T) {
	svc, st := newService(t)
	nonce := issueNonce(t, st, "site-1")

	_, err := svc.Submit(context.Background(), validRequest(nonce, "site-2"))
	require.ErrorIs(t, err, ErrNodeMismatch)

	// Retry against the correct node: the nonce is gone for good.
	_, err = svc.Submit(context.Background(), validRequest(nonce, "site-1"))
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
}

func TestSubmit_Validation(t *testing.T) {
	svc, st := newService(t)
	nonce := issueNonce(t, st, "site-1")
	negAccuracy := -1.0
	hugeAccuracy := 10001.0

	tests := []struct {
		name   string
		mutate func(*Request)
		path   string
	}{
		{"malformed nonce", func(r *Request) { r.Nonce = "not-a-uuid" }, "nonce"},
		{"empty node id", func(r *Request) { r.NodeID = "" }, "nodeId"},
		{"negative capture time", func(r *Request) { r.CapturedAtMs = -1 }, "capturedAtMs"},
		{"latitude out of range", func(r *Request) { r.Location = &Location{Lat: 91, Lng: 0} }, "location.lat"},
		{"longitude out of range", func(r *Request) { r.Location = &Location{Lat: 0, Lng: -181} }, "location.lng"},
		{"negative accuracy", func(r *Request) { r.Location = &Location{AccuracyM: &negAccuracy} }, "location.accuracyM"},
		{"accuracy too large", func(r *Request) { r.Location = &Location{AccuracyM: &hugeAccuracy} }, "location.accuracyM"},
		{"missing media evidence", func(r *Request) { r.Media = Media{} }, "media"},
		{"invalid photo url", func(r *Request) { r.Media = Media{PhotoURL: "::not a url::"} }, "media.photoUrl"},
		{"short photo digest", func(r *Request) { r.Media = Media{PhotoSHA256: "short"} }, "media.photoSha256"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(nonce, "site-1")
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)

			paths := make([]string, 0, len(verr.Issues))
			for _, issue := range verr.Issues {
				paths = append(paths, issue.Path)
			}
			assert.Contains(t, paths, tt.path)
		})
	}

	// Validation failures must not touch the store: the nonce is still live.
	_, err := svc.Submit(context.Background(), validRequest(nonce, "site-1"))
	assert.NoError(t, err, "nonce survives rejected shapes and redeems cleanly")
}

func TestSubmit_OptionalLocationAccepted(t *testing.T) {
	svc, st := newService(t)
	nonce := issueNonce(t, st, "site-1")

	req := validRequest(nonce, "site-1")
	req.Location = &Location{Lat: -26.2041, Lng: 28.0473}

	_, err := svc.Submit(context.Background(), req)
	assert.NoError(t, err)
}
