package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

type fakeAccounts struct {
	account domain.CalendarAccount
	getErr  error

	updated    bool
	updAccess  string
	updRefresh string
	updExpires int64
	updateErr  error
}

func (f *fakeAccounts) Get(ctx context.Context, userID uuid.UUID, provider string) (domain.CalendarAccount, error) {
	if f.getErr != nil {
		return domain.CalendarAccount{}, f.getErr
	}
	return f.account, nil
}

func (f *fakeAccounts) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt int64) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = true
	f.updAccess = accessToken
	f.updRefresh = refreshToken
	f.updExpires = expiresAt
	return nil
}

var (
	testUserID    = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	testAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestGateway(accounts *fakeAccounts) *Gateway {
	g := NewGateway(accounts, "client-id", "client-secret", nil)
	g.now = fixedNow
	return g
}

func TestToken_ValidPassesThrough(t *testing.T) {
	accounts := &fakeAccounts{
		account: domain.CalendarAccount{
			ID:          testAccountID,
			UserID:      testUserID,
			AccessToken: "still-good",
			ExpiresAt:   fixedNow().Add(time.Hour).Unix(),
		},
	}
	g := newTestGateway(accounts)

	tok, err := g.Token(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if tok.AccessToken != "still-good" {
		t.Fatalf("access token = %q", tok.AccessToken)
	}
	if accounts.updated {
		t.Fatalf("valid credential must not be rewritten")
	}
}

func TestToken_ZeroExpiryNeverRefreshes(t *testing.T) {
	accounts := &fakeAccounts{
		account: domain.CalendarAccount{
			ID:          testAccountID,
			AccessToken: "eternal",
			ExpiresAt:   0,
		},
	}
	g := newTestGateway(accounts)

	tok, err := g.Token(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if tok.AccessToken != "eternal" {
		t.Fatalf("access token = %q", tok.AccessToken)
	}
}

func TestToken_RefreshOnExpiry(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm error: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "refresh_token" {
			t.Fatalf("grant_type = %q", got)
		}
		if got := r.Form.Get("refresh_token"); got != "old-refresh" {
			t.Fatalf("refresh_token = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	accounts := &fakeAccounts{
		account: domain.CalendarAccount{
			ID:           testAccountID,
			AccessToken:  "stale",
			RefreshToken: "old-refresh",
			ExpiresAt:    fixedNow().Add(-time.Minute).Unix(),
		},
	}
	g := newTestGateway(accounts).WithTokenURL(tokenSrv.URL)

	tok, err := g.Token(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Token error: %v", err)
	}
	if tok.AccessToken != "fresh-access" {
		t.Fatalf("access token = %q", tok.AccessToken)
	}
	// Provider sent no rotated refresh token; the stored one survives.
	if tok.RefreshToken != "old-refresh" {
		t.Fatalf("refresh token = %q", tok.RefreshToken)
	}
	if !accounts.updated {
		t.Fatalf("refreshed credential must be persisted")
	}
	if accounts.updAccess != "fresh-access" || accounts.updRefresh != "old-refresh" {
		t.Fatalf("persisted tokens = %q / %q", accounts.updAccess, accounts.updRefresh)
	}
	if accounts.updExpires == 0 {
		t.Fatalf("persisted expiry must be set")
	}
	// Whole seconds only.
	if got := time.Unix(accounts.updExpires, 0); got.Nanosecond() != 0 {
		t.Fatalf("expiry not floored to seconds: %v", got)
	}
}

func TestToken_RefreshRejected(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenSrv.Close()

	accounts := &fakeAccounts{
		account: domain.CalendarAccount{
			ID:           testAccountID,
			AccessToken:  "stale",
			RefreshToken: "revoked",
			ExpiresAt:    fixedNow().Add(-time.Minute).Unix(),
		},
	}
	g := newTestGateway(accounts).WithTokenURL(tokenSrv.URL)

	_, err := g.Token(context.Background(), testUserID)
	if !errors.Is(err, ErrAuthRefreshFailed) {
		t.Fatalf("err = %v, want %v", err, ErrAuthRefreshFailed)
	}
	if accounts.updated {
		t.Fatalf("rejected refresh must not rewrite the stored credential")
	}
}

func TestToken_ExpiredWithoutRefreshToken(t *testing.T) {
	accounts := &fakeAccounts{
		account: domain.CalendarAccount{
			ID:          testAccountID,
			AccessToken: "stale",
			ExpiresAt:   fixedNow().Add(-time.Minute).Unix(),
		},
	}
	g := newTestGateway(accounts)

	_, err := g.Token(context.Background(), testUserID)
	if !errors.Is(err, ErrAuthRefreshFailed) {
		t.Fatalf("err = %v, want %v", err, ErrAuthRefreshFailed)
	}
}

func TestToken_MissingAccount(t *testing.T) {
	accounts := &fakeAccounts{getErr: store.ErrNotFound}
	g := newTestGateway(accounts)

	_, err := g.Token(context.Background(), testUserID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, store.ErrNotFound)
	}
}

func TestCreateEvent(t *testing.T) {
	var gotPath, gotAuth string
	var gotEvent map[string]any
	calSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotEvent); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"evt1"}`))
	}))
	defer calSrv.Close()

	accounts := &fakeAccounts{
		account: domain.CalendarAccount{
			ID:          testAccountID,
			AccessToken: "access",
			ExpiresAt:   fixedNow().Add(time.Hour).Unix(),
		},
	}
	g := newTestGateway(accounts).WithBaseURL(calSrv.URL)

	s := domain.Scheduling{
		ID:           uuid.MustParse("00000000-0000-0000-0000-000000000042"),
		Name:         "Jane Roe",
		Email:        "jane@example.com",
		Observations: "first session",
		Date:         time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	if err := g.CreateEvent(context.Background(), testUserID, s); err != nil {
		t.Fatalf("CreateEvent error: %v", err)
	}

	if gotPath != "/calendars/primary/events?conferenceDataVersion=1" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer access" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if got := gotEvent["summary"]; got != "Slotbook: Jane Roe" {
		t.Fatalf("summary = %v", got)
	}
	start := gotEvent["start"].(map[string]any)["dateTime"].(string)
	end := gotEvent["end"].(map[string]any)["dateTime"].(string)
	if start != "2026-03-02T10:00:00Z" || end != "2026-03-02T11:00:00Z" {
		t.Fatalf("start/end = %q / %q", start, end)
	}
	attendees := gotEvent["attendees"].([]any)
	if len(attendees) != 1 {
		t.Fatalf("attendees = %v", attendees)
	}
	attendee := attendees[0].(map[string]any)
	if attendee["email"] != "jane@example.com" || attendee["displayName"] != "Jane Roe" {
		t.Fatalf("attendee = %v", attendee)
	}
	createReq := gotEvent["conferenceData"].(map[string]any)["createRequest"].(map[string]any)
	if createReq["requestId"] != s.ID.String() {
		t.Fatalf("requestId = %v", createReq["requestId"])
	}
	key := createReq["conferenceSolutionKey"].(map[string]any)
	if key["type"] != "hangoutsMeet" {
		t.Fatalf("conference type = %v", key["type"])
	}
}

func TestCreateEvent_UpstreamRejects(t *testing.T) {
	calSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"insufficient scope"}}`))
	}))
	defer calSrv.Close()

	accounts := &fakeAccounts{
		account: domain.CalendarAccount{
			ID:          testAccountID,
			AccessToken: "access",
			ExpiresAt:   fixedNow().Add(time.Hour).Unix(),
		},
	}
	g := newTestGateway(accounts).WithBaseURL(calSrv.URL)

	err := g.CreateEvent(context.Background(), testUserID, domain.Scheduling{
		ID:    uuid.MustParse("00000000-0000-0000-0000-000000000042"),
		Name:  "Jane",
		Email: "jane@example.com",
		Date:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "status=403") {
		t.Fatalf("err = %v, want status in message", err)
	}
}
