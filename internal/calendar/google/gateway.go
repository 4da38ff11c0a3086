package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

const (
	defaultBaseURL  = "https://www.googleapis.com/calendar/v3"
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultCalendar = "primary"
)

// ErrAuthRefreshFailed is returned when Google rejects the refresh token.
// The stored credential is left untouched in that case.
var ErrAuthRefreshFailed = errors.New("calendar token refresh rejected")

// Gateway creates calendar events for committed bookings, refreshing the
// owner's OAuth credential on the way when it has expired.
type Gateway struct {
	accounts   store.CalendarAccountRepository
	oauth      *oauth2.Config
	log        *slog.Logger
	baseURL    string
	calendarID string
	now        func() time.Time
}

func NewGateway(accounts store.CalendarAccountRepository, clientID, clientSecret string, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		accounts: accounts,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: defaultTokenURL},
		},
		log:        log.With(slog.String("component", "calendar.google")),
		baseURL:    defaultBaseURL,
		calendarID: defaultCalendar,
		now:        time.Now,
	}
}

// WithBaseURL points the gateway at a different calendar API host.
func (g *Gateway) WithBaseURL(baseURL string) *Gateway {
	if baseURL != "" {
		g.baseURL = baseURL
	}
	return g
}

// WithTokenURL points the refresh flow at a different token endpoint.
func (g *Gateway) WithTokenURL(tokenURL string) *Gateway {
	if tokenURL != "" {
		g.oauth.Endpoint = oauth2.Endpoint{TokenURL: tokenURL}
	}
	return g
}

// Token returns a non-expired credential for the user, refreshing and
// persisting it when the stored one has expired. A missing linked account is
// an error here; callers that treat mirroring as optional check for the
// account themselves first.
func (g *Gateway) Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	account, err := g.accounts.Get(ctx, userID, domain.CalendarProviderGoogle)
	if err != nil {
		return nil, err
	}
	return g.validToken(ctx, account)
}

func (g *Gateway) validToken(ctx context.Context, account domain.CalendarAccount) (*oauth2.Token, error) {
	tok := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
	}
	if account.ExpiresAt != 0 {
		tok.Expiry = time.Unix(account.ExpiresAt, 0)
	}

	// Zero expiry never expires.
	if !account.Expired(g.now()) {
		return tok, nil
	}

	if account.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token stored", ErrAuthRefreshFailed)
	}

	fresh, err := g.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: account.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRefreshFailed, err)
	}

	refreshToken := fresh.RefreshToken
	if refreshToken == "" {
		refreshToken = account.RefreshToken
	}
	// Providers answer with sub-second expiry; stored expiry is whole seconds,
	// rounded down.
	var expiresAt int64
	if !fresh.Expiry.IsZero() {
		expiresAt = fresh.Expiry.Unix()
	}

	if err := g.accounts.UpdateTokens(ctx, account.ID, fresh.AccessToken, refreshToken, expiresAt); err != nil {
		return nil, err
	}

	g.log.Info("calendar token refreshed",
		slog.String("account_id", account.ID.String()),
		slog.Int64("expires_at", expiresAt),
	)

	return &oauth2.Token{
		AccessToken:  fresh.AccessToken,
		RefreshToken: refreshToken,
		Expiry:       time.Unix(expiresAt, 0),
	}, nil
}

type calendarEvent struct {
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Start       struct {
		DateTime string `json:"dateTime"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
	} `json:"end"`
	Attendees []struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName,omitempty"`
	} `json:"attendees,omitempty"`
	ConferenceData *conferenceData `json:"conferenceData,omitempty"`
}

type conferenceData struct {
	CreateRequest struct {
		RequestID             string `json:"requestId"`
		ConferenceSolutionKey struct {
			Type string `json:"type"`
		} `json:"conferenceSolutionKey"`
	} `json:"createRequest"`
}

// CreateEvent inserts a one-hour event for the booking into the owner's
// primary calendar, with the invitee as attendee and the scheduling id as the
// conference-creation request key so retries stay idempotent.
func (g *Gateway) CreateEvent(ctx context.Context, userID uuid.UUID, s domain.Scheduling) error {
	tok, err := g.Token(ctx, userID)
	if err != nil {
		return err
	}

	event := calendarEvent{
		Summary:     fmt.Sprintf("Slotbook: %s", s.Name),
		Description: s.Observations,
	}
	event.Start.DateTime = s.Date.Format(time.RFC3339)
	event.End.DateTime = s.Date.Add(time.Hour).Format(time.RFC3339)
	event.Attendees = []struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName,omitempty"`
	}{
		{Email: s.Email, DisplayName: s.Name},
	}
	conf := &conferenceData{}
	conf.CreateRequest.RequestID = s.ID.String()
	conf.CreateRequest.ConferenceSolutionKey.Type = "hangoutsMeet"
	event.ConferenceData = conf

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	insertURL := fmt.Sprintf("%s/calendars/%s/events?conferenceDataVersion=1", g.baseURL, g.calendarID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, insertURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: 15 * time.Second,
		Transport: &oauthTransport{
			base:   http.DefaultTransport,
			source: oauth2.StaticTokenSource(tok),
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}

	g.log.Info("calendar event created",
		slog.String("scheduling_id", s.ID.String()),
		slog.Time("start", s.Date),
	)
	return nil
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("calendar event insert failed: status=%d body=%s", resp.StatusCode, string(body))
}

type oauthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

func (t *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.source.Token()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	tok.SetAuthHeader(clone)
	return t.base.RoundTrip(clone)
}
