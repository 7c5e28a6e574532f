package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GitHubUser is the part of the GitHub /user response used to create an
// account. The rest of the (large) object is ignored.
type GitHubUser struct {
	ID    int64  `json:"id"`    // numeric and stable; the login can be renamed
	Login string `json:"login"` // becomes the username
	Name  string `json:"name"`
	Email string `json:"email"` // empty when the user hides it
	Bio   string `json:"bio"`
}

type gitHubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// GitHubProvider runs the OAuth authorization code flow against GitHub.
//
// THE FLOW:
//  1. /auth/github/login redirects the browser to AuthURL(state)
//  2. The user approves the app on github.com
//  3. GitHub redirects to the callback URL with a one-time code
//  4. Exchange swaps the code for an access token, server to server,
//     authenticated with the client secret
//  5. The access token reads /user (and /user/emails when needed)
//
// The access token never reaches the browser and is dropped after step 5.
// The app only needs the profile once, to find or create the local user.
//
// STATE:
// The login handler stores a random state in a short-lived cookie and
// passes the same value to AuthURL. The callback rejects a mismatch, so
// another site cannot complete a sign-in into an account of its choosing.
type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

// NewGitHubProvider asks for read:user and user:email. callbackURL must
// match the one registered for the OAuth app.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiURL: "https://api.github.com",
	}
}

// AuthURL is where the browser goes to approve the sign-in. state is echoed
// back on the callback and checked against a cookie.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the signed-in GitHub profile.
// Users who hide their e-mail get their primary verified address from
// /user/emails instead.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	client := p.config.Client(ctx, token)

	var ghUser GitHubUser
	if err := p.getJSON(ctx, client, "/user", &ghUser); err != nil {
		return nil, err
	}
	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	if ghUser.Email == "" {
		var emails []gitHubEmail
		if err := p.getJSON(ctx, client, "/user/emails", &emails); err == nil {
			ghUser.Email = primaryEmail(emails)
		}
	}
	return &ghUser, nil
}

func (p *GitHubProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("auth: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling GitHub %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: GitHub %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("auth: decoding GitHub %s: %w", path, err)
	}
	return nil
}

func primaryEmail(emails []gitHubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}
