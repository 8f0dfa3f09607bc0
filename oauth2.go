package authd

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const oauthStateCookie = "oauthstate"

// ExternalAuth signs users in through an OAuth2 identity provider. The
// provider asserts the email; accounts are provisioned on first sign-in via
// Service.EnsureExternalUser and receive a session token like any local
// sign-in.
type ExternalAuth struct {
	Service *Service

	// Provider configuration (client ID/secret, endpoint, redirect URL).
	Config *oauth2.Config

	// UserInfoURL is the provider endpoint returning the profile document
	// for an access token. The document must carry an "email" field.
	UserInfoURL string
}

// HandleRedirect sends the caller to the provider's consent page with a
// fresh state cookie.
func (e *ExternalAuth) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	state := generateStateOauthCookie(w)
	http.Redirect(w, r, e.Config.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback completes the provider flow: it checks the state cookie,
// exchanges the code, fetches the asserted profile and responds with a
// session token bound to the (possibly just provisioned) account.
func (e *ExternalAuth) HandleCallback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie(oauthStateCookie)
	if err != nil || state.Value == "" {
		writeError(w, NewAuthError(KindBadRequest, "Missing oauth state", ""))
		return
	}
	if r.FormValue("state") != state.Value {
		http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, MaxAge: -1})
		writeError(w, NewAuthError(KindBadRequest, "Invalid oauth state", ""))
		return
	}

	token, err := e.Config.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		log.Println("code exchange failed: ", err)
		writeError(w, NewAuthError(KindUnauthorized, "Code exchange failed", ""))
		return
	}

	userInfo, err := e.fetchUserInfo(token)
	if err != nil {
		log.Println("error fetching user info: ", err)
		writeError(w, NewAuthError(KindUnauthorized, "Could not fetch user info", ""))
		return
	}
	email, _ := userInfo["email"].(string)

	profile, err := e.Service.EnsureExternalUser(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	sessionToken, err := e.Service.Tokens.Issue(profile.ID)
	if err != nil {
		writeError(w, fmt.Errorf("failed to issue token: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, SignInResult{Token: sessionToken, User: profile})
}

// fetchUserInfo retrieves the provider's profile document for the token.
func (e *ExternalAuth) fetchUserInfo(token *oauth2.Token) (map[string]any, error) {
	response, err := http.Get(e.UserInfoURL + "?access_token=" + token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %s", err.Error())
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %s", err.Error())
	}

	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, err
	}
	return userInfo, nil
}

func generateStateOauthCookie(w http.ResponseWriter) string {
	var expiration = time.Now().Add(30 * 24 * time.Hour)
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Println("Error generating rand: ", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	cookie := http.Cookie{Name: oauthStateCookie, Value: state, Path: "/", Expires: expiration}
	http.SetCookie(w, &cookie)
	return state
}
