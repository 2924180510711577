package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	defaultUserInfoMethod     = "realtime.get_user_info"
	defaultCanSubscribeMethod = "realtime.can_subscribe_doc"
)

// UserInfo is the canonical identity the identity service resolves a
// session token to.
type UserInfo struct {
	User     string `json:"user"`
	UserType string `json:"user_type"`
}

// APIClient calls the identity and permission endpoints of the backend
// serving the connection's origin. All calls are fire-once: no retries.
type APIClient struct {
	http               *http.Client
	userInfoMethod     string
	canSubscribeMethod string
}

func NewAPIClient() *APIClient {
	c := &APIClient{
		http:               &http.Client{Timeout: 10 * time.Second},
		userInfoMethod:     defaultUserInfoMethod,
		canSubscribeMethod: defaultCanSubscribeMethod,
	}
	if m := os.Getenv("USER_INFO_METHOD"); m != "" {
		c.userInfoMethod = m
	}
	if m := os.Getenv("CAN_SUBSCRIBE_METHOD"); m != "" {
		c.canSubscribeMethod = m
	}
	return c
}

func (c *APIClient) methodURL(origin, method string, query url.Values) string {
	return origin + "/api/method/" + method + "?" + query.Encode()
}

// GetUserInfo exchanges a session token for the acting user identity.
// Any non-2xx status or transport failure is a resolution failure.
func (c *APIClient) GetUserInfo(ctx context.Context, origin, sid string) (UserInfo, error) {
	query := url.Values{"sid": {sid}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL(origin, c.userInfoMethod, query), nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("building user info request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("calling identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UserInfo{}, fmt.Errorf("identity service returned %d", resp.StatusCode)
	}

	var body struct {
		Message UserInfo `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return UserInfo{}, fmt.Errorf("decoding identity response: %w", err)
	}
	if body.Message.User == "" {
		return UserInfo{}, fmt.Errorf("identity response has no user")
	}
	return body.Message, nil
}

// CanSubscribeDoc asks the permission service whether the session may
// access a document. 200 means allowed, 403 means denied; both are
// ordinary outcomes, not errors. Anything else is an error for the caller
// to log.
func (c *APIClient) CanSubscribeDoc(ctx context.Context, origin, sid, doctype, docname string) (bool, error) {
	query := url.Values{
		"sid":     {sid},
		"doctype": {doctype},
		"docname": {docname},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL(origin, c.canSubscribeMethod, query), nil)
	if err != nil {
		return false, fmt.Errorf("building permission request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("calling permission service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("permission service returned %d", resp.StatusCode)
	}
}
