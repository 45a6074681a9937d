package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GraphBaseURL is the Microsoft Graph API v1.0 base URL.
const GraphBaseURL = "https://graph.microsoft.com/v1.0"

// UserInfo contains the user's basic profile information from Microsoft
// Graph, used to confirm which account a session is bound to.
type UserInfo struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// GetUserInfo fetches the signed-in user's profile using an access token.
func GetUserInfo(ctx context.Context, baseURL, accessToken string) (*UserInfo, error) {
	if baseURL == "" {
		baseURL = GraphBaseURL
	}
	url := baseURL + "/me?$select=id,displayName,mail,userPrincipalName"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request: %w", WrapStatus(resp.StatusCode))
	}

	var userInfo UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	return &userInfo, nil
}

// Email returns the user's email address, falling back to the principal
// name when mail is not set.
func (u *UserInfo) Email() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}
