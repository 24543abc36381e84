package extrachill

import (
	"time"
)

// User is the public profile returned with auth responses
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	ProfileURL  string `json:"profile_url,omitempty"`
}

// Me is the signed-in user's own profile
type Me struct {
	User
	Email      string `json:"email"`
	Registered string `json:"registered"`
}

// LoginResponse is returned by password and external-identity login
type LoginResponse struct {
	AccessToken      string `json:"access_token"`
	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
	User             User   `json:"user"`
}

// RegisterResponse is returned by registration
type RegisterResponse struct {
	LoginResponse
	OnboardingCompleted bool `json:"onboarding_completed"`
}

// Session is a read-only view of the held credentials
type Session struct {
	HasCredentials  bool      `json:"hasCredentials"`
	AccessExpiresAt time.Time `json:"accessExpiresAt,omitempty"`
	Expired         bool      `json:"expired"`
}

// ActivityObject references the subject of an activity
type ActivityObject struct {
	ObjectType string `json:"object_type"`
	BlogID     int    `json:"blog_id"`
	ID         string `json:"id"`
}

// ActivityCard is the preview shown for an activity item
type ActivityCard struct {
	Title     string `json:"title,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
	Permalink string `json:"permalink,omitempty"`
}

// ActivityData carries type-specific activity details
type ActivityData struct {
	PostType string        `json:"post_type,omitempty"`
	PostID   int           `json:"post_id,omitempty"`
	Card     *ActivityCard `json:"card,omitempty"`
}

// ActivityItem is a single feed entry
type ActivityItem struct {
	ID              int             `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	Type            string          `json:"type"`
	BlogID          int             `json:"blog_id"`
	ActorID         *int            `json:"actor_id"`
	Summary         string          `json:"summary"`
	Visibility      string          `json:"visibility"`
	PrimaryObject   ActivityObject  `json:"primary_object"`
	SecondaryObject *ActivityObject `json:"secondary_object,omitempty"`
	Data            *ActivityData   `json:"data,omitempty"`
}

// ActivityPage is one page of the activity feed. NextCursor is nil on the last page.
type ActivityPage struct {
	Items      []*ActivityItem `json:"items"`
	NextCursor *int            `json:"next_cursor"`
}

// OnboardingFields are the editable onboarding values
type OnboardingFields struct {
	Username           string `json:"username"`
	UserIsArtist       bool   `json:"user_is_artist"`
	UserIsProfessional bool   `json:"user_is_professional"`
}

// OnboardingStatus reports whether onboarding is done and its current values
type OnboardingStatus struct {
	Completed bool             `json:"completed"`
	Fields    OnboardingFields `json:"fields"`
}

// OnboardingResult is returned after submitting onboarding
type OnboardingResult struct {
	Success bool `json:"success"`
	User    User `json:"user"`
}

// OAuthConfig is the server's sign-in provider configuration
type OAuthConfig struct {
	Google GoogleOAuthConfig `json:"google"`
}

// GoogleOAuthConfig configures Google Sign-In
type GoogleOAuthConfig struct {
	Enabled     bool   `json:"enabled"`
	WebClientID string `json:"web_client_id"`
	IOSClientID string `json:"ios_client_id"`
}
