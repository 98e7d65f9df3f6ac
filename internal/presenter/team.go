// Package presenter shapes domain records for JSON responses.
package presenter

import "team-sso/internal/domain"

type Team struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	AvatarURL          string  `json:"avatarUrl"`
	SlackConnected     bool    `json:"slackConnected"`
	GoogleConnected    bool    `json:"googleConnected"`
	Office365Connected bool    `json:"office365Connected"`
	Sharing            bool    `json:"sharing"`
	DocumentEmbeds     bool    `json:"documentEmbeds"`
	GuestSignin        bool    `json:"guestSignin"`
	Subdomain          *string `json:"subdomain"`
	URL                string  `json:"url"`
	SigninMethods      string  `json:"signinMethods"`
}

func PresentTeam(t domain.Team, baseURL string, subdomainsEnabled bool) Team {
	return Team{
		ID:                 t.ID,
		Name:               t.Name,
		AvatarURL:          t.AvatarURL,
		SlackConnected:     t.SlackConnected(),
		GoogleConnected:    t.GoogleConnected(),
		Office365Connected: t.Office365Connected(),
		Sharing:            t.Sharing,
		DocumentEmbeds:     t.DocumentEmbeds,
		GuestSignin:        t.GuestSignin,
		Subdomain:          t.Subdomain,
		URL:                domain.TeamURL(t, baseURL, subdomainsEnabled),
		SigninMethods:      domain.SigninMethods(t),
	}
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
	IsAdmin   bool   `json:"isAdmin"`
	Service   string `json:"service,omitempty"`
}

func PresentUser(u domain.User) User {
	out := User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		IsAdmin:   u.IsAdmin,
	}
	if u.Service != nil {
		out.Service = *u.Service
	}
	return out
}
