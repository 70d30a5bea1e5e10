package config

import "consentkit/internal/consent/models"

const (
	DefaultCookieName   = "consent"
	DefaultCookieMaxAge = 60 * 60 * 24 * 365 // one year, in seconds
)

// Defaults returns the built-in settings. Each call builds a fresh value.
func Defaults() Settings {
	return Settings{
		CookieName:   DefaultCookieName,
		CookieMaxAge: DefaultCookieMaxAge,
		InitialModal: models.InitialModal{
			Title:       "Hmmmm Cookies...",
			Description: "Welcome, would you be bothered if we use cookies for {{ purposes }} to make your experience better?",
			Decline: models.Action{
				Type:   models.DisplayInline,
				Text:   "Decline",
				Color:  "red",
				Inline: &models.InlineText{Text: "You can also", Link: "decline"},
			},
			More: models.Action{
				Type:   models.DisplayInline,
				Text:   "More",
				Color:  "green",
				Inline: &models.InlineText{Text: " You can also control your cookies ", Link: "here"},
			},
			PrivacyPolicy: models.Action{
				Type:   models.DisplayInline,
				Text:   "Privacy Policy",
				Color:  "yellow",
				Inline: &models.InlineText{Text: " For more information, check out our ", Link: "privacy policy"},
			},
			Accept: models.Action{
				Type:  models.DisplayLink,
				Text:  "Accept",
				Color: "cyan",
			},
		},
		PreferencesModal: models.PreferencesModal{
			Title:       "Cookie Settings",
			Description: "Manage your privacy preferences and cookie settings",
			Hierarchy: models.Hierarchy{Purposes: []models.Purpose{
				{
					ID:          "services",
					Title:       "Services",
					Description: "These services are essential for the proper functioning of this website. You cannot disable them here, as otherwise the service would not function correctly.",
					Services: []models.Service{
						{
							ID:          "session",
							Title:       "Session",
							Description: "Remembers your preferences, activities and settings during your session to provide a safe, personalized and seamless experience while you use the website.",
							Required:    true,
						},
						{
							ID:          "consent-management",
							Title:       "Consent-management",
							Description: "Manages your cookie and data processing consent preferences, giving you control over your information and privacy while browsing.",
							Required:    true,
						},
					},
				},
				{
					ID:          "performance-optimization",
					Title:       "Performance optimization",
					Description: "These services process personal information to optimize the service provided by this website.",
					Services: []models.Service{
						{
							ID:          "matomo-analytics",
							Title:       "Matomo Analytics",
							Description: "Collects data about your website visit using cookies to help us improve performance and user experience.",
						},
					},
				},
				{
					ID:          "marketing",
					Title:       "Marketing",
					Description: "These services process personal information to show you relevant content about products, services or topics that may be of interest to you.",
					Services: []models.Service{
						{
							ID:          "conversion-api",
							Title:       "Conversion API",
							Description: "Uses personal data to better understand target audiences, measure campaign effectiveness, and personalize your experience.",
						},
						{
							ID:          "meta-pixel",
							Title:       "Meta-pixel",
							Description: "Uses cookies to collect data about your interactions on our website, so we can provide targeted advertising through Meta and measure the effectiveness of our marketing campaigns.",
						},
					},
				},
			}},
		},
	}
}
