package handler

import (
	"consentkit/internal/consent/models"
)

// ConsentResponse describes the profile's current decision.
type ConsentResponse struct {
	HasConsent  bool               `json:"hasConsent"`
	Preferences models.Preferences `json:"preferences"`
}

// PromptResponse tells the presentation layer whether to show the prompt.
type PromptResponse struct {
	Show bool `json:"show"`
}

// ConfigResponse hands the resolved modal configuration to the front end.
type ConfigResponse struct {
	CookieName       string                  `json:"cookieName"`
	InitialModal     models.InitialModal     `json:"initialModal"`
	PreferencesModal models.PreferencesModal `json:"preferencesModal"`
}

type ServiceResponse struct {
	ServiceID string `json:"serviceId"`
	Enabled   bool   `json:"enabled"`
}

type ServicesResponse struct {
	Services map[string]bool `json:"services"`
}
