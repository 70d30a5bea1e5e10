package config

import "consentkit/internal/consent/models"

// Partial is the integrator-supplied override. A nil field means "keep the
// default"; a non-nil field replaces it (records recurse, sequences do not).
type Partial struct {
	CookieName         *string                  `yaml:"cookieName"`
	CookieMaxAge       *int64                   `yaml:"cookieMaxAge"`
	AllowEmptyPurposes *bool                    `yaml:"allowEmptyPurposes"`
	InitialModal       *InitialModalPartial     `yaml:"initialModal"`
	PreferencesModal   *PreferencesModalPartial `yaml:"preferencesModal"`
}

type InitialModalPartial struct {
	Title         *string        `yaml:"title"`
	Logo          *string        `yaml:"logo"`
	Description   *string        `yaml:"description"`
	Decline       *ActionPartial `yaml:"decline"`
	More          *ActionPartial `yaml:"more"`
	PrivacyPolicy *ActionPartial `yaml:"privacyPolicy"`
	Accept        *ActionPartial `yaml:"accept"`
}

type ActionPartial struct {
	Type   *models.DisplayMode `yaml:"type"`
	Text   *string             `yaml:"text"`
	Color  *string             `yaml:"color"`
	Inline *InlinePartial      `yaml:"inline"`
}

type InlinePartial struct {
	Text *string `yaml:"text"`
	Link *string `yaml:"link"`
}

// PreferencesModalPartial overrides the preferences panel. Purposes replaces
// the default hierarchy as a whole whenever it holds at least one entry.
type PreferencesModalPartial struct {
	Title       *string          `yaml:"title"`
	Description *string          `yaml:"description"`
	Logo        *string          `yaml:"logo"`
	UpdatedAt   *string          `yaml:"updatedAt"`
	Purposes    []models.Purpose `yaml:"purposes"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (p *InitialModalPartial) apply(m *models.InitialModal) {
	if p == nil {
		return
	}
	setString(&m.Title, p.Title)
	setString(&m.Logo, p.Logo)
	setString(&m.Description, p.Description)
	p.Decline.apply(&m.Decline)
	p.More.apply(&m.More)
	p.PrivacyPolicy.apply(&m.PrivacyPolicy)
	p.Accept.apply(&m.Accept)
}

func (p *ActionPartial) apply(a *models.Action) {
	if p == nil {
		return
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	setString(&a.Text, p.Text)
	setString(&a.Color, p.Color)
	if p.Inline != nil {
		inline := models.InlineText{}
		if a.Inline != nil {
			inline = *a.Inline
		}
		setString(&inline.Text, p.Inline.Text)
		setString(&inline.Link, p.Inline.Link)
		a.Inline = &inline
	}
}

func (p *PreferencesModalPartial) apply(m *models.PreferencesModal) {
	if p == nil {
		return
	}
	setString(&m.Title, p.Title)
	setString(&m.Description, p.Description)
	setString(&m.Logo, p.Logo)
	setString(&m.UpdatedAt, p.UpdatedAt)
	if len(p.Purposes) > 0 {
		m.Hierarchy = models.Hierarchy{Purposes: p.Purposes}.Clone()
	}
}
