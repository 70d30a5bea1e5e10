package models

// DisplayMode tags how a prompt action is rendered.
type DisplayMode string

const (
	DisplayButton   DisplayMode = "button"
	DisplayLink     DisplayMode = "link"
	DisplayInline   DisplayMode = "inline"
	DisplayDisabled DisplayMode = "disabled"
)

// IsValid reports whether m is one of the four display modes.
func (m DisplayMode) IsValid() bool {
	switch m {
	case DisplayButton, DisplayLink, DisplayInline, DisplayDisabled:
		return true
	}
	return false
}

// IsValidForAccept reports whether m can render the mandatory accept action,
// which is always visible and clickable.
func (m DisplayMode) IsValidForAccept() bool {
	return m == DisplayButton || m == DisplayLink
}

// InlineText is the payload of an inline action: lead-in text followed by a
// clickable link label.
type InlineText struct {
	Text string `json:"text"`
	Link string `json:"link"`
}

// Action is a prompt action. Inline is only meaningful when Type is
// DisplayInline; the field may still be populated from defaults for other
// modes, so consumers read it through InlineText.
type Action struct {
	Type   DisplayMode `json:"type"`
	Text   string      `json:"text"`
	Color  string      `json:"color"`
	Inline *InlineText `json:"inline,omitempty"`
}

// InlineText returns the inline payload, or nil unless the action renders inline.
func (a Action) InlineText() *InlineText {
	if a.Type != DisplayInline || a.Inline == nil {
		return nil
	}
	inline := *a.Inline
	return &inline
}

// Visible reports whether the action is rendered at all.
func (a Action) Visible() bool {
	return a.Type != DisplayDisabled
}

func (a Action) clone() Action {
	if a.Inline != nil {
		inline := *a.Inline
		a.Inline = &inline
	}
	return a
}

// InitialModal configures the first-visit prompt.
type InitialModal struct {
	Title         string `json:"title"`
	Logo          string `json:"logo,omitempty"`
	Description   string `json:"description,omitempty"`
	Decline       Action `json:"decline"`
	More          Action `json:"more"`
	PrivacyPolicy Action `json:"privacyPolicy"`
	Accept        Action `json:"accept"`
}

// Clone returns a deep copy of m.
func (m InitialModal) Clone() InitialModal {
	m.Decline = m.Decline.clone()
	m.More = m.More.clone()
	m.PrivacyPolicy = m.PrivacyPolicy.clone()
	m.Accept = m.Accept.clone()
	return m
}

// PreferencesModal configures the preferences panel and carries the
// purpose/service hierarchy.
type PreferencesModal struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	UpdatedAt   string    `json:"updatedAt,omitempty"`
	Hierarchy   Hierarchy `json:"hierarchy"`
}

// Clone returns a deep copy of m.
func (m PreferencesModal) Clone() PreferencesModal {
	m.Hierarchy = m.Hierarchy.Clone()
	return m
}
