package deck

// Patch is a partial update of a presentation. Nil fields are left alone.
type Patch struct {
	CurrentSlideID  *string          `json:"currentSlideId,omitempty"`
	PresenterUserID *string          `json:"presenterUserId,omitempty"`
	Title           *string          `json:"title,omitempty"`
	Description     *string          `json:"description,omitempty"`
	IsPublic        *bool            `json:"isPublic,omitempty"`
	IsPresenting    *bool            `json:"isPresenting,omitempty"`
	ShowSlideRing   *bool            `json:"showSlideRing,omitempty"`
	ViewerSize      *ViewerSize      `json:"viewerSize,omitempty"`
	BackgroundType  *BackgroundStyle `json:"backgroundType,omitempty"`
	ViewerCountdown *int             `json:"viewerCountdown,omitempty"`
	ViewerAnimation *ViewerAnimation `json:"viewerAnimation,omitempty"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// TouchesMetadata reports whether p edits creator-only metadata.
func (p Patch) TouchesMetadata() bool {
	return p.Title != nil || p.Description != nil || p.IsPublic != nil
}

// TouchesViewerSettings reports whether p edits creator-only viewer settings.
func (p Patch) TouchesViewerSettings() bool {
	return p.ShowSlideRing != nil || p.ViewerSize != nil || p.BackgroundType != nil ||
		p.ViewerCountdown != nil || p.ViewerAnimation != nil
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.CurrentSlideID == nil && p.PresenterUserID == nil && p.IsPresenting == nil &&
		!p.TouchesMetadata() && !p.TouchesViewerSettings()
}

// ViewerSettingsPatch builds a patch from a full Settings value.
func ViewerSettingsPatch(s Settings) Patch {
	return Patch{
		ShowSlideRing:   Ptr(s.ShowSlideRing),
		ViewerSize:      Ptr(s.ViewerSize),
		BackgroundType:  Ptr(s.Background),
		ViewerCountdown: Ptr(ClampCountdown(s.ViewerCountdown)),
		ViewerAnimation: Ptr(s.ViewerAnimation),
	}
}
