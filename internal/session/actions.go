package session

// Keyboard and remote commands land here.

func (s *Session) Previous() bool    { return s.Nav.Previous() }
func (s *Session) Next() bool        { return s.Nav.Next() }
func (s *Session) First() bool       { return s.Nav.First() }
func (s *Session) Escape()           { s.Nav.Escape() }
func (s *Session) ToggleOverview()   { s.Nav.ToggleOverview() }
func (s *Session) ToggleFullscreen() { s.Presenter.ToggleFullscreen() }
func (s *Session) ZoomIn()           { s.Nav.ZoomIn() }
func (s *Session) ZoomOut()          { s.Nav.ZoomOut() }
func (s *Session) FontIn()           { s.Nav.FontIn() }
func (s *Session) FontOut()          { s.Nav.FontOut() }
func (s *Session) Refit()            { s.Nav.Refit() }

// ToggleMinimap shows or hides the minimap overlay.
func (s *Session) ToggleMinimap() {
	s.minimap = !s.minimap
	s.emit()
}

// TogglePathPreview shows or hides the slide path overlay.
func (s *Session) TogglePathPreview() {
	s.pathPreview = !s.pathPreview
	s.emit()
}
