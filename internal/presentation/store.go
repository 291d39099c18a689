// Package presentation is the SQLite-backed remote store that sessions poll
// and patch.
package presentation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/zoomdeck/internal/audit"
	"github.com/ziadkadry99/zoomdeck/internal/db"
	"github.com/ziadkadry99/zoomdeck/internal/deck"
)

var (
	errMetadataCreatorOnly = fmt.Errorf("only the creator can update presentation settings: %w", deck.ErrForbidden)
	errViewerCreatorOnly   = fmt.Errorf("only the creator can update viewer settings: %w", deck.ErrForbidden)
)

// Summary is a presentation without its slides, used for listings.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	IsPublic     bool      `json:"isPublic"`
	IsPresenting bool      `json:"isPresenting"`
	SlideCount   int       `json:"slideCount"`
	CreatedByID  string    `json:"createdById"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// querier is satisfied by *db.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Observer receives the history entries of a change once it has committed.
type Observer func(ctx context.Context, entries []audit.Entry)

// Store provides access to presentations and their slides.
type Store struct {
	db        *db.DB
	observers []Observer
}

// Observe registers fn to run after every committed change. Observers must
// be registered before the store is shared.
func (s *Store) Observe(fn Observer) {
	s.observers = append(s.observers, fn)
}

func (s *Store) notify(ctx context.Context, entries []audit.Entry) {
	if len(entries) == 0 {
		return
	}
	for _, fn := range s.observers {
		fn(ctx, entries)
	}
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get loads a presentation with its slides ordered by order.
func (s *Store) Get(ctx context.Context, id string) (*deck.Presentation, error) {
	return load(ctx, s.db, id)
}

// GetFor loads a presentation on behalf of userID. Private presentations
// need an identified user.
func (s *Store) GetFor(ctx context.Context, id, userID string) (*deck.Presentation, error) {
	p, err := load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublic && userID == "" {
		return nil, deck.ErrUnauthorized
	}
	return p, nil
}

// List returns the presentations userID may open: every public one plus
// the user's own.
func (s *Store) List(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.description, p.is_public, p.is_presenting, p.created_by_id, p.updated_at,
			(SELECT COUNT(*) FROM slides s WHERE s.presentation_id = p.id)
		FROM presentations p
		WHERE p.is_public = 1 OR (p.created_by_id = ? AND ? != '')
		ORDER BY p.updated_at DESC, p.title`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing presentations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Description, &sum.IsPublic, &sum.IsPresenting,
			&sum.CreatedByID, &updated, &sum.SlideCount); err != nil {
			return nil, fmt.Errorf("scanning presentation: %w", err)
		}
		sum.UpdatedAt = parseTime(updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Save inserts p owned by owner, or replaces its metadata and slides when a
// presentation with the same id already belongs to owner. Missing ids are
// generated.
func (s *Store) Save(ctx context.Context, p *deck.Presentation, owner string) (*deck.Presentation, error) {
	if owner == "" {
		return nil, deck.ErrUnauthorized
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", deck.ErrInvalid)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	for i := range p.Slides {
		if p.Slides[i].ID == "" {
			p.Slides[i].ID = uuid.New().String()
		}
		if err := validateSlide(p.Slides[i]); err != nil {
			return nil, err
		}
	}
	settings := deck.DefaultSettings().Merge(p)

	var (
		saved     *deck.Presentation
		committed audit.Entry
	)
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		var creator string
		err := tx.QueryRowContext(ctx, `SELECT created_by_id FROM presentations WHERE id = ?`, p.ID).Scan(&creator)
		exists := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking presentation: %w", err)
		}
		if exists && creator != owner {
			return errMetadataCreatorOnly
		}

		if exists {
			_, err = tx.ExecContext(ctx, `
				UPDATE presentations SET title = ?, description = ?, is_public = ?,
					show_slide_ring = ?, viewer_size = ?, background_type = ?,
					viewer_countdown = ?, viewer_animation = ?, updated_at = datetime('now')
				WHERE id = ?`,
				p.Title, p.Description, p.IsPublic,
				settings.ShowSlideRing, string(settings.ViewerSize), string(settings.Background),
				settings.ViewerCountdown, string(settings.ViewerAnimation), p.ID)
			if err != nil {
				return fmt.Errorf("updating presentation: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM slides WHERE presentation_id = ?`, p.ID); err != nil {
				return fmt.Errorf("clearing slides: %w", err)
			}
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO presentations (id, title, description, is_public, show_slide_ring,
					viewer_size, background_type, viewer_countdown, viewer_animation, created_by_id)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, p.Title, p.Description, p.IsPublic, settings.ShowSlideRing,
				string(settings.ViewerSize), string(settings.Background),
				settings.ViewerCountdown, string(settings.ViewerAnimation), owner)
			if err != nil {
				return fmt.Errorf("inserting presentation: %w", err)
			}
		}

		for i, sl := range p.Slides {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO slides (id, presentation_id, position, title, content, x, y, width, height,
					sort_order, background_color, text_color, notes, transition_type)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sl.ID, p.ID, i, sl.Title, sl.Content, sl.X, sl.Y, sl.Width, sl.Height,
				sl.Order, sl.BackgroundColor, sl.TextColor, sl.Notes, string(sl.TransitionType))
			if err != nil {
				return fmt.Errorf("inserting slide %s: %w", sl.ID, err)
			}
		}

		// A replaced deck may no longer contain the slide being shown.
		if _, err := tx.ExecContext(ctx, `
			UPDATE presentations SET current_slide_id = ''
			WHERE id = ? AND current_slide_id != ''
				AND current_slide_id NOT IN (SELECT id FROM slides WHERE presentation_id = ?)`,
			p.ID, p.ID); err != nil {
			return fmt.Errorf("resetting current slide: %w", err)
		}

		entry := audit.Entry{
			PresentationID: p.ID,
			ActorID:        owner,
			Action:         audit.ActionCreated,
			Summary:        fmt.Sprintf("created with %d slides", len(p.Slides)),
			NewValue:       p.Title,
		}
		if exists {
			entry.Action = audit.ActionMetadataUpdated
			entry.Summary = fmt.Sprintf("reimported with %d slides", len(p.Slides))
		}
		stamp(&entry)
		if err := audit.LogTo(ctx, tx, entry); err != nil {
			return err
		}
		committed = entry

		saved, err = load(ctx, tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, []audit.Entry{committed})
	return saved, nil
}

func validateSlide(sl deck.Slide) error {
	if sl.Width < 0 || sl.Height < 0 {
		return fmt.Errorf("%w: slide %s has negative size", deck.ErrInvalid, sl.ID)
	}
	if !sl.TransitionType.Valid() {
		return fmt.Errorf("%w: slide %s has unknown transition %q", deck.ErrInvalid, sl.ID, sl.TransitionType)
	}
	return nil
}

// ApplyPatch applies patch on behalf of userID and records tag as the last
// writer. Metadata and viewer settings are creator-only; isPresenting is
// silently ignored unless userID is the creator or the assigned presenter.
func (s *Store) ApplyPatch(ctx context.Context, id, userID string, patch deck.Patch, tag deck.WriteTag) (*deck.Presentation, error) {
	var (
		updated *deck.Presentation
		entries []audit.Entry
	)
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		cur, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cur.IsPublic && userID == "" {
			return deck.ErrUnauthorized
		}
		creator := userID != "" && userID == cur.CreatorID()
		if patch.TouchesMetadata() && !creator {
			return errMetadataCreatorOnly
		}
		if patch.TouchesViewerSettings() && !creator {
			return errViewerCreatorOnly
		}

		u := &update{presentationID: id, actor: userID, tag: tag}
		if err := u.collect(cur, patch, userID); err != nil {
			return err
		}
		if err := u.exec(ctx, tx); err != nil {
			return err
		}
		entries = u.entries

		updated, err = load(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, entries)
	return updated, nil
}

// update accumulates the column changes and history entries of one patch.
type update struct {
	presentationID string
	actor          string
	tag            deck.WriteTag

	sets    []string
	args    []any
	entries []audit.Entry
	// slideMoved marks a patch that changes current_slide_id. Only those
	// record the writer tag, so echo checks compare slide writes only.
	slideMoved bool
}

func (u *update) set(col string, v any, action audit.Action, summary, prev, next string) {
	u.sets = append(u.sets, col+" = ?")
	u.args = append(u.args, v)
	u.entries = append(u.entries, audit.Entry{
		PresentationID: u.presentationID,
		ActorID:        u.actor,
		Session:        u.tag.Session,
		Seq:            u.tag.Seq,
		Action:         action,
		Summary:        summary,
		PreviousValue:  prev,
		NewValue:       next,
	})
}

func (u *update) collect(cur *deck.Presentation, patch deck.Patch, userID string) error {
	if v := patch.CurrentSlideID; v != nil && *v != cur.CurrentSlideID {
		if _, ok := cur.Slide(*v); *v != "" && !ok {
			return fmt.Errorf("%w: unknown slide %q", deck.ErrInvalid, *v)
		}
		u.set("current_slide_id", *v, audit.ActionSlideChanged, "moved to slide "+*v, cur.CurrentSlideID, *v)
		u.slideMoved = true
	}
	if v := patch.PresenterUserID; v != nil && *v != cur.PresenterUserID {
		u.set("presenter_user_id", *v, audit.ActionPresenterAssigned, "presenter set to "+*v, cur.PresenterUserID, *v)
	}
	if v := patch.IsPresenting; v != nil && *v != cur.IsPresenting && cur.IsPresenter(userID) {
		action, summary := audit.ActionPresentingStopped, "stopped presenting"
		if *v {
			action, summary = audit.ActionPresentingStarted, "started presenting"
		}
		u.set("is_presenting", *v, action, summary, strconv.FormatBool(cur.IsPresenting), strconv.FormatBool(*v))
	}
	if v := patch.Title; v != nil && *v != cur.Title {
		if strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: title is required", deck.ErrInvalid)
		}
		u.set("title", *v, audit.ActionMetadataUpdated, "title changed", cur.Title, *v)
	}
	if v := patch.Description; v != nil && *v != cur.Description {
		u.set("description", *v, audit.ActionMetadataUpdated, "description changed", cur.Description, *v)
	}
	if v := patch.IsPublic; v != nil && *v != cur.IsPublic {
		summary := "made private"
		if *v {
			summary = "made public"
		}
		u.set("is_public", *v, audit.ActionVisibilityChanged, summary, strconv.FormatBool(cur.IsPublic), strconv.FormatBool(*v))
	}
	return u.collectSettings(cur, patch)
}

func (u *update) collectSettings(cur *deck.Presentation, patch deck.Patch) error {
	have := deck.DefaultSettings().Merge(cur)

	if v := patch.ShowSlideRing; v != nil && *v != have.ShowSlideRing {
		u.set("show_slide_ring", *v, audit.ActionSettingsUpdated, "showSlideRing",
			strconv.FormatBool(have.ShowSlideRing), strconv.FormatBool(*v))
	}
	if v := patch.ViewerSize; v != nil && *v != have.ViewerSize {
		if !v.Valid() {
			return fmt.Errorf("%w: unknown viewer size %q", deck.ErrInvalid, *v)
		}
		u.set("viewer_size", string(*v), audit.ActionSettingsUpdated, "viewerSize", string(have.ViewerSize), string(*v))
	}
	if v := patch.BackgroundType; v != nil && *v != have.Background {
		if !v.Valid() {
			return fmt.Errorf("%w: unknown background %q", deck.ErrInvalid, *v)
		}
		u.set("background_type", string(*v), audit.ActionSettingsUpdated, "backgroundType", string(have.Background), string(*v))
	}
	if v := patch.ViewerCountdown; v != nil {
		n := deck.ClampCountdown(*v)
		if n != have.ViewerCountdown {
			u.set("viewer_countdown", n, audit.ActionSettingsUpdated, "viewerCountdown",
				strconv.Itoa(have.ViewerCountdown), strconv.Itoa(n))
		}
	}
	if v := patch.ViewerAnimation; v != nil && *v != have.ViewerAnimation {
		if !v.Valid() {
			return fmt.Errorf("%w: unknown viewer animation %q", deck.ErrInvalid, *v)
		}
		u.set("viewer_animation", string(*v), audit.ActionSettingsUpdated, "viewerAnimation",
			string(have.ViewerAnimation), string(*v))
	}
	return nil
}

func (u *update) exec(ctx context.Context, tx *sql.Tx) error {
	sets, args := u.sets, u.args
	if len(sets) > 0 {
		sets = append(sets, "updated_at = datetime('now')")
	}
	if u.tag.Session != "" && u.slideMoved {
		sets = append(sets, "last_writer_session = ?", "last_write_seq = ?")
		args = append(args, u.tag.Session, int64(u.tag.Seq))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, u.presentationID)
	query := "UPDATE presentations SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating presentation: %w", err)
	}
	for i := range u.entries {
		stamp(&u.entries[i])
		if err := audit.LogTo(ctx, tx, u.entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// stamp gives e the id and time it is stored under.
func stamp(e *audit.Entry) {
	e.ID = uuid.New().String()
	e.Timestamp = time.Now().UTC()
}

// Delete removes a presentation and its slides. Only the creator may delete.
func (s *Store) Delete(ctx context.Context, id, userID string) error {
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		var creator string
		err := tx.QueryRowContext(ctx, `SELECT created_by_id FROM presentations WHERE id = ?`, id).Scan(&creator)
		if errors.Is(err, sql.ErrNoRows) {
			return deck.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading presentation: %w", err)
		}
		if userID == "" {
			return deck.ErrUnauthorized
		}
		if userID != creator {
			return fmt.Errorf("only the creator can delete a presentation: %w", deck.ErrForbidden)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM presentations WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting presentation: %w", err)
		}
		return nil
	})
}

func load(ctx context.Context, q querier, id string) (*deck.Presentation, error) {
	var (
		p              deck.Presentation
		showRing       bool
		size, bg, anim string
		countdown      int
		session        string
		seq            int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, title, description, current_slide_id, presenter_user_id, is_public, is_presenting,
			show_slide_ring, viewer_size, background_type, viewer_countdown, viewer_animation,
			created_by_id, last_writer_session, last_write_seq
		FROM presentations WHERE id = ?`, id).Scan(
		&p.ID, &p.Title, &p.Description, &p.CurrentSlideID, &p.PresenterUserID, &p.IsPublic, &p.IsPresenting,
		&showRing, &size, &bg, &countdown, &anim,
		&p.CreatedByID, &session, &seq,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, deck.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading presentation: %w", err)
	}

	p.ShowSlideRing = deck.Ptr(showRing)
	p.ViewerSize = deck.Ptr(deck.ViewerSize(size))
	p.BackgroundType = deck.Ptr(deck.BackgroundStyle(bg))
	p.ViewerCountdown = deck.Ptr(countdown)
	p.ViewerAnimation = deck.Ptr(deck.ViewerAnimation(anim))
	p.CreatedBy = &deck.UserRef{ID: p.CreatedByID}
	if session != "" {
		p.Writer = &deck.WriteTag{Session: session, Seq: uint64(seq)}
	}

	slides, err := loadSlides(ctx, q, id)
	if err != nil {
		return nil, err
	}
	p.Slides = slides
	return &p, nil
}

func loadSlides(ctx context.Context, q querier, presentationID string) ([]deck.Slide, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, title, content, x, y, width, height, sort_order,
			background_color, text_color, notes, transition_type
		FROM slides WHERE presentation_id = ?
		ORDER BY sort_order, position`, presentationID)
	if err != nil {
		return nil, fmt.Errorf("loading slides: %w", err)
	}
	defer rows.Close()

	slides := []deck.Slide{}
	for rows.Next() {
		var (
			sl         deck.Slide
			transition string
		)
		if err := rows.Scan(&sl.ID, &sl.Title, &sl.Content, &sl.X, &sl.Y, &sl.Width, &sl.Height, &sl.Order,
			&sl.BackgroundColor, &sl.TextColor, &sl.Notes, &transition); err != nil {
			return nil, fmt.Errorf("scanning slide: %w", err)
		}
		sl.TransitionType = deck.TransitionType(transition)
		slides = append(slides, sl)
	}
	return slides, rows.Err()
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.DateTime, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
