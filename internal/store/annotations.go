package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

// AnnotationStore handles images, assignments and annotator decisions.
type AnnotationStore struct {
	db  *DB
	now func() time.Time
}

func NewAnnotationStore(db *DB) *AnnotationStore {
	return &AnnotationStore{db: db, now: time.Now}
}

const taskColumns = `
	a.id, a.image_id, i.image_path, i.initial_ocr_text, a.corrected_text, a.status, a.updated_at
	FROM annotations a JOIN images i ON i.id = a.image_id`

func scanTask(row interface{ Scan(...any) error }) (model.Task, error) {
	var (
		t         model.Task
		corrected sql.NullString
		status    string
		updated   int64
	)
	if err := row.Scan(&t.AnnotationID, &t.ImageID, &t.ImagePath, &t.InitialOCRText, &corrected, &status, &updated); err != nil {
		return t, err
	}
	if corrected.Valid {
		t.CorrectedText = model.StringPtr(corrected.String)
	}
	t.Status = model.Status(status)
	ts := time.Unix(0, updated).UTC()
	t.UpdatedAt = &ts
	return t, nil
}

func (s *AnnotationStore) queryTasks(op, query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateImage registers an image, returning the existing ID if the path is
// already known.
func (s *AnnotationStore) CreateImage(path, ocrText string) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO images (image_path, initial_ocr_text) VALUES (?, ?)
		ON CONFLICT(image_path) DO NOTHING
	`, path, ocrText)
	if err != nil {
		return 0, fmt.Errorf("create image: %w", err)
	}

	var id int64
	if err := s.db.QueryRow(`SELECT id FROM images WHERE image_path = ?`, path).Scan(&id); err != nil {
		return 0, fmt.Errorf("create image: %w", err)
	}
	return id, nil
}

// Assign creates a pending annotation for every user/image pair that does
// not have one yet. It returns how many were created.
func (s *AnnotationStore) Assign(userIDs, imageIDs []int64) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin assign: %w", err)
	}
	defer tx.Rollback()

	created := 0
	for _, userID := range userIDs {
		for _, imageID := range imageIDs {
			res, err := tx.Exec(`
				INSERT INTO annotations (image_id, user_id, status, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(user_id, image_id) DO NOTHING
			`, imageID, userID, string(model.StatusPending), s.now().UnixNano())
			if err != nil {
				return 0, fmt.Errorf("assign image %d to user %d: %w", imageID, userID, err)
			}
			n, _ := res.RowsAffected()
			created += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit assign: %w", err)
	}
	return created, nil
}

// NextPending returns the user's first pending task, nil when none remain.
func (s *AnnotationStore) NextPending(userID int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+`
		WHERE a.user_id = ? AND a.status = ?
		ORDER BY a.id ASC LIMIT 1
	`, userID, string(model.StatusPending))
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending task: %w", err)
	}
	return &t, nil
}

// History returns the user's decided tasks, most recently updated first.
func (s *AnnotationStore) History(userID int64, limit int) ([]model.Task, error) {
	return s.queryTasks("task history", `SELECT `+taskColumns+`
		WHERE a.user_id = ? AND a.status IN (?, ?, ?)
		ORDER BY a.updated_at DESC, a.id DESC LIMIT ?
	`, userID, string(model.StatusCorrected), string(model.StatusApproved), string(model.StatusDiscarded), limit)
}

// PendingPreview returns the user's pending tasks in queue order.
func (s *AnnotationStore) PendingPreview(userID int64, limit int) ([]model.Task, error) {
	return s.queryTasks("pending preview", `SELECT `+taskColumns+`
		WHERE a.user_id = ? AND a.status = ?
		ORDER BY a.id ASC LIMIT ?
	`, userID, string(model.StatusPending), limit)
}

// Get returns one of the user's tasks, nil when it does not exist or belongs
// to somebody else.
func (s *AnnotationStore) Get(annotationID, userID int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+`
		WHERE a.id = ? AND a.user_id = ?
	`, annotationID, userID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// Update records an annotator decision. Approving without text keeps the OCR
// text as the accepted transcription. It reports false when the annotation
// is not the user's.
func (s *AnnotationStore) Update(annotationID, userID int64, status model.Status, correctedText *string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("update annotation: invalid status %q", status)
	}

	text := correctedText
	if status == model.StatusApproved && (text == nil || strings.TrimSpace(*text) == "") {
		var ocr string
		err := s.db.QueryRow(`
			SELECT i.initial_ocr_text FROM annotations a JOIN images i ON i.id = a.image_id
			WHERE a.id = ? AND a.user_id = ?
		`, annotationID, userID).Scan(&ocr)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("update annotation: %w", err)
		}
		text = &ocr
	}

	var textArg any
	if text != nil {
		textArg = *text
	}

	res, err := s.db.Exec(`
		UPDATE annotations SET status = ?, corrected_text = COALESCE(?, corrected_text), updated_at = ?
		WHERE id = ? AND user_id = ?
	`, string(status), textArg, s.now().UnixNano(), annotationID, userID)
	if err != nil {
		return false, fmt.Errorf("update annotation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update annotation: %w", err)
	}
	return n > 0, nil
}

// Stats counts the user's annotations by status.
func (s *AnnotationStore) Stats(userID int64) (model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'corrected' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'discarded' THEN 1 ELSE 0 END), 0)
		FROM annotations WHERE user_id = ?
	`, userID).Scan(&st.Total, &st.Pending, &st.Corrected, &st.Approved, &st.Discarded)
	if err != nil {
		return st, fmt.Errorf("user stats: %w", err)
	}
	return st, nil
}
