package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/artem13815/interview/pkg/interview"
)

const sessionFileName = "session.json"

// SessionRepository keeps one directory per session under baseDir, with the
// serialized session in session.json next to uploaded media.
type SessionRepository struct {
	baseDir string
}

func NewSessionRepository(baseDir string) (*SessionRepository, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &SessionRepository{baseDir: baseDir}, nil
}

// BaseDir exposes the storage root for health checks.
func (r *SessionRepository) BaseDir() string { return r.baseDir }

func (r *SessionRepository) sessionDir(sessionID string) string {
	// session IDs are UUIDs generated by this service; Base strips any
	// path separators a hand-crafted ID could smuggle in
	return filepath.Join(r.baseDir, filepath.Base(sessionID))
}

func (r *SessionRepository) Save(ctx context.Context, s interview.Session) error {
	dir := r.sessionDir(s.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, sessionFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, sessionFileName))
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (interview.Session, error) {
	data, err := os.ReadFile(filepath.Join(r.sessionDir(sessionID), sessionFileName))
	if err != nil {
		return interview.Session{}, fmt.Errorf("%w: %s", interview.ErrSessionNotFound, sessionID)
	}
	var s interview.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return interview.Session{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return s, nil
}

// List enumerates persisted session IDs. With maxAgeHours > 0 only sessions
// whose record was modified within the window are returned.
func (r *SessionRepository) List(ctx context.Context, maxAgeHours int) ([]string, error) {
	entries, err := os.ReadDir(r.baseDir)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-time.Duration(maxAgeHours) * time.Hour)
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if maxAgeHours > 0 {
			info, err := os.Stat(filepath.Join(r.baseDir, e.Name(), sessionFileName))
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				continue
			}
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// Delete removes the session record and every stored artifact with it.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return os.RemoveAll(r.sessionDir(sessionID))
}

// SaveResponseAudio stores raw response audio under the session directory.
func (r *SessionRepository) SaveResponseAudio(sessionID string, index int, data []byte) (string, error) {
	dir := r.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("response_%d.wav", index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// SaveCV stores the uploaded CV next to the session record.
func (r *SessionRepository) SaveCV(sessionID, filename string, data []byte) (string, error) {
	dir := r.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "cv_"+filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
