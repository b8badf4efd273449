// Package favorites keeps the learner's saved practice questions. The set
// lives in memory and is written through to the store on every change.
package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/examlens/internal/logger"
	"github.com/abhisek/examlens/internal/problem"
	"github.com/abhisek/examlens/internal/store"
)

// Favorite is a saved practice question. Question text is unique across
// favorites.
type Favorite struct {
	ID          string    `json:"id"`
	FavoritedAt time.Time `json:"favorited_at"`
	problem.Practice
}

// Service owns the favorites set.
type Service struct {
	mu    sync.RWMutex
	repo  store.FavoriteRepo
	items []Favorite // newest first
	log   *logger.Logger

	now   func() time.Time
	newID func() string
}

// Load reads every favorite from repo.
func Load(ctx context.Context, repo store.FavoriteRepo, log *logger.Logger) (*Service, error) {
	recs, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	s := &Service{
		repo:  repo,
		log:   log,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, rec := range recs {
		var p problem.Practice
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			log.Warn("skipping unreadable favorite", "id", rec.ID, "error", err)
			continue
		}
		p.Question = rec.Question
		s.items = append(s.items, Favorite{ID: rec.ID, FavoritedAt: rec.FavoritedAt, Practice: p})
	}
	return s, nil
}

// Toggle removes the favorite with p's exact question text, or adds p when
// none exists. It reports whether p is now a favorite.
func (s *Service) Toggle(ctx context.Context, p problem.Practice) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(p.Question); i >= 0 {
		if _, err := s.repo.DeleteByQuestion(ctx, p.Question); err != nil {
			return true, fmt.Errorf("remove favorite: %w", err)
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		return false, nil
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("encode favorite: %w", err)
	}
	fav := Favorite{ID: s.newID(), FavoritedAt: s.now().UTC(), Practice: p}
	err = s.repo.Insert(ctx, store.FavoriteRecord{
		ID:          fav.ID,
		Question:    p.Question,
		Payload:     payload,
		FavoritedAt: fav.FavoritedAt,
	})
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	s.items = append([]Favorite{fav}, s.items...)
	s.log.Debug("favorite added", "id", fav.ID)
	return true, nil
}

// IsFavorite reports whether a favorite has exactly this question text.
func (s *Service) IsFavorite(question string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(question) >= 0
}

// List returns the favorites, newest first.
func (s *Service) List() []Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Favorite, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the favorite with id. A unique id prefix also matches.
func (s *Service) Get(id string) (Favorite, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOfID(id)
	if i < 0 {
		return Favorite{}, false
	}
	return s.items[i], true
}

// Remove deletes the favorite with id (or unique id prefix). It reports
// whether one was removed.
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfID(id)
	if i < 0 {
		return false, nil
	}
	if _, err := s.repo.Delete(ctx, s.items[i].ID); err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true, nil
}

// Export writes the favorites as an indented JSON array.
func (s *Service) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	items := s.List()
	if items == nil {
		items = []Favorite{}
	}
	return enc.Encode(items)
}

func (s *Service) indexOf(question string) int {
	for i, f := range s.items {
		if f.Question == question {
			return i
		}
	}
	return -1
}

func (s *Service) indexOfID(id string) int {
	if id == "" {
		return -1
	}
	match := -1
	for i, f := range s.items {
		if f.ID == id {
			return i
		}
		if len(id) < len(f.ID) && f.ID[:len(id)] == id {
			if match >= 0 {
				return -1
			}
			match = i
		}
	}
	return match
}
