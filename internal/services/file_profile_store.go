package services

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/models"
	"github.com/petjoyful/profile-service/internal/storage"
)

const profilesFile = "profiles.json"

// FileProfileStore keeps profiles in memory and persists them to a JSON file
// after every write. All writes are serialized by a single mutex.
type FileProfileStore struct {
	mu       sync.RWMutex
	file     *storage.JSONFile[map[string]*models.Profile]
	profiles map[string]*models.Profile
	now      func() time.Time
}

func NewFileProfileStore(dataDir string) (*FileProfileStore, error) {
	file, err := storage.NewJSONFile[map[string]*models.Profile](dataDir, profilesFile)
	if err != nil {
		return nil, err
	}
	profiles, err := file.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load profiles")
	}
	if profiles == nil {
		profiles = make(map[string]*models.Profile)
	}
	return &FileProfileStore{
		file:     file,
		profiles: profiles,
		now:      time.Now,
	}, nil
}

func (s *FileProfileStore) FindByOwner(_ context.Context, owner models.OwnerID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prof, ok := s.profiles[owner.String()]
	if !ok {
		return nil, apperror.NotFound("profile")
	}
	return cloneProfile(prof), nil
}

func (s *FileProfileStore) Exists(_ context.Context, owner models.OwnerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.profiles[owner.String()]
	return ok, nil
}

func (s *FileProfileStore) Upsert(ctx context.Context, owner models.OwnerID, fields models.FieldSet) (*models.Profile, error) {
	if owner.IsZero() {
		return nil, errors.WithStack(models.ErrEmptyOwnerID)
	}
	for key := range fields {
		if protectedFields[key] {
			return nil, errors.Newf("field %q is not writable", key)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	key := owner.String()

	prev, existed := s.profiles[key]
	var next *models.Profile
	if existed {
		next = cloneProfile(prev)
	} else {
		next = models.NewProfile(owner, now)
	}
	if err := next.Apply(fields); err != nil {
		return nil, err
	}
	next.UpdatedAt = now

	s.profiles[key] = next
	if err := s.file.Save(s.profiles); err != nil {
		if existed {
			s.profiles[key] = prev
		} else {
			delete(s.profiles, key)
		}
		return nil, errors.Wrap(err, "persist profiles")
	}
	return cloneProfile(next), nil
}

func cloneProfile(p *models.Profile) *models.Profile {
	cp := *p
	if p.BirthDate != nil {
		b := *p.BirthDate
		cp.BirthDate = &b
	}
	return &cp
}
