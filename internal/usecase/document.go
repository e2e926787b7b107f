package usecase

import (
	"sync"

	"resume-builder/internal/model"

	"github.com/google/uuid"
)

// IDGenerator returns identifiers for new collection entries.
type IDGenerator func() string

func NewUUID() string { return uuid.NewString() }

// Observer is called with the new resume after every mutation. Calls are
// serialized and never go back in time: a snapshot older than one already
// delivered is dropped. An observer must not mutate the document.
type Observer func(model.Resume)

// Document owns a resume and is the only sanctioned way to change it.
// Every operation replaces the affected field or collection; snapshots
// handed out are never modified afterwards.
type Document struct {
	mu        sync.Mutex
	res       model.Resume
	newID     IDGenerator
	observers map[int]Observer
	nextObs   int
	version   uint64

	notifyMu sync.Mutex
	notified uint64
}

func NewDocument(newID IDGenerator) *Document {
	if newID == nil {
		newID = NewUUID
	}
	return &Document{res: model.Empty(), newID: newID, observers: map[int]Observer{}}
}

// Snapshot returns a copy of the current resume.
func (d *Document) Snapshot() model.Resume {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.res.Clone()
}

// Subscribe registers fn and returns a func that removes it.
func (d *Document) Subscribe(fn Observer) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.observers, id)
	}
}

// mutate applies fn under the lock and notifies observers outside it.
func (d *Document) mutate(fn func(r *model.Resume) bool) bool {
	d.mu.Lock()
	if !fn(&d.res) {
		d.mu.Unlock()
		return false
	}
	d.version++
	ver, snap := d.version, d.res.Clone()
	obs := make([]Observer, 0, len(d.observers))
	for _, o := range d.observers {
		obs = append(obs, o)
	}
	d.mu.Unlock()

	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	if ver <= d.notified {
		return true
	}
	d.notified = ver
	for _, o := range obs {
		o(snap)
	}
	return true
}

// Replace installs a whole resume, e.g. after a load.
func (d *Document) Replace(r model.Resume) {
	next := r.Clone()
	d.mutate(func(cur *model.Resume) bool {
		*cur = next
		return true
	})
}

func (d *Document) UpdatePersonalInfo(patch model.PersonalInfoPatch) model.PersonalInfo {
	var out model.PersonalInfo
	d.mutate(func(r *model.Resume) bool {
		r.PersonalInfo = patch.Apply(r.PersonalInfo)
		out = r.PersonalInfo
		return true
	})
	return out
}

func (d *Document) UpdateSummary(text string) {
	d.mutate(func(r *model.Resume) bool {
		r.Summary = text
		return true
	})
}

func (d *Document) AddExperience(e model.Experience) model.Experience {
	d.mutate(func(r *model.Resume) bool {
		e.ID = d.newID()
		r.Experience = append(append(make([]model.Experience, 0, len(r.Experience)+1), r.Experience...), e)
		return true
	})
	return e
}

func (d *Document) RemoveExperience(id string) bool {
	return d.mutate(func(r *model.Resume) bool {
		next, ok := without(r.Experience, func(e model.Experience) bool { return e.ID == id })
		r.Experience = next
		return ok
	})
}

func (d *Document) AddEducation(e model.Education) model.Education {
	d.mutate(func(r *model.Resume) bool {
		e.ID = d.newID()
		r.Education = append(append(make([]model.Education, 0, len(r.Education)+1), r.Education...), e)
		return true
	})
	return e
}

func (d *Document) RemoveEducation(id string) bool {
	return d.mutate(func(r *model.Resume) bool {
		next, ok := without(r.Education, func(e model.Education) bool { return e.ID == id })
		r.Education = next
		return ok
	})
}

func (d *Document) AddSkill(s model.Skill) model.Skill {
	d.mutate(func(r *model.Resume) bool {
		s.ID = d.newID()
		r.Skills = append(append(make([]model.Skill, 0, len(r.Skills)+1), r.Skills...), s)
		return true
	})
	return s
}

func (d *Document) RemoveSkill(id string) bool {
	return d.mutate(func(r *model.Resume) bool {
		next, ok := without(r.Skills, func(s model.Skill) bool { return s.ID == id })
		r.Skills = next
		return ok
	})
}

func (d *Document) AddLanguage(l model.Language) model.Language {
	d.mutate(func(r *model.Resume) bool {
		l.ID = d.newID()
		r.Languages = append(append(make([]model.Language, 0, len(r.Languages)+1), r.Languages...), l)
		return true
	})
	return l
}

func (d *Document) RemoveLanguage(id string) bool {
	return d.mutate(func(r *model.Resume) bool {
		next, ok := without(r.Languages, func(l model.Language) bool { return l.ID == id })
		r.Languages = next
		return ok
	})
}

func (d *Document) AddCertification(text string) {
	d.mutate(func(r *model.Resume) bool {
		r.Certifications = append(append(make([]string, 0, len(r.Certifications)+1), r.Certifications...), text)
		return true
	})
}

// RemoveCertification removes the first certification equal to text.
// Identical certifications are indistinguishable, so only one goes per call.
func (d *Document) RemoveCertification(text string) bool {
	return d.mutate(func(r *model.Resume) bool {
		next, ok := without(r.Certifications, func(c string) bool { return c == text })
		r.Certifications = next
		return ok
	})
}

// without returns a new slice lacking the first element matching pred.
func without[T any](in []T, pred func(T) bool) ([]T, bool) {
	for i, v := range in {
		if pred(v) {
			out := make([]T, 0, len(in)-1)
			out = append(out, in[:i]...)
			return append(out, in[i+1:]...), true
		}
	}
	return in, false
}
