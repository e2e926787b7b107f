package model

import (
	"encoding/json"
	"strings"
)

// Go models that match resume.schema.json used for validation, persistence and rendering.

type PersonalInfo struct {
	FullName string `json:"fullName"`
	Title    string `json:"title"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Photo    string `json:"photo,omitempty"`
}

// PersonalInfoPatch carries a partial update; nil fields are left unchanged.
type PersonalInfoPatch struct {
	FullName *string `json:"fullName,omitempty"`
	Title    *string `json:"title,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	LinkedIn *string `json:"linkedin,omitempty"`
	City     *string `json:"city,omitempty"`
	State    *string `json:"state,omitempty"`
	Photo    *string `json:"photo,omitempty"`
}

// Apply merges the patch into p and returns the result.
func (patch PersonalInfoPatch) Apply(p PersonalInfo) PersonalInfo {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.FullName, patch.FullName)
	set(&p.Title, patch.Title)
	set(&p.Email, patch.Email)
	set(&p.Phone, patch.Phone)
	set(&p.LinkedIn, patch.LinkedIn)
	set(&p.City, patch.City)
	set(&p.State, patch.State)
	set(&p.Photo, patch.Photo)
	return p
}

// Sentinels written in place of an end date for ongoing entries.
const (
	OngoingJob    = "Atual"
	OngoingCourse = "Cursando"
)

// EndDate is either a fixed date or ongoing.
type EndDate struct {
	ongoing bool
	date    string
}

func Fixed(date string) EndDate { return EndDate{date: strings.TrimSpace(date)} }

func Ongoing() EndDate { return EndDate{ongoing: true} }

func (e EndDate) IsOngoing() bool { return e.ongoing }

// Date returns the fixed date, or "" for an ongoing entry.
func (e EndDate) Date() string {
	if e.ongoing {
		return ""
	}
	return e.date
}

// Label renders the end date, using sentinel for ongoing entries.
func (e EndDate) Label(sentinel string) string {
	if e.ongoing {
		return sentinel
	}
	return e.date
}

func decodeEndDate(raw string, current bool, sentinel string) EndDate {
	if current || raw == sentinel {
		return Ongoing()
	}
	return Fixed(raw)
}

type Experience struct {
	ID          string  `json:"id"`
	Role        string  `json:"role"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	StartDate   string  `json:"startDate"`
	End         EndDate `json:"-"`
	Description string  `json:"description"`
}

type experienceWire struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

func (e Experience) MarshalJSON() ([]byte, error) {
	return json.Marshal(experienceWire{
		ID:          e.ID,
		Role:        e.Role,
		Company:     e.Company,
		Location:    e.Location,
		StartDate:   e.StartDate,
		EndDate:     e.End.Label(OngoingJob),
		Current:     e.End.IsOngoing(),
		Description: e.Description,
	})
}

func (e *Experience) UnmarshalJSON(b []byte) error {
	var w experienceWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = Experience{
		ID:          w.ID,
		Role:        w.Role,
		Company:     w.Company,
		Location:    w.Location,
		StartDate:   w.StartDate,
		End:         decodeEndDate(w.EndDate, w.Current, OngoingJob),
		Description: w.Description,
	}
	return nil
}

type Education struct {
	ID        string  `json:"id"`
	Degree    string  `json:"degree"`
	School    string  `json:"school"`
	StartDate string  `json:"startDate"`
	End       EndDate `json:"-"`
}

type educationWire struct {
	ID        string `json:"id"`
	Degree    string `json:"degree"`
	School    string `json:"school"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Current   bool   `json:"current"`
}

func (e Education) MarshalJSON() ([]byte, error) {
	return json.Marshal(educationWire{
		ID:        e.ID,
		Degree:    e.Degree,
		School:    e.School,
		StartDate: e.StartDate,
		EndDate:   e.End.Label(OngoingCourse),
		Current:   e.End.IsOngoing(),
	})
}

func (e *Education) UnmarshalJSON(b []byte) error {
	var w educationWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = Education{
		ID:        w.ID,
		Degree:    w.Degree,
		School:    w.School,
		StartDate: w.StartDate,
		End:       decodeEndDate(w.EndDate, w.Current, OngoingCourse),
	}
	return nil
}

type Skill struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level *int   `json:"level,omitempty"` // 1-5
}

type LanguageLevel string

const (
	LevelBasic        LanguageLevel = "Básico"
	LevelIntermediate LanguageLevel = "Intermediário"
	LevelAdvanced     LanguageLevel = "Avançado"
	LevelFluent       LanguageLevel = "Fluente"
	LevelNative       LanguageLevel = "Nativo"
)

var LanguageLevels = []LanguageLevel{LevelBasic, LevelIntermediate, LevelAdvanced, LevelFluent, LevelNative}

var levelAliases = map[string]LanguageLevel{
	"basic":        LevelBasic,
	"intermediate": LevelIntermediate,
	"advanced":     LevelAdvanced,
	"fluent":       LevelFluent,
	"native":       LevelNative,
}

// ParseLanguageLevel accepts the stored Portuguese names and their English aliases.
func ParseLanguageLevel(s string) (LanguageLevel, bool) {
	s = strings.TrimSpace(s)
	for _, l := range LanguageLevels {
		if strings.EqualFold(s, string(l)) {
			return l, true
		}
	}
	l, ok := levelAliases[strings.ToLower(s)]
	return l, ok
}

type Language struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Level LanguageLevel `json:"level"`
}

type Resume struct {
	PersonalInfo   PersonalInfo `json:"personalInfo"`
	Summary        string       `json:"summary"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Skills         []Skill      `json:"skills"`
	Languages      []Language   `json:"languages"`
	Certifications []string     `json:"certifications"`
}

// Empty returns a resume with non-nil collections so it serializes as [] rather than null.
func Empty() Resume {
	return Resume{
		Experience:     []Experience{},
		Education:      []Education{},
		Skills:         []Skill{},
		Languages:      []Language{},
		Certifications: []string{},
	}
}

// Clone copies every collection so the result shares no backing arrays with r.
func (r Resume) Clone() Resume {
	out := r
	out.Experience = append([]Experience{}, r.Experience...)
	out.Education = append([]Education{}, r.Education...)
	out.Skills = make([]Skill, len(r.Skills))
	for i, s := range r.Skills {
		if s.Level != nil {
			lvl := *s.Level
			s.Level = &lvl
		}
		out.Skills[i] = s
	}
	out.Languages = append([]Language{}, r.Languages...)
	out.Certifications = append([]string{}, r.Certifications...)
	return out
}

// DefaultTitle is the stored title for a resume without a name.
const DefaultTitle = "Meu Currículo"

// Title is the persisted record title, defaulted from the full name.
func (r Resume) Title() string {
	if name := strings.TrimSpace(r.PersonalInfo.FullName); name != "" {
		return name
	}
	return DefaultTitle
}
