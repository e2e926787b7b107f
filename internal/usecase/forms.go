package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"resume-builder/internal/domain"
	"resume-builder/internal/model"

	"github.com/go-playground/validator/v10"
)

type Section string

const (
	SectionExperience     Section = "experience"
	SectionEducation      Section = "education"
	SectionSkills         Section = "skills"
	SectionLanguages      Section = "languages"
	SectionCertifications Section = "certifications"
)

func ParseSection(s string) (Section, error) {
	switch sec := Section(strings.ToLower(strings.TrimSpace(s))); sec {
	case SectionExperience, SectionEducation, SectionSkills, SectionLanguages, SectionCertifications:
		return sec, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownSection, s)
}

type ExperienceDraft struct {
	Role        string `json:"role" validate:"min=2"`
	Company     string `json:"company" validate:"min=2"`
	Location    string `json:"location" validate:"min=2"`
	StartDate   string `json:"startDate" validate:"min=2"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type EducationDraft struct {
	Degree    string `json:"degree" validate:"min=2"`
	School    string `json:"school" validate:"min=2"`
	StartDate string `json:"startDate" validate:"min=2"`
	EndDate   string `json:"endDate"`
	Current   bool   `json:"current"`
}

type SkillDraft struct {
	Name  string `json:"name" validate:"notblank"`
	Level *int   `json:"level,omitempty" validate:"omitempty,min=1,max=5"`
}

type LanguageDraft struct {
	Name  string `json:"name" validate:"notblank"`
	Level string `json:"level" validate:"omitempty,langlevel"`
}

type CertificationDraft struct {
	Name string `json:"name" validate:"notblank"`
}

// personalInfoForm mirrors model.PersonalInfo for display-only validation.
// LinkedIn and the photo are free-form.
type personalInfoForm struct {
	FullName string `json:"fullName" validate:"min=2"`
	Title    string `json:"title" validate:"min=2"`
	Email    string `json:"email" validate:"email"`
	Phone    string `json:"phone" validate:"min=8"`
	City     string `json:"city" validate:"min=2"`
	State    string `json:"state" validate:"min=2"`
}

// messages holds one message per field, as shown under each input.
var messages = map[string]string{
	"role":      "Cargo é obrigatório",
	"company":   "Empresa é obrigatória",
	"location":  "Localização é obrigatória",
	"startDate": "Data de início obrigatória",
	"degree":    "Curso/Grau é obrigatório",
	"school":    "Instituição é obrigatória",
	"fullName":  "Nome é obrigatório",
	"title":     "Título profissional é obrigatório",
	"email":     "Email inválido",
	"phone":     "Telefone inválido",
	"city":      "Cidade é obrigatória",
	"state":     "Estado é obrigatório",
	"name":      "Campo obrigatório",
	"level":     "Nível inválido",
	"number":    "Número do cartão inválido",
	"expiry":    "Validade inválida",
	"cvv":       "CVV inválido",
	"holder":    "Nome no cartão é obrigatório",
}

var expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("langlevel", func(fl validator.FieldLevel) bool {
			_, ok := model.ParseLanguageLevel(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("expiry", func(fl validator.FieldLevel) bool {
			return expiryPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// checkStruct runs tag validation and turns failures into a ValidationError.
func checkStruct(s interface{}) error {
	err := formValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		if msg, ok := messages[name]; ok {
			fields[name] = msg
		} else {
			fields[name] = fmt.Sprintf("falhou na regra %s", fe.Tag())
		}
	}
	return &domain.ValidationError{Fields: fields}
}

// Forms keeps one uncommitted draft per section and commits it through the
// Document on a successful submit.
type Forms struct {
	mu     sync.Mutex
	doc    *Document
	drafts map[Section]json.RawMessage
}

func NewForms(doc *Document) *Forms {
	return &Forms{doc: doc, drafts: map[Section]json.RawMessage{}}
}

// SetDraft stores raw draft input for a section without validating it.
func (f *Forms) SetDraft(sec Section, raw json.RawMessage) error {
	if _, err := decodeDraft(sec, raw); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[sec] = append(json.RawMessage{}, raw...)
	return nil
}

func (f *Forms) Draft(sec Section) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drafts[sec]
}

// Submit validates the stored draft and commits it. On failure the draft is
// kept and nothing is mutated.
func (f *Forms) Submit(sec Section) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.drafts[sec]
	if !ok {
		raw = json.RawMessage("{}")
	}
	draft, err := decodeDraft(sec, raw)
	if err != nil {
		return nil, err
	}
	if err := checkStruct(draft); err != nil {
		return nil, err
	}
	entry := f.commit(draft)
	delete(f.drafts, sec)
	return entry, nil
}

func (f *Forms) commit(draft interface{}) interface{} {
	switch d := draft.(type) {
	case *ExperienceDraft:
		end := model.Fixed(d.EndDate)
		if d.Current {
			end = model.Ongoing()
		}
		return f.doc.AddExperience(model.Experience{
			Role:        d.Role,
			Company:     d.Company,
			Location:    d.Location,
			StartDate:   d.StartDate,
			End:         end,
			Description: d.Description,
		})
	case *EducationDraft:
		end := model.Fixed(d.EndDate)
		if d.Current {
			end = model.Ongoing()
		}
		return f.doc.AddEducation(model.Education{
			Degree:    d.Degree,
			School:    d.School,
			StartDate: d.StartDate,
			End:       end,
		})
	case *SkillDraft:
		return f.doc.AddSkill(model.Skill{Name: strings.TrimSpace(d.Name), Level: d.Level})
	case *LanguageDraft:
		level := model.LevelIntermediate
		if d.Level != "" {
			level, _ = model.ParseLanguageLevel(d.Level)
		}
		return f.doc.AddLanguage(model.Language{Name: strings.TrimSpace(d.Name), Level: level})
	case *CertificationDraft:
		name := strings.TrimSpace(d.Name)
		f.doc.AddCertification(name)
		return name
	}
	return nil
}

// Remove deletes an entry; certifications are addressed by value.
func (f *Forms) Remove(sec Section, key string) bool {
	switch sec {
	case SectionExperience:
		return f.doc.RemoveExperience(key)
	case SectionEducation:
		return f.doc.RemoveEducation(key)
	case SectionSkills:
		return f.doc.RemoveSkill(key)
	case SectionLanguages:
		return f.doc.RemoveLanguage(key)
	case SectionCertifications:
		return f.doc.RemoveCertification(key)
	}
	return false
}

// UpdatePersonalInfo applies the patch immediately and returns the messages
// the merged info would show. The messages never block the update.
func (f *Forms) UpdatePersonalInfo(patch model.PersonalInfoPatch) (model.PersonalInfo, map[string]string) {
	info := f.doc.UpdatePersonalInfo(patch)
	return info, PersonalInfoErrors(info)
}

func PersonalInfoErrors(info model.PersonalInfo) map[string]string {
	err := checkStruct(personalInfoForm{
		FullName: info.FullName,
		Title:    info.Title,
		Email:    info.Email,
		Phone:    info.Phone,
		City:     info.City,
		State:    info.State,
	})
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return map[string]string{}
}

func decodeDraft(sec Section, raw json.RawMessage) (interface{}, error) {
	var draft interface{}
	switch sec {
	case SectionExperience:
		draft = &ExperienceDraft{}
	case SectionEducation:
		draft = &EducationDraft{}
	case SectionSkills:
		draft = &SkillDraft{}
	case SectionLanguages:
		draft = &LanguageDraft{}
	case SectionCertifications:
		draft = &CertificationDraft{}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSection, sec)
	}
	if len(raw) == 0 {
		return draft, nil
	}
	if err := json.Unmarshal(raw, draft); err != nil {
		return nil, &domain.ValidationError{Fields: map[string]string{"_": "formato inválido: " + err.Error()}}
	}
	return draft, nil
}
