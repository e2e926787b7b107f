// Package render projects a resume onto one of the visual templates.
// Renderers only read the resume they are given.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"resume-builder/internal/domain"
	"resume-builder/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

type Template string

const (
	Modern     Template = "modern"
	Classic    Template = "classic"
	Minimalist Template = "minimalist"
)

// Templates lists every template in display order.
var Templates = []Template{Modern, Classic, Minimalist}

// Default is the template selected for a new workspace.
const Default = Modern

func ParseTemplate(s string) (Template, error) {
	t := Template(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Templates {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownTemplate, s)
}

type Renderer struct {
	tpls map[Template]*template.Template
}

func New() (*Renderer, error) {
	r := &Renderer{tpls: make(map[Template]*template.Template, len(Templates))}
	for _, t := range Templates {
		tpl, err := template.ParseFS(templateFS, "templates/"+string(t)+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", t, err)
		}
		r.tpls[t] = tpl
	}
	return r, nil
}

// Render executes template t over a read-only view of res.
func (r *Renderer) Render(t Template, res model.Resume) (string, error) {
	tpl, ok := r.tpls[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownTemplate, t)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, newView(res)); err != nil {
		return "", fmt.Errorf("render %s: %w", t, err)
	}
	return buf.String(), nil
}

type entryView struct {
	Title       string
	Subtitle    string
	Location    string
	Start       string
	End         string
	Description string
}

type languageView struct {
	Name  string
	Level string
}

type view struct {
	Info           model.PersonalInfo
	Photo          template.URL
	Location       string
	Summary        string
	Experience     []entryView
	Education      []entryView
	Skills         []string
	Languages      []languageView
	Certifications []string
}

func (v view) SkillList() string { return strings.Join(v.Skills, ", ") }

func (v view) LanguageList() string {
	parts := make([]string, 0, len(v.Languages))
	for _, l := range v.Languages {
		parts = append(parts, fmt.Sprintf("%s (%s)", l.Name, l.Level))
	}
	return strings.Join(parts, ", ")
}

func (v view) CertificationList() string { return strings.Join(v.Certifications, ", ") }

func newView(res model.Resume) view {
	info := res.PersonalInfo
	v := view{
		Info:           info,
		Location:       joinNonEmpty(", ", info.City, info.State),
		Summary:        strings.TrimSpace(res.Summary),
		Certifications: res.Certifications,
	}
	// only data URLs produced by the photo upload are trusted as image sources
	if strings.HasPrefix(info.Photo, "data:image/") {
		v.Photo = template.URL(info.Photo)
	}
	for _, e := range res.Experience {
		v.Experience = append(v.Experience, entryView{
			Title:       e.Role,
			Subtitle:    e.Company,
			Location:    e.Location,
			Start:       e.StartDate,
			End:         e.End.Label(model.OngoingJob),
			Description: e.Description,
		})
	}
	for _, e := range res.Education {
		v.Education = append(v.Education, entryView{
			Title:    e.Degree,
			Subtitle: e.School,
			Start:    e.StartDate,
			End:      e.End.Label(model.OngoingCourse),
		})
	}
	for _, s := range res.Skills {
		v.Skills = append(v.Skills, s.Name)
	}
	for _, l := range res.Languages {
		v.Languages = append(v.Languages, languageView{Name: l.Name, Level: string(l.Level)})
	}
	return v
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
