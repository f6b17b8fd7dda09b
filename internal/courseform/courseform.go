// Package courseform is the nested module/video editor behind the job post
// and course authoring forms. Modules and videos are addressed by position.
package courseform

import (
	"fmt"
	"strings"
	"sync"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

// VideoDraft is a video row of the form. Only the file's name and type are kept.
type VideoDraft struct {
	Title    string `json:"title"`
	Duration string `json:"duration"`
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
}

type ModuleDraft struct {
	Title  string       `json:"title"`
	Videos []VideoDraft `json:"videos"`
}

// Field names an editable video column.
type Field string

const (
	FieldTitle    Field = "title"
	FieldDuration Field = "duration"
	FieldFile     Field = "file"
)

// Edit transforms a private copy of the modules. It may mutate and return
// its argument.
type Edit func(modules []ModuleDraft) ([]ModuleDraft, error)

// Editor holds one draft. Every change is applied to a deep copy which then
// replaces the current modules, so readers never observe a half-applied edit.
type Editor struct {
	mu      sync.Mutex
	modules []ModuleDraft
}

func New() *Editor {
	return &Editor{modules: []ModuleDraft{}}
}

// FromModules seeds an editor with already published modules.
func FromModules(src []domain.Module) *Editor {
	e := New()
	for _, m := range src {
		md := ModuleDraft{Title: m.Title, Videos: make([]VideoDraft, 0, len(m.Videos))}
		for _, v := range m.Videos {
			md.Videos = append(md.Videos, VideoDraft{Title: v.Title, Duration: v.Duration, FileName: v.FileName})
		}
		e.modules = append(e.modules, md)
	}
	return e
}

// Modules returns a copy of the current draft.
func (e *Editor) Modules() []ModuleDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.modules)
}

// Apply runs edits in order against one snapshot and swaps the result in
// only when all of them succeed.
func (e *Editor) Apply(edits ...Edit) ([]ModuleDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := clone(e.modules)
	for i, edit := range edits {
		var err error
		if next, err = edit(next); err != nil {
			return clone(e.modules), fmt.Errorf("edit %d: %w", i, err)
		}
	}
	e.modules = next
	return clone(next), nil
}

func (e *Editor) AppendModule() ([]ModuleDraft, error) {
	return e.Apply(AppendModule())
}

func (e *Editor) AppendVideo(module int) ([]ModuleDraft, error) {
	return e.Apply(AppendVideo(module))
}

func (e *Editor) UpdateModuleTitle(module int, title string) ([]ModuleDraft, error) {
	return e.Apply(UpdateModuleTitle(module, title))
}

func (e *Editor) UpdateVideo(module, video int, field Field, value string) ([]ModuleDraft, error) {
	return e.Apply(UpdateVideo(module, video, field, value))
}

func (e *Editor) RemoveModule(module int) ([]ModuleDraft, error) {
	return e.Apply(RemoveModule(module))
}

func (e *Editor) RemoveVideo(module, video int) ([]ModuleDraft, error) {
	return e.Apply(RemoveVideo(module, video))
}

// Reset empties the draft.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modules = []ModuleDraft{}
}

// TotalMinutes sums the leading minutes of every video duration.
func (e *Editor) TotalMinutes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, m := range e.modules {
		for _, v := range m.Videos {
			total += domain.LeadingMinutes(v.Duration)
		}
	}
	return total
}

// Build converts the draft into publishable modules, assigning fresh ids.
func (e *Editor) Build(newID func() string) []domain.Module {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Build(e.modules, newID)
}

// Take builds the draft and empties it under one lock. The taken drafts go
// back through Restore when publishing fails.
func (e *Editor) Take(newID func() string) ([]domain.Module, []ModuleDraft) {
	e.mu.Lock()
	defer e.mu.Unlock()
	taken := e.modules
	e.modules = []ModuleDraft{}
	return Build(taken, newID), taken
}

// Restore reinstates drafts returned by Take unless the editor is no longer
// empty.
func (e *Editor) Restore(taken []ModuleDraft) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.modules) == 0 {
		e.modules = taken
	}
}

// Build converts drafts into modules. Module titles and video titles are trimmed.
func Build(drafts []ModuleDraft, newID func() string) []domain.Module {
	out := make([]domain.Module, 0, len(drafts))
	for _, md := range drafts {
		m := domain.Module{ID: newID(), Title: strings.TrimSpace(md.Title), Videos: make([]domain.Video, 0, len(md.Videos))}
		for _, vd := range md.Videos {
			m.Videos = append(m.Videos, domain.Video{
				ID:       newID(),
				Title:    strings.TrimSpace(vd.Title),
				Duration: strings.TrimSpace(vd.Duration),
				FileName: vd.FileName,
			})
		}
		out = append(out, m)
	}
	return out
}

// ============================================================
// Edits
// ============================================================

func AppendModule() Edit {
	return func(ms []ModuleDraft) ([]ModuleDraft, error) {
		return append(ms, ModuleDraft{Videos: []VideoDraft{}}), nil
	}
}

func AppendVideo(module int) Edit {
	return func(ms []ModuleDraft) ([]ModuleDraft, error) {
		if err := checkModule(ms, module); err != nil {
			return nil, err
		}
		ms[module].Videos = append(ms[module].Videos, VideoDraft{})
		return ms, nil
	}
}

func UpdateModuleTitle(module int, title string) Edit {
	return func(ms []ModuleDraft) ([]ModuleDraft, error) {
		if err := checkModule(ms, module); err != nil {
			return nil, err
		}
		ms[module].Title = title
		return ms, nil
	}
}

// UpdateVideo sets one column of a video. For FieldFile the value is the file
// name, optionally followed by ";" and its media type.
func UpdateVideo(module, video int, field Field, value string) Edit {
	return func(ms []ModuleDraft) ([]ModuleDraft, error) {
		if err := checkVideo(ms, module, video); err != nil {
			return nil, err
		}
		v := &ms[module].Videos[video]
		switch field {
		case FieldTitle:
			v.Title = value
		case FieldDuration:
			v.Duration = value
		case FieldFile:
			name, typ, _ := strings.Cut(value, ";")
			v.FileName, v.FileType = strings.TrimSpace(name), strings.TrimSpace(typ)
		default:
			return nil, &domain.ErrValidation{Field: "field", Message: fmt.Sprintf("unknown video field %q", field)}
		}
		return ms, nil
	}
}

func RemoveModule(module int) Edit {
	return func(ms []ModuleDraft) ([]ModuleDraft, error) {
		if err := checkModule(ms, module); err != nil {
			return nil, err
		}
		return append(ms[:module], ms[module+1:]...), nil
	}
}

func RemoveVideo(module, video int) Edit {
	return func(ms []ModuleDraft) ([]ModuleDraft, error) {
		if err := checkVideo(ms, module, video); err != nil {
			return nil, err
		}
		vs := ms[module].Videos
		ms[module].Videos = append(vs[:video], vs[video+1:]...)
		return ms, nil
	}
}

func checkModule(ms []ModuleDraft, module int) error {
	if module < 0 || module >= len(ms) {
		return &domain.ErrValidation{Field: "module", Message: fmt.Sprintf("module index %d out of range", module)}
	}
	return nil
}

func checkVideo(ms []ModuleDraft, module, video int) error {
	if err := checkModule(ms, module); err != nil {
		return err
	}
	if video < 0 || video >= len(ms[module].Videos) {
		return &domain.ErrValidation{Field: "video", Message: fmt.Sprintf("video index %d out of range", video)}
	}
	return nil
}

func clone(src []ModuleDraft) []ModuleDraft {
	out := make([]ModuleDraft, len(src))
	for i, m := range src {
		out[i] = ModuleDraft{Title: m.Title, Videos: append([]VideoDraft{}, m.Videos...)}
	}
	return out
}
