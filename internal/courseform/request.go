package courseform

import (
	"fmt"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

// Operation names accepted in EditRequest.Op.
const (
	OpAppendModule      = "append-module"
	OpAppendVideo       = "append-video"
	OpUpdateModuleTitle = "update-module-title"
	OpUpdateVideo       = "update-video"
	OpRemoveModule      = "remove-module"
	OpRemoveVideo       = "remove-video"
)

// EditRequest is the wire form of one edit.
type EditRequest struct {
	Op     string `json:"op"`
	Module int    `json:"module"`
	Video  int    `json:"video"`
	Field  Field  `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Edit resolves the request into an Edit.
func (r EditRequest) Edit() (Edit, error) {
	switch r.Op {
	case OpAppendModule:
		return AppendModule(), nil
	case OpAppendVideo:
		return AppendVideo(r.Module), nil
	case OpUpdateModuleTitle:
		return UpdateModuleTitle(r.Module, r.Value), nil
	case OpUpdateVideo:
		return UpdateVideo(r.Module, r.Video, r.Field, r.Value), nil
	case OpRemoveModule:
		return RemoveModule(r.Module), nil
	case OpRemoveVideo:
		return RemoveVideo(r.Module, r.Video), nil
	}
	return nil, &domain.ErrValidation{Field: "op", Message: fmt.Sprintf("unknown edit %q", r.Op)}
}

// Edits resolves a batch, failing on the first unknown operation.
func Edits(reqs []EditRequest) ([]Edit, error) {
	edits := make([]Edit, 0, len(reqs))
	for _, r := range reqs {
		e, err := r.Edit()
		if err != nil {
			return nil, err
		}
		edits = append(edits, e)
	}
	return edits, nil
}
