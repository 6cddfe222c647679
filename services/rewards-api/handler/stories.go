package handler

import (
	"errors"
	"net/http"

	"github.com/ramiqadoumi/go-earn-flow/internal/content"
	"github.com/ramiqadoumi/go-earn-flow/internal/validate"
)

// StoryRequest is the POST /api/v1/stories body. Both fields are optional and
// so is the body itself.
type StoryRequest struct {
	Language string `json:"language"`
	Topic    string `json:"topic" validate:"max=200"`
}

// GenerateStory handles POST /api/v1/stories. Generator failures come back as
// fallback text with a 200.
func (h *REST) GenerateStory(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}
	var req StoryRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		h.writeDomainError(w, err)
		return
	}
	lang, err := content.ParseLanguage(req.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.stories.Generate(r.Context(), lang, req.Topic))
}
