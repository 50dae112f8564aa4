package formdraft

import (
	"encoding/json"
	"errors"
	"net/http"

	"tmi-forms-api/config"
	"tmi-forms-api/internal/form"
	"tmi-forms-api/internal/util"

	"github.com/gin-gonic/gin"
)

type DraftController struct {
	DraftService DraftServiceAPI
}

// POST /api/forms/drafts
func (dc *DraftController) CreateDraft(c *gin.Context) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.BindingErrorBody(err))
		return
	}

	draft, err := dc.DraftService.Draft(c.Request.Context(), req.Prompt)
	if err != nil {
		writeError(c, err)
		return
	}

	raw, err := form.Serialize(draft.Template)
	if err != nil {
		writeError(c, err)
		return
	}
	violations := draft.Violations
	if violations == nil {
		violations = []form.StructuralViolation{}
	}
	c.JSON(http.StatusOK, gin.H{"template": json.RawMessage(raw), "violations": violations})
}

func writeError(c *gin.Context, err error) {
	var pe *form.ParseError

	switch {
	case errors.Is(err, ErrDraftsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &pe):
		c.JSON(http.StatusBadGateway, gin.H{"error": "model returned an unusable template", "detail": pe.Error()})
	default:
		config.Log.WithError(err).Error("draft request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
