package formsubmission

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tmi-forms-api/config"
	"tmi-forms-api/internal/document"
	"tmi-forms-api/internal/form"
	"tmi-forms-api/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService SubmissionServiceAPI
}

type submissionResponse struct {
	ID          string       `json:"id"`
	FormID      string       `json:"formId"`
	Data        form.Payload `json:"data"`
	SubmittedAt string       `json:"submittedAt"`
}

func toResponse(sub form.FormSubmission) submissionResponse {
	return submissionResponse{
		ID:          sub.ID,
		FormID:      sub.FormID,
		Data:        sub.Data,
		SubmittedAt: sub.SubmittedAt.Format(time.RFC3339Nano),
	}
}

// POST /api/forms/templates/:id/submissions with a field id to value object.
func (sc *SubmissionController) Submit(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload, err := form.DecodePayload(raw)
	if err != nil {
		writeError(c, err)
		return
	}

	sub, err := sc.SubmissionService.Submit(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(sub))
}

// GET /api/forms/templates/:id/submissions
func (sc *SubmissionController) ListByTemplate(c *gin.Context) {
	subs, err := sc.SubmissionService.ListByTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]submissionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toResponse(sub))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GET /api/forms/templates/:id/submissions/export?format=xlsx|json
func (sc *SubmissionController) Export(c *gin.Context) {
	var q ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, util.BindingErrorBody(err))
		return
	}

	if q.Format == "json" {
		rows, err := sc.SubmissionService.ExportRows(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
		return
	}

	data, filename, err := sc.SubmissionService.ExportXLSX(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (sc *SubmissionController) GetSubmission(c *gin.Context) {
	sub, err := sc.SubmissionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(sub))
}

func (sc *SubmissionController) DeleteSubmission(c *gin.Context) {
	if err := sc.SubmissionService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "submission deleted"})
}

// POST /api/forms/uploads
func (sc *SubmissionController) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.BindingErrorBody(err))
		return
	}

	res, err := sc.SubmissionService.UploadFile(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/forms/uploads?url=gs://bucket/forms/...
func (sc *SubmissionController) GetUpload(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	dl, err := sc.SubmissionService.OpenUpload(c.Request.Context(), url)
	if err != nil {
		writeError(c, err)
		return
	}

	disposition := "inline"
	if !strings.HasPrefix(dl.ContentType, "image/") && dl.ContentType != "application/pdf" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, dl.FileName))
	c.Data(http.StatusOK, dl.ContentType, dl.Data)
}

// GET /api/forms/templates/:id/uploads?field_id=
func (sc *SubmissionController) ListUploads(c *gin.Context) {
	var q UploadListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, util.BindingErrorBody(err))
		return
	}

	uploads, err := sc.SubmissionService.ListUploads(c.Request.Context(), c.Param("id"), strings.TrimSpace(q.FieldID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": uploads})
}

func writeError(c *gin.Context, err error) {
	var rejected *RejectedError
	var pe *form.ParseError

	switch {
	case errors.As(err, &rejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "submission rejected", "violations": rejected.Violations})
	case errors.Is(err, document.ErrNotFound), errors.Is(err, ErrUploadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrTemplateInactive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUploadsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, ErrForeignBucket):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &pe), errors.Is(err, ErrUnknownField), errors.Is(err, ErrNotFileField), errors.Is(err, ErrInvalidUpload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		config.Log.WithError(err).Error("form submission request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
