package formsubmission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"tmi-forms-api/config"
	"tmi-forms-api/internal/document"
	"tmi-forms-api/internal/form"
	"tmi-forms-api/internal/logs"
	"tmi-forms-api/internal/util"

	"cloud.google.com/go/storage"
	"github.com/lib/pq"
)

type SubmissionService struct {
	Store     document.Store
	Templates TemplateSource
	Log       logs.Logger
	Bucket    string
	Now       func() time.Time
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit validates payload against the template and stores it when it is
// accepted. A rejected payload returns *RejectedError and nothing is stored.
func (s *SubmissionService) Submit(ctx context.Context, templateID string, payload form.Payload) (form.FormSubmission, error) {
	tmpl, err := s.Templates.Get(ctx, templateID)
	if err != nil {
		return form.FormSubmission{}, err
	}
	if !tmpl.IsActive {
		return form.FormSubmission{}, ErrTemplateInactive
	}

	res := form.Validate(tmpl, payload)
	if !res.Accepted {
		s.record(logs.SystemLog{
			Level:      "warn",
			Action:     logs.ActionSubmissionRejected,
			Message:    res.Summary(),
			TemplateID: &tmpl.ID,
			FieldIDs:   pq.StringArray(res.FieldIDs()),
		}, map[string]interface{}{"violations": res.Violations})
		return form.FormSubmission{}, &RejectedError{Violations: res.Violations}
	}

	sub := form.FormSubmission{
		ID:          form.NewID(),
		FormID:      tmpl.ID,
		Data:        payload,
		SubmittedAt: s.now(),
	}
	body, err := form.MarshalSubmission(sub)
	if err != nil {
		return form.FormSubmission{}, err
	}
	if _, err := s.Store.Create(ctx, SubmissionsCollection, sub.ID, body); err != nil {
		return form.FormSubmission{}, err
	}

	s.record(logs.SystemLog{
		Level:      "info",
		Action:     logs.ActionSubmissionAccepted,
		Message:    "submission accepted",
		TemplateID: &tmpl.ID,
	}, map[string]string{"submission_id": sub.ID})
	return sub, nil
}

func (s *SubmissionService) Get(ctx context.Context, id string) (form.FormSubmission, error) {
	body, err := s.Store.FetchByID(ctx, SubmissionsCollection, id)
	if err != nil {
		return form.FormSubmission{}, err
	}
	sub, err := form.UnmarshalSubmission(body)
	if err != nil {
		return form.FormSubmission{}, fmt.Errorf("stored submission %s: %w", id, err)
	}
	return sub, nil
}

// ListByTemplate returns a template's submissions oldest first.
func (s *SubmissionService) ListByTemplate(ctx context.Context, templateID string) ([]form.FormSubmission, error) {
	recs, err := s.Store.FetchAll(ctx, SubmissionsCollection, document.Filter{"formId": templateID})
	if err != nil {
		return nil, err
	}

	out := make([]form.FormSubmission, 0, len(recs))
	for _, rec := range recs {
		sub, err := form.UnmarshalSubmission(rec.Body)
		if err != nil {
			return nil, fmt.Errorf("stored submission %s: %w", rec.ID, err)
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *SubmissionService) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, SubmissionsCollection, id)
}

// UploadFile stores a file for a file field and returns the gs:// URL the
// client puts in that field's value.
func (s *SubmissionService) UploadFile(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if strings.TrimSpace(s.Bucket) == "" {
		return UploadResult{}, ErrUploadsDisabled
	}

	tmpl, err := s.Templates.Get(ctx, req.TemplateID)
	if err != nil {
		return UploadResult{}, err
	}
	f, ok := tmpl.FieldByID(req.FieldID)
	if !ok {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrUnknownField, req.FieldID)
	}
	if f.Type != form.FieldFile {
		return UploadResult{}, fmt.Errorf("%w: %s is %s", ErrNotFileField, f.Label, f.Type)
	}

	data, err := util.DecodeBase64Payload(req.DataBase64)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}

	base := util.SanitizePart(util.StemOf(req.FileName))
	if base == "unknown" {
		base = "file"
	}
	objectName := fmt.Sprintf("%s%s_%s%s",
		uploadPrefix(tmpl.ID, f.ID),
		s.now().Format("20060102150405"),
		base,
		util.ExtFromFilenameOrMime(req.FileName, req.MimeType),
	)

	client, err := newGCSClientHook(ctx)
	if err != nil {
		return UploadResult{}, err
	}
	defer client.Close()

	size, err := util.WriteObject(ctx, client, s.Bucket, objectName, strings.TrimSpace(req.MimeType), data)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to upload %q: %w", strings.TrimSpace(req.FileName), err)
	}
	return UploadResult{URL: util.GSURL(s.Bucket, objectName), SizeBytes: size}, nil
}

// OpenUpload reads back a file previously stored by UploadFile.
func (s *SubmissionService) OpenUpload(ctx context.Context, url string) (*Download, error) {
	bucket, objectPath, err := util.ParseStorageURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}
	if bucket != s.Bucket {
		return nil, ErrForeignBucket
	}

	client, err := newGCSClientHook(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(objectPath).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, url)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	contentType := strings.TrimSpace(rc.Attrs.ContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &Download{Data: data, ContentType: contentType, FileName: path.Base(objectPath)}, nil
}

// ListUploads lists the files stored for a template, optionally narrowed to
// one field.
func (s *SubmissionService) ListUploads(ctx context.Context, templateID, fieldID string) ([]UploadInfo, error) {
	if strings.TrimSpace(s.Bucket) == "" {
		return nil, ErrUploadsDisabled
	}

	tmpl, err := s.Templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	prefix := uploadPrefix(tmpl.ID, "")
	if fieldID != "" {
		if _, ok := tmpl.FieldByID(fieldID); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, fieldID)
		}
		prefix = uploadPrefix(tmpl.ID, fieldID)
	}

	client, err := newGCSClientHook(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	objs, err := util.ListObjects(ctx, client, s.Bucket, prefix)
	if err != nil {
		return nil, err
	}

	out := make([]UploadInfo, 0, len(objs))
	for _, o := range objs {
		rest := strings.TrimPrefix(o.Name, uploadPrefix(tmpl.ID, ""))
		field, _, _ := strings.Cut(rest, "/")
		out = append(out, UploadInfo{
			URL:         util.GSURL(s.Bucket, o.Name),
			FieldID:     field,
			FileName:    path.Base(o.Name),
			ContentType: o.ContentType,
			SizeBytes:   o.Size,
			UpdatedAt:   o.Updated.UTC(),
		})
	}
	return out, nil
}

// uploadPrefix is forms/<template>/ or forms/<template>/<field>/.
func uploadPrefix(templateID, fieldID string) string {
	p := "forms/" + util.SanitizePart(templateID) + "/"
	if fieldID != "" {
		p += util.SanitizePart(fieldID) + "/"
	}
	return p
}

func (s *SubmissionService) record(entry logs.SystemLog, metadata interface{}) {
	if s.Log == nil {
		return
	}
	entry.Service = "formsubmission"
	if err := s.Log.Log(entry, metadata); err != nil {
		config.Log.WithError(err).WithField("action", entry.Action).Warn("activity log write failed")
	}
}
