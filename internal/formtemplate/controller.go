package formtemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tmi-forms-api/config"
	"tmi-forms-api/internal/document"
	"tmi-forms-api/internal/form"
	"tmi-forms-api/internal/util"

	"github.com/gin-gonic/gin"
)

type TemplateController struct {
	TemplateService TemplateServiceAPI
}

// GET /api/forms/templates?category=&active_only=
func (tc *TemplateController) ListTemplates(c *gin.Context) {
	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, util.BindingErrorBody(err))
		return
	}

	tmpls, err := tc.TemplateService.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	renderTemplates(c, tmpls)
}

// POST /api/forms/templates
func (tc *TemplateController) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.BindingErrorBody(err))
		return
	}

	res, err := tc.TemplateService.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	renderSave(c, http.StatusCreated, res)
}

// POST /api/forms/templates/import
func (tc *TemplateController) ImportTemplate(c *gin.Context) {
	text, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := tc.TemplateService.Import(c.Request.Context(), text)
	if err != nil {
		writeError(c, err)
		return
	}
	renderSave(c, http.StatusCreated, res)
}

// POST /api/forms/templates/stock/:key
func (tc *TemplateController) CreateFromStock(c *gin.Context) {
	res, err := tc.TemplateService.CreateFromStock(c.Request.Context(), c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	renderSave(c, http.StatusCreated, res)
}

func (tc *TemplateController) GetTemplate(c *gin.Context) {
	tmpl, err := tc.TemplateService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	raw, err := form.Serialize(tmpl)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// PUT /api/forms/templates/:id with the full template text as body.
func (tc *TemplateController) ReplaceTemplate(c *gin.Context) {
	text, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := tc.TemplateService.Replace(c.Request.Context(), c.Param("id"), text)
	if err != nil {
		writeError(c, err)
		return
	}
	renderSave(c, http.StatusOK, res)
}

func (tc *TemplateController) DeleteTemplate(c *gin.Context) {
	if err := tc.TemplateService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
}

// GET /api/forms/templates/:id/export downloads the portable text.
func (tc *TemplateController) ExportTemplate(c *gin.Context) {
	id := c.Param("id")
	text, err := tc.TemplateService.Export(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="template_%s.json"`, util.SanitizePart(id)))
	c.Data(http.StatusOK, "application/json", text)
}

func (tc *TemplateController) GetStructure(c *gin.Context) {
	vs, err := tc.TemplateService.Structure(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": len(vs) == 0, "violations": nonNil(vs)})
}

// POST /api/forms/templates/:id/edit
func (tc *TemplateController) EditTemplate(c *gin.Context) {
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.BindingErrorBody(err))
		return
	}

	res, err := tc.TemplateService.Edit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	renderSave(c, http.StatusOK, res)
}

func (tc *TemplateController) PublishTemplate(c *gin.Context) {
	res, err := tc.TemplateService.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	renderSave(c, http.StatusOK, res)
}

func (tc *TemplateController) UnpublishTemplate(c *gin.Context) {
	res, err := tc.TemplateService.Unpublish(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	renderSave(c, http.StatusOK, res)
}

// GET /api/forms/sections/defaults
func (tc *TemplateController) ListDefaultSections(c *gin.Context) {
	out := make([]gin.H, 0, len(form.DefaultSectionKeys()))
	for _, key := range form.DefaultSectionKeys() {
		sec, _ := form.DefaultSection(key)
		raw, err := form.SerializeSection(sec)
		if err != nil {
			writeError(c, err)
			return
		}
		out = append(out, gin.H{"key": key, "section": json.RawMessage(raw)})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GET /api/forms/field-types
func (tc *TemplateController) ListFieldTypes(c *gin.Context) {
	out := make([]gin.H, 0, len(form.FieldTypes()))
	for _, ft := range form.FieldTypes() {
		rules := []string{}
		for _, k := range form.ApplicableRuleKinds(ft) {
			rules = append(rules, string(k))
		}
		out = append(out, gin.H{
			"type":             ft,
			"defaultLabel":     ft.DefaultLabel(),
			"requiresOptions":  ft.RequiresOptions(),
			"allowsValidation": ft.AllowsValidation(),
			"valueKind":        ft.ValueKind(),
			"rules":            rules,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GET /api/forms/rule-kinds?field_type=email
func (tc *TemplateController) ListRuleKinds(c *gin.Context) {
	kinds := form.RuleKinds()
	if v := strings.TrimSpace(c.Query("field_type")); v != "" {
		ft, ok := form.ParseFieldType(v)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown field type %q", v)})
			return
		}
		kinds = form.ApplicableRuleKinds(ft)
	}

	out := make([]gin.H, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, gin.H{
			"rule":          k,
			"name":          k.DisplayName(),
			"description":   k.Description(),
			"placeholder":   k.Placeholder(),
			"valueLabel":    k.ValueLabel(),
			"requiresValue": k.RequiresValue(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// GET /api/forms/users/:userId/templates
func (tc *TemplateController) ListUserTemplates(c *gin.Context) {
	tmpls, err := tc.TemplateService.ListForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	renderTemplates(c, tmpls)
}

// POST /api/forms/users/:userId/templates
func (tc *TemplateController) AddUserTemplate(c *gin.Context) {
	var req AddUserFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.BindingErrorBody(err))
		return
	}

	if err := tc.TemplateService.AddToUser(c.Request.Context(), c.Param("userId"), req.TemplateID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "template added", "formId": req.TemplateID})
}

func renderSave(c *gin.Context, status int, res SaveResult) {
	raw, err := form.Serialize(res.Template)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, gin.H{
		"template":   json.RawMessage(raw),
		"violations": nonNil(res.Violations),
	})
}

func renderTemplates(c *gin.Context, tmpls []*form.Template) {
	out := make([]json.RawMessage, 0, len(tmpls))
	for _, t := range tmpls {
		raw, err := form.Serialize(t)
		if err != nil {
			writeError(c, err)
			return
		}
		out = append(out, raw)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func writeError(c *gin.Context, err error) {
	var pe *form.ParseError
	var blocked *PublishBlockedError

	switch {
	case errors.As(err, &blocked):
		c.JSON(http.StatusConflict, gin.H{"error": blocked.Error(), "violations": blocked.Violations})
	case errors.Is(err, document.ErrNotFound), errors.Is(err, ErrUnknownStock):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &pe), errors.Is(err, ErrInvalidEdit), errors.Is(err, document.ErrInvalidBody):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		config.Log.WithError(err).Error("form template request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
