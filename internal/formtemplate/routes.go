package formtemplate

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, templateService TemplateServiceAPI) {
	tc := &TemplateController{TemplateService: templateService}

	forms := r.Group("/api/forms")
	{
		forms.GET("/templates", tc.ListTemplates)
		forms.POST("/templates", tc.CreateTemplate)
		forms.POST("/templates/import", tc.ImportTemplate)
		forms.POST("/templates/stock/:key", tc.CreateFromStock)
		forms.GET("/templates/:id", tc.GetTemplate)
		forms.PUT("/templates/:id", tc.ReplaceTemplate)
		forms.DELETE("/templates/:id", tc.DeleteTemplate)
		forms.GET("/templates/:id/export", tc.ExportTemplate)
		forms.GET("/templates/:id/structure", tc.GetStructure)
		forms.POST("/templates/:id/edit", tc.EditTemplate)
		forms.POST("/templates/:id/publish", tc.PublishTemplate)
		forms.POST("/templates/:id/unpublish", tc.UnpublishTemplate)

		forms.GET("/sections/defaults", tc.ListDefaultSections)
		forms.GET("/field-types", tc.ListFieldTypes)
		forms.GET("/rule-kinds", tc.ListRuleKinds)

		forms.GET("/users/:userId/templates", tc.ListUserTemplates)
		forms.POST("/users/:userId/templates", tc.AddUserTemplate)
	}
}
