package formsubmission

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, submissionService SubmissionServiceAPI) {
	sc := &SubmissionController{SubmissionService: submissionService}

	forms := r.Group("/api/forms")
	{
		forms.POST("/templates/:id/submissions", sc.Submit)
		forms.GET("/templates/:id/submissions", sc.ListByTemplate)
		forms.GET("/templates/:id/submissions/export", sc.Export)
		forms.GET("/templates/:id/uploads", sc.ListUploads)
		forms.GET("/submissions/:id", sc.GetSubmission)
		forms.DELETE("/submissions/:id", sc.DeleteSubmission)
		forms.POST("/uploads", sc.Upload)
		forms.GET("/uploads", sc.GetUpload)
	}
}
