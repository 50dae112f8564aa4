package formdraft

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, draftService DraftServiceAPI) {
	dc := &DraftController{DraftService: draftService}
	r.POST("/api/forms/drafts", dc.CreateDraft)
}
