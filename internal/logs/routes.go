package logs

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.Engine, logService *LogService) {
	logController := &LogController{LogService: logService}

	logGroup := r.Group("/api/logs")
	{
		logGroup.GET("", logController.GetLogs)
	}
}
