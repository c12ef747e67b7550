package http

import "github.com/gin-gonic/gin"

// Register mounts the tracker routes on a group already scoped to
// /projects/:project_type.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/record", h.record)
	rg.GET("/data", h.allData)
	rg.GET("/events", h.events)

	acc := rg.Group("/stages/:stage/accelerators/:accelerator")
	acc.GET("", h.getAccelerator)
	acc.PUT("", h.saveAccelerator)
	acc.POST("/validate", h.validate)
	acc.GET("/can-proceed", h.canProceed)
}
