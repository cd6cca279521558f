package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qgatssdev/nika/model"
)

// UpdateCommissionStructure godoc
// swagger:route PUT /v1/admin/users/{id}/commission-structure admin update_commission_structure
// Update commission structure
//
// Changes the commission overrides of a user. Omitted fields are left untouched.
//
//	Security:
//	  AdminKey:
//
//	Responses:
//	  200: User
//	  400: RequestErrorResp
//	  404: RequestErrorResp
func (actions *Actions) UpdateCommissionStructure(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		abortWithError(c, BadRequest, "Invalid user id")
		return
	}
	request := model.UpdateCommissionStructureRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		_ = c.Error(err)
		abortWithError(c, BadRequest, "Invalid commission structure")
		return
	}

	user, err := actions.service.UpdateCommissionStructure(c.Request.Context(), userID, &request)
	if err != nil {
		abortWithServiceError(c, err, "Unable to update commission structure")
		return
	}
	c.JSON(OK, user)
}
