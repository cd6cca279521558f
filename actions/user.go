package actions

import (
	"github.com/gin-gonic/gin"

	"github.com/qgatssdev/nika/model"
)

// Signup godoc
// swagger:route POST /v1/auth/signup auth signup
// Signup
//
// Creates a user with a referral code and empty wallets, optionally under a referrer
//
//	Consumes:
//	- application/json
//
//	Responses:
//	  201: SignupResult
//	  400: RequestErrorResp
//	  500: RequestErrorResp
func (actions *Actions) Signup(c *gin.Context) {
	request := model.SignupRequest{}
	if err := c.ShouldBindJSON(&request); err != nil {
		_ = c.Error(err)
		abortWithError(c, BadRequest, "Invalid signup request")
		return
	}

	result, err := actions.service.Signup(c.Request.Context(), &request)
	if err != nil {
		abortWithServiceError(c, err, "Unable to create user")
		return
	}
	c.JSON(Created, result)
}

// GetProfile returns the current user together with its wallets
func (actions *Actions) GetProfile(c *gin.Context) {
	userID, _ := getUserID(c)
	profile, err := actions.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err, "Unable to get profile")
		return
	}
	c.JSON(OK, profile)
}
