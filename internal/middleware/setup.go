package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autohub/internal/config"
	"autohub/internal/setup"
)

// SetupReader is where RequireSetupComplete loads account state from.
// When nil the application database is used.
var SetupReader setup.Reader

func setupReader() setup.Reader {
	if SetupReader != nil {
		return SetupReader
	}
	return setup.NewGormReader(config.DB)
}

// RequireSetupComplete blocks dashboard routes until every onboarding step is
// done. The verdict is recomputed from the database, not read from the token.
func RequireSetupComplete() gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := setup.Check(c.Request.Context(), setupReader(), AccountID(c))
		if err != nil {
			if errors.Is(err, setup.ErrAccountNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Account not found"})
				return
			}
			logrus.WithError(err).WithField("account_id", AccountID(c)).Error("setup status check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not check setup status"})
			return
		}

		if !st.Complete() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":       "Account setup incomplete",
				"setupStatus": st,
				"redirectTo":  st.RedirectTo,
			})
			return
		}

		c.Next()
	}
}
