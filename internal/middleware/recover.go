package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	"wheels-backend/pkg/utils"
)

// Recover converts panics into the standard 500 envelope. The stack
// trace goes to the server log always, and into the response body only
// outside production.
func Recover(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := debug.Stack()
					log.Printf("❌ PANIC: %v\n%s", rec, stack)

					resp := utils.Response{
						Success: false,
						Message: "Internal server error",
					}
					if env != "production" {
						resp.Data = map[string]interface{}{
							"panic": fmt.Sprintf("%v", rec),
							"stack": string(stack),
						}
					}
					utils.JSON(w, http.StatusInternalServerError, resp)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
